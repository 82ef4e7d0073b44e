package cache

import (
	"errors"
	"fmt"
)

// ErrUnknownClass is returned when a class name is not page, api or static.
var ErrUnknownClass = errors.New("unknown cache class")

// Class is the coarse content category of a request. It selects the key
// namespace and the default TTL.
type Class string

const (
	// ClassPage is any rendered page that is neither API nor a static asset.
	ClassPage Class = "page"

	// ClassAPI is a request under the API route prefix.
	ClassAPI Class = "api"

	// ClassStatic is a static asset identified by file extension.
	ClassStatic Class = "static"
)

// Classes returns all known classes in a stable order.
func Classes() []Class {
	return []Class{ClassPage, ClassAPI, ClassStatic}
}

// ParseClass validates a class name.
func ParseClass(name string) (Class, error) {
	switch c := Class(name); c {
	case ClassPage, ClassAPI, ClassStatic:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClass, name)
}
