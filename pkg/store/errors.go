package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Common errors returned by the client.
var (
	// ErrNoURL is returned by Connect when no Redis URL is configured.
	ErrNoURL = errors.New("redis url is required")

	// ErrClosed is returned when Disconnect races with a lazy connect.
	ErrClosed = errors.New("store client closed")
)

// OpError records a failed store operation. It is logged and counted,
// never returned to callers of the neutral-value operations.
type OpError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// isTransportError reports whether err means the connection itself failed,
// as opposed to a server reply error, a miss or a cancelled caller.
func isTransportError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return false
	}
	return true
}
