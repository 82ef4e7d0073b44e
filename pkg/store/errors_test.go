package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestOpError(t *testing.T) {
	tests := []struct {
		name string
		err  *OpError
		want string
	}{
		{
			name: "with key",
			err:  &OpError{Op: "get", Key: "page:/", Err: errors.New("timeout")},
			want: `store get "page:/": timeout`,
		},
		{
			name: "without key",
			err:  &OpError{Op: "clear", Err: errors.New("timeout")},
			want: "store clear: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpError_Unwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &OpError{Op: "set", Key: "k", Err: context.DeadlineExceeded})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should reach the underlying error")
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != "set" {
		t.Errorf("errors.As failed: %v", opErr)
	}
}

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "miss", err: redis.Nil, want: false},
		{name: "wrapped miss", err: fmt.Errorf("get: %w", redis.Nil), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "dial", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true},
		{name: "closed client", err: redis.ErrClosed, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransportError(tt.err); got != tt.want {
				t.Errorf("isTransportError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
