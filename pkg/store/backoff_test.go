package store

import (
	"testing"
	"time"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	policy := DefaultBackoffPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 50 * time.Millisecond},
		{attempt: 1, want: 50 * time.Millisecond},
		{attempt: 2, want: 100 * time.Millisecond},
		{attempt: 10, want: 500 * time.Millisecond},
		{attempt: 40, want: 2 * time.Second},
		{attempt: 41, want: 2 * time.Second},
		{attempt: 1 << 40, want: 2 * time.Second},
	}

	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffPolicy_ZeroValue(t *testing.T) {
	var policy BackoffPolicy

	if got := policy.Delay(3); got != 150*time.Millisecond {
		t.Errorf("zero policy Delay(3) = %v, want 150ms", got)
	}
	if got := policy.Cap(); got != 2*time.Second {
		t.Errorf("zero policy Cap() = %v, want 2s", got)
	}
}
