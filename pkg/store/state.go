package store

import (
	"sync/atomic"
	"time"
)

// Status is the connection status reported by State.
type Status string

const (
	// StatusConnected means the last dial or command reached Redis.
	StatusConnected Status = "connected"

	// StatusDisconnected means Redis is unreachable or the client was closed.
	StatusDisconnected Status = "disconnected"
)

// State tracks whether the Redis connection is usable.
// Only the Client that owns it writes to it; everyone else reads.
type State struct {
	connected atomic.Bool
	changedAt atomic.Int64
}

// Connected reports whether the connection is currently up.
func (s *State) Connected() bool {
	return s.connected.Load()
}

// Status returns the connection status as a string value.
func (s *State) Status() Status {
	if s.Connected() {
		return StatusConnected
	}
	return StatusDisconnected
}

// ChangedAt returns when the state last flipped. Zero if it never did.
func (s *State) ChangedAt() time.Time {
	ns := s.changedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// markUp sets the state to connected and reports whether it changed.
func (s *State) markUp() bool {
	if s.connected.CompareAndSwap(false, true) {
		s.changedAt.Store(time.Now().UnixNano())
		storeConnected.Set(1)
		return true
	}
	return false
}

// markDown sets the state to disconnected and reports whether it changed.
func (s *State) markDown() bool {
	if s.connected.CompareAndSwap(true, false) {
		s.changedAt.Store(time.Now().UnixNano())
		storeConnected.Set(0)
		return true
	}
	return false
}
