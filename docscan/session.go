package docscan

import (
	"sync/atomic"

	uuid "github.com/satori/go.uuid"
)

// SessionState of the lifecycle machine. Stopped is terminal and no state
// is ever re-entered.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateConfiguring
	StateScanning
	StateCompleting
	StateCancelling
	StateFailing
	StateStopped
)

var stateNames = map[SessionState]string{
	StateIdle:        "idle",
	StateConfiguring: "configuring",
	StateScanning:    "scanning",
	StateCompleting:  "completing",
	StateCancelling:  "cancelling",
	StateFailing:     "failing",
	StateStopped:     "stopped",
}

func (s SessionState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// cancel flag values; the flag only ever moves forward
const (
	cancelNone int32 = iota
	cancelRequested
	cancelAcknowledged
)

// Session is the shared per-session context object. The cancel flag, the
// scanning flag and the state word are all atomics so cancellation triggers
// running on their own goroutines can read them without coordination; only
// the session task itself drives state forward.
type Session struct {
	ID uuid.UUID

	state    int32
	cancel   int32
	scanning int32
}

// NewSession with a fresh id, starting Idle
func NewSession() *Session {
	return &Session{ID: uuid.NewV4()}
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	return SessionState(atomic.LoadInt32(&s.state))
}

// Transition moves from exactly the given state to the next one. It returns
// false when the session already moved on, which callers treat as "someone
// else terminated first".
func (s *Session) Transition(from, to SessionState) bool {
	return atomic.CompareAndSwapInt32(&s.state, int32(from), int32(to))
}

// Scanning reports whether a device operation is in flight. True only
// during Scanning, Cancelling and Failing; this is the predicate the
// force-stop guard consults.
func (s *Session) Scanning() bool {
	return atomic.LoadInt32(&s.scanning) == 1
}

// SetScanning flips the in-flight flag
func (s *Session) SetScanning(v bool) {
	var n int32
	if v {
		n = 1
	}
	atomic.StoreInt32(&s.scanning, n)
}

// RequestCancel moves the cancel flag none->requested. However many
// triggers fire, exactly one call returns true.
func (s *Session) RequestCancel() bool {
	return atomic.CompareAndSwapInt32(&s.cancel, cancelNone, cancelRequested)
}

// AcknowledgeCancel marks the requested cancellation as observed by the
// session task.
func (s *Session) AcknowledgeCancel() bool {
	return atomic.CompareAndSwapInt32(&s.cancel, cancelRequested, cancelAcknowledged)
}

// CancelRequested reports whether any trigger has fired
func (s *Session) CancelRequested() bool {
	return atomic.LoadInt32(&s.cancel) >= cancelRequested
}
