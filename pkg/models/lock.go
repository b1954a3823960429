package models

import (
	"encoding/json"
	"time"
)

// LockHolder is the holder record written inside a lock marker directory.
// It identifies who owns the lock so contenders can recognize reentrant
// acquisition and detect abandoned locks.
type LockHolder struct {
	// Owner is the holder identity, typically a worker or session id.
	Owner string `json:"owner"`
	// PID is the process id of the acquiring process.
	PID int `json:"pid"`
	// AcquiredAt is when the lock was taken.
	AcquiredAt time.Time `json:"acquired_at"`

	extra map[string]json.RawMessage
}

// ExtraFields returns unknown JSON fields captured at decode time.
func (h *LockHolder) ExtraFields() map[string]json.RawMessage { return h.extra }

// SetExtraFields stores unknown JSON fields captured at decode time.
func (h *LockHolder) SetExtraFields(m map[string]json.RawMessage) { h.extra = m }

// Age returns how long ago the lock was acquired.
func (h *LockHolder) Age(now time.Time) time.Duration {
	return now.Sub(h.AcquiredAt)
}
