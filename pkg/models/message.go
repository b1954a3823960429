package models

import (
	"encoding/json"
	"time"
)

// MessageTypeIdle is sent to an orchestrator inbox when a worker resolves
// its task and becomes idle.
const MessageTypeIdle = "idle_notification"

// Message is a single entry in a mailbox inbox.
// Messages are immutable once written; only the Read flag may change,
// and only the consuming poller changes it.
type Message struct {
	// ID is unique and roughly time-ordered (unix-nanos plus a random suffix).
	ID string `json:"id"`
	// From identifies the sender (a worker or session id).
	From string `json:"from"`
	// To is the recipient inbox name.
	To string `json:"to"`
	// Type is a free-form tag used for poll filtering.
	Type string `json:"type"`
	// Payload is opaque structured data supplied by the sender.
	Payload map[string]any `json:"payload,omitempty"`
	// Timestamp is when the message was written.
	Timestamp time.Time `json:"timestamp"`
	// Read reports whether the recipient has consumed the message.
	Read bool `json:"read"`

	extra map[string]json.RawMessage
}

// ExtraFields returns unknown JSON fields captured at decode time.
func (m *Message) ExtraFields() map[string]json.RawMessage { return m.extra }

// SetExtraFields stores unknown JSON fields captured at decode time.
func (m *Message) SetExtraFields(x map[string]json.RawMessage) { m.extra = x }
