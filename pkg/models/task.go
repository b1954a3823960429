package models

import (
	"encoding/json"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusOpen indicates the task is unclaimed and may be worked on.
	TaskStatusOpen TaskStatus = "open"
	// TaskStatusInProgress indicates a worker currently owns the task.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusResolved indicates the task completed successfully.
	TaskStatusResolved TaskStatus = "resolved"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusResolved, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a terminal state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusResolved || s == TaskStatusFailed
}

// Task represents a unit of work shared between worker processes.
// Task records live one-file-per-task under <root>/tasks and are only
// mutated under the task's file lock.
type Task struct {
	// ID is the unique identifier for this task within a project root.
	ID string `json:"id"`
	// Subject is the short description of the task.
	Subject string `json:"subject"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Owner is the holder id of the worker that claimed this task.
	// Owner is empty unless the task is claimed.
	Owner string `json:"owner,omitempty"`
	// Role tags the kind of worker the task is intended for.
	Role string `json:"role,omitempty"`
	// SuccessCriteria defines the criteria for task completion.
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	// Evidence accumulates append-only proof-of-work notes.
	Evidence []string `json:"evidence,omitempty"`
	// BlockedBy lists task IDs that must resolve before this task is available.
	BlockedBy []string `json:"blockedBy,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// ClaimedAt is when the task was claimed, if it has been.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	// CompletedAt is when the task reached a terminal status, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// extra holds unknown fields read from disk, preserved on rewrite so
	// newer schema versions can share a project root with older binaries.
	extra map[string]json.RawMessage
}

// ExtraFields returns unknown JSON fields captured at decode time.
func (t *Task) ExtraFields() map[string]json.RawMessage { return t.extra }

// SetExtraFields stores unknown JSON fields captured at decode time.
func (t *Task) SetExtraFields(m map[string]json.RawMessage) { t.extra = m }

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.SuccessCriteria = append([]string(nil), t.SuccessCriteria...)
	c.Evidence = append([]string(nil), t.Evidence...)
	c.BlockedBy = append([]string(nil), t.BlockedBy...)
	if t.ClaimedAt != nil {
		at := *t.ClaimedAt
		c.ClaimedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(t.extra))
		for k, v := range t.extra {
			c.extra[k] = v
		}
	}
	return &c
}
