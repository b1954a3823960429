package store

import "errors"

// ErrNotFound indicates the task does not exist (or its record is corrupt;
// corrupt records are logged and treated as missing, never rewritten).
var ErrNotFound = errors.New("task not found")

// ErrConflict indicates a claim or update lost a race: the task is already
// owned, already exists, or is owned by someone else. Callers should retry
// or pick another task; a conflict is never a correctness violation.
var ErrConflict = errors.New("task conflict")

// ErrUnavailable indicates the task cannot be claimed because one of its
// blockedBy dependencies is not resolved yet.
var ErrUnavailable = errors.New("task unavailable")
