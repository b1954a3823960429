package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskStatusValid(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusOpen, TaskStatusInProgress, TaskStatusResolved, TaskStatusFailed} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	for _, s := range []TaskStatus{"", "done", "OPEN"} {
		if s.Valid() {
			t.Errorf("%q.Valid() = true", s)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	if !TaskStatusResolved.Terminal() || !TaskStatusFailed.Terminal() {
		t.Error("resolved and failed must be terminal")
	}
	if TaskStatusOpen.Terminal() || TaskStatusInProgress.Terminal() {
		t.Error("open and in_progress must not be terminal")
	}
}

func TestTaskClone(t *testing.T) {
	claimed := time.Now()
	orig := &Task{
		ID:        "t1",
		Subject:   "subject",
		Status:    TaskStatusInProgress,
		Owner:     "w1",
		Evidence:  []string{"one"},
		BlockedBy: []string{"t0"},
		ClaimedAt: &claimed,
	}
	orig.SetExtraFields(map[string]json.RawMessage{"priority": json.RawMessage(`"high"`)})

	c := orig.Clone()
	c.Evidence[0] = "changed"
	c.BlockedBy[0] = "changed"
	*c.ClaimedAt = claimed.Add(time.Hour)
	c.ExtraFields()["priority"] = json.RawMessage(`"low"`)

	if orig.Evidence[0] != "one" || orig.BlockedBy[0] != "t0" {
		t.Error("Clone shares slices with the original")
	}
	if !orig.ClaimedAt.Equal(claimed) {
		t.Error("Clone shares ClaimedAt with the original")
	}
	if string(orig.ExtraFields()["priority"]) != `"high"` {
		t.Error("Clone shares extra fields with the original")
	}
}
