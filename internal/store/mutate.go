package store

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Patch describes one task mutation. Zero-value fields are left untouched.
type Patch struct {
	// Status, when non-nil, is the new task status.
	Status *models.TaskStatus
	// Evidence entries are appended to the task's evidence list.
	Evidence []string
	// Release clears the owner and claim timestamp and reopens the task.
	Release bool
}

// Claim takes exclusive ownership of an open task for holderID.
// Availability is re-validated from disk after the task's lock is held, so
// a stale ListAvailable view can never produce two owners: of any number of
// concurrent claims exactly one succeeds and the rest get ErrConflict.
// A task with unresolved dependencies fails with ErrUnavailable.
func (s *Store) Claim(ctx context.Context, id, holderID string) (*models.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if holderID == "" {
		return nil, fmt.Errorf("holder id is required to claim a task")
	}

	path := s.taskPath(id)
	if err := s.locks.Acquire(ctx, path, holderID); err != nil {
		return nil, err
	}
	defer s.locks.Release(path, holderID)

	t, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TaskStatusOpen || t.Owner != "" {
		return nil, fmt.Errorf("%w: task %s is %s (owner %q)", ErrConflict, id, t.Status, t.Owner)
	}
	for _, depID := range t.BlockedBy {
		dep, err := s.load(depID)
		if err != nil || dep.Status != models.TaskStatusResolved {
			return nil, fmt.Errorf("%w: task %s is blocked by unresolved task %s", ErrUnavailable, id, depID)
		}
	}

	now := s.now()
	t.Status = models.TaskStatusInProgress
	t.Owner = holderID
	t.ClaimedAt = &now
	if err := record.Write(path, t); err != nil {
		return nil, fmt.Errorf("claim task %s: %w", id, err)
	}

	s.recordTransition(id, models.TaskStatusOpen, t.Status, holderID)
	return t.Clone(), nil
}

// Update applies a patch to a task under its lock.
// A non-empty holderID must match the current owner (ErrConflict
// otherwise); an empty holderID is the orchestrator override used for
// recovery. Reaching a terminal status releases ownership: a task only has
// an owner while it is in progress. Marking the task resolved triggers the
// idle notification side effect when the store has a notifier configured.
func (s *Store) Update(ctx context.Context, id string, p Patch, holderID string) (*models.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("invalid task status %q", *p.Status)
	}

	path := s.taskPath(id)
	if err := s.locks.Acquire(ctx, path, holderID); err != nil {
		return nil, err
	}
	defer s.locks.Release(path, holderID)

	t, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if holderID != "" && t.Owner != "" && t.Owner != holderID {
		return nil, fmt.Errorf("%w: task %s is owned by %s", ErrConflict, id, t.Owner)
	}

	from := t.Status
	worker := holderID
	if worker == "" {
		worker = t.Owner
	}

	t.Evidence = append(t.Evidence, p.Evidence...)
	if p.Status != nil {
		t.Status = *p.Status
		if t.Status.Terminal() {
			now := s.now()
			t.CompletedAt = &now
			t.Owner = ""
			t.ClaimedAt = nil
		}
	}
	if p.Release || t.Status == models.TaskStatusOpen {
		t.Status = models.TaskStatusOpen
		t.Owner = ""
		t.ClaimedAt = nil
	}

	if err := record.Write(path, t); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	s.recordTransition(id, from, t.Status, worker)
	if from != models.TaskStatusResolved && t.Status == models.TaskStatusResolved {
		s.notifyResolved(t, worker)
	}
	return t.Clone(), nil
}

// Release clears the owner and claim timestamp and reopens the task.
// Workers release with their own holder id; the orchestrator releases a
// stuck task with an empty holder id.
func (s *Store) Release(ctx context.Context, id, holderID string) (*models.Task, error) {
	return s.Update(ctx, id, Patch{Release: true}, holderID)
}
