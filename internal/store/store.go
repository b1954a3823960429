// Package store is the durable task store: one JSON record per task under
// <root>/tasks, mutated only through a read-modify-write cycle held under
// the task's file lock. Reads are uncoordinated; every write re-reads the
// on-disk state after taking the lock and re-validates, so two concurrent
// claims of the same task always produce exactly one owner.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/teamwork/internal/debuglog"
	"github.com/ShayCichocki/teamwork/internal/lockfile"
	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Notifier delivers mailbox messages. Implemented by *mailbox.Mailbox.
type Notifier interface {
	Send(inbox, from, msgType string, payload map[string]any) (*models.Message, error)
}

// History records task status transitions. Implemented by *history.Ledger.
type History interface {
	Record(taskID string, from, to models.TaskStatus, actor string) error
}

// Filter narrows ListAvailable results.
type Filter struct {
	// Role, when non-empty, restricts results to tasks tagged with it.
	Role string
}

// Store reads and writes task records under one project root.
// A Store carries no task state in memory; every operation goes back to
// disk, so any number of Stores in any number of processes may share a root.
type Store struct {
	root        string
	locks       *lockfile.Manager
	log         *debuglog.Logger
	notifier    Notifier
	notifyInbox string
	history     History
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLocks sets the lock manager used to linearize task mutations.
func WithLocks(m *lockfile.Manager) Option {
	return func(s *Store) { s.locks = m }
}

// WithLogger sets the debug logger.
func WithLogger(l *debuglog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithNotifier makes the store send an idle notification to the given inbox
// whenever a task transitions to resolved.
func WithNotifier(n Notifier, inbox string) Option {
	return func(s *Store) {
		s.notifier = n
		s.notifyInbox = inbox
	}
}

// WithHistory makes the store record task transitions in a ledger.
func WithHistory(h History) Option {
	return func(s *Store) { s.history = h }
}

// Open creates a Store over the given project root, creating the tasks
// directory if needed.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root: root,
		log:  debuglog.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = lockfile.NewManager(lockfile.WithLogger(s.log))
	}
	if err := os.MkdirAll(s.tasksDir(), 0755); err != nil {
		return nil, fmt.Errorf("create tasks directory: %w", err)
	}
	return s, nil
}

// Root returns the project root this store operates on.
func (s *Store) Root() string { return s.root }

func (s *Store) tasksDir() string {
	return filepath.Join(s.root, "tasks")
}

// taskPath returns the record path for a task id.
func (s *Store) taskPath(id string) string {
	return filepath.Join(s.tasksDir(), id+".json")
}

// validateID rejects ids that would escape the tasks directory.
func validateID(id string) error {
	if id == "" {
		return errors.New("task id is required")
	}
	if strings.ContainsAny(id, `/\`) || id != filepath.Clean(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid task id %q", id)
	}
	return nil
}

// load reads one task record from disk. Missing and corrupt records both
// surface as ErrNotFound; corrupt records are additionally logged.
func (s *Store) load(id string) (*models.Task, error) {
	var t models.Task
	err := record.Read(s.taskPath(id), &t)
	if err == nil {
		return &t, nil
	}
	if errors.Is(err, record.ErrCorrupt) {
		s.log.Log("[store] corrupt task record %s: %v", id, err)
		return nil, fmt.Errorf("%w: %s (corrupt record)", ErrNotFound, id)
	}
	if errors.Is(err, record.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil, err
}

// Get returns one task by id.
func (s *Store) Get(id string) (*models.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.load(id)
}

// Create writes a new task record. It fails with ErrConflict if the id is
// already taken. The check and the write happen under the task's lock so a
// create race cannot produce two records.
func (s *Store) Create(t *models.Task) (*models.Task, error) {
	if err := validateID(t.ID); err != nil {
		return nil, err
	}
	if t.Subject == "" {
		return nil, errors.New("task subject is required")
	}
	if t.Status == "" {
		t.Status = models.TaskStatusOpen
	}
	if !t.Status.Valid() {
		return nil, fmt.Errorf("invalid task status %q", t.Status)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}

	path := s.taskPath(t.ID)
	if err := s.locks.Acquire(context.Background(), path, t.Owner); err != nil {
		return nil, err
	}
	defer s.locks.Release(path, "")

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: task %s already exists", ErrConflict, t.ID)
	}
	if err := record.Write(path, t); err != nil {
		return nil, fmt.Errorf("create task %s: %w", t.ID, err)
	}
	s.recordTransition(t.ID, "", t.Status, "")
	return t.Clone(), nil
}

// List returns every task under the root, sorted by id.
// Corrupt records are logged and skipped.
func (s *Store) List() ([]*models.Task, error) {
	entries, err := os.ReadDir(s.tasksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	var tasks []*models.Task
	for _, entry := range entries {
		name := entry.Name()
		// Lock markers are directories in the same tree; temp files are
		// dot-prefixed.
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		t, err := s.load(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		tasks = append(tasks, t)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// ListAvailable returns the tasks a worker may claim right now: status
// open, no owner, every blockedBy dependency resolved, and matching the
// filter. A task whose dependency record is missing is not available.
func (s *Store) ListAvailable(f Filter) ([]*models.Task, error) {
	tasks, err := s.List()
	if err != nil {
		return nil, err
	}

	statusByID := make(map[string]models.TaskStatus, len(tasks))
	for _, t := range tasks {
		statusByID[t.ID] = t.Status
	}

	var available []*models.Task
	for _, t := range tasks {
		if t.Status != models.TaskStatusOpen || t.Owner != "" {
			continue
		}
		if f.Role != "" && t.Role != f.Role {
			continue
		}
		if !depsResolved(t, statusByID) {
			continue
		}
		available = append(available, t)
	}
	return available, nil
}

// depsResolved reports whether every blockedBy dependency is resolved.
func depsResolved(t *models.Task, statusByID map[string]models.TaskStatus) bool {
	for _, depID := range t.BlockedBy {
		if statusByID[depID] != models.TaskStatusResolved {
			return false
		}
	}
	return true
}

// recordTransition appends to the history ledger when one is configured.
// Ledger failures are logged, never propagated; the task file is canonical.
func (s *Store) recordTransition(taskID string, from, to models.TaskStatus, actor string) {
	if s.history == nil || from == to {
		return
	}
	if err := s.history.Record(taskID, from, to, actor); err != nil {
		s.log.Log("[store] history record failed for %s: %v", taskID, err)
	}
}

// notifyResolved sends an idle notification for a resolved task when a
// notifier is configured. Delivery failures are logged, never propagated:
// the poller's timeout re-check is the safety net for a lost notification.
func (s *Store) notifyResolved(t *models.Task, workerID string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"worker_id": workerID,
		"task_id":   t.ID,
		"status":    string(t.Status),
	}
	if _, err := s.notifier.Send(s.notifyInbox, workerID, models.MessageTypeIdle, payload); err != nil {
		s.log.Log("[store] idle notification for %s failed: %v", t.ID, err)
	}
}
