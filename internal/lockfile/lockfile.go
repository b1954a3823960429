// Package lockfile implements cross-process mutual exclusion over named
// filesystem resources. A lock is an atomically created marker directory
// (<resource>.lock) holding a holder record, which makes acquisition
// all-or-nothing on any POSIX-ish filesystem without advisory byte-range
// locks. Locks are reentrant per holder id, and abandoned locks are
// reclaimed once their holder process is gone and the record has aged past
// the staleness threshold.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ShayCichocki/teamwork/internal/debuglog"
	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

const (
	// DefaultTimeout bounds how long Acquire waits on contention.
	DefaultTimeout = 10 * time.Second
	// DefaultPollInterval is how often Acquire retries while waiting.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultStaleAfter is the age past which an abandoned lock may be
	// reclaimed.
	DefaultStaleAfter = 60 * time.Second
)

// ErrTimeout indicates Acquire gave up waiting for the lock.
// Callers must treat it as "try again later", never as a correctness
// violation.
var ErrTimeout = errors.New("lock acquisition timed out")

// Manager acquires and releases filesystem locks.
type Manager struct {
	timeout      time.Duration
	pollInterval time.Duration
	staleAfter   time.Duration
	log          *debuglog.Logger

	pid   int
	now   func() time.Time
	alive func(pid int) bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the acquisition timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithPollInterval sets the retry interval while waiting for a lock.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) { m.pollInterval = d }
}

// WithStaleAfter sets the staleness threshold for lock reclamation.
func WithStaleAfter(d time.Duration) Option {
	return func(m *Manager) { m.staleAfter = d }
}

// WithLogger sets the debug logger.
func WithLogger(l *debuglog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a lock manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		staleAfter:   DefaultStaleAfter,
		log:          debuglog.Nop(),
		pid:          os.Getpid(),
		now:          time.Now,
		alive:        pidAlive,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lockDir returns the marker directory path for a resource.
func lockDir(resource string) string {
	return resource + ".lock"
}

// holderPath returns the holder record path for a resource.
func holderPath(resource string) string {
	return filepath.Join(lockDir(resource), "holder.json")
}

// Acquire takes the lock for resource on behalf of holderID.
// It polls until the lock is won, the context is cancelled, or the timeout
// elapses (ErrTimeout). Acquire is reentrant: if holderID already holds the
// lock it succeeds immediately.
func (m *Manager) Acquire(ctx context.Context, resource, holderID string) error {
	if err := os.MkdirAll(filepath.Dir(lockDir(resource)), 0755); err != nil {
		return fmt.Errorf("create lock parent directory: %w", err)
	}

	deadline := m.now().Add(m.timeout)
	for {
		ok, err := m.tryAcquire(resource, holderID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if m.now().After(deadline) {
			return fmt.Errorf("%w: %s (holder %s)", ErrTimeout, resource, holderID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

// tryAcquire makes one attempt at the lock. It returns (true, nil) on
// success and (false, nil) on ordinary contention.
func (m *Manager) tryAcquire(resource, holderID string) (bool, error) {
	dir := lockDir(resource)

	err := os.Mkdir(dir, 0755)
	if err == nil {
		return true, m.writeHolder(resource, holderID)
	}
	if !os.IsExist(err) {
		return false, fmt.Errorf("create lock %s: %w", dir, err)
	}

	holder := m.readHolder(resource)

	// Reentrant acquisition by the current holder.
	if holder != nil && holderID != "" && holder.Owner == holderID {
		return true, nil
	}

	if !m.isStale(dir, holder) {
		return false, nil
	}

	// Abandoned lock: reclaim and retry the atomic create once. Losing
	// the retry means another process reclaimed first, which is ordinary
	// contention, not an error.
	m.log.Log("[lockfile] reclaiming stale lock %s (holder=%v)", dir, holder)
	os.Remove(holderPath(resource))
	os.Remove(dir)

	err = os.Mkdir(dir, 0755)
	if err == nil {
		return true, m.writeHolder(resource, holderID)
	}
	if os.IsExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("create lock %s: %w", dir, err)
}

// writeHolder records lock ownership inside a freshly created marker.
func (m *Manager) writeHolder(resource, holderID string) error {
	holder := &models.LockHolder{
		Owner:      holderID,
		PID:        m.pid,
		AcquiredAt: m.now(),
	}
	if err := record.Write(holderPath(resource), holder); err != nil {
		// Do not leave a lock we could not label; a bare marker would
		// look abandoned to every contender until it ages out.
		os.Remove(lockDir(resource))
		return fmt.Errorf("write holder record: %w", err)
	}
	return nil
}

// readHolder loads the holder record, returning nil when it is missing or
// corrupt. A corrupt record is logged and treated as missing.
func (m *Manager) readHolder(resource string) *models.LockHolder {
	var holder models.LockHolder
	err := record.Read(holderPath(resource), &holder)
	if err != nil {
		if errors.Is(err, record.ErrCorrupt) {
			m.log.Log("[lockfile] corrupt holder record for %s: %v", resource, err)
		}
		return nil
	}
	return &holder
}

// isStale reports whether an existing lock may be reclaimed.
// A lock with a holder record is stale when its process is gone and the
// record has aged past the threshold. A lock with no readable holder record
// is stale once the marker directory itself ages past the threshold, which
// gives a mid-acquisition process time to finish writing its record.
func (m *Manager) isStale(dir string, holder *models.LockHolder) bool {
	if holder == nil {
		info, err := os.Stat(dir)
		if err != nil {
			// Marker vanished between attempts; next Mkdir decides.
			return false
		}
		return m.now().Sub(info.ModTime()) > m.staleAfter
	}
	if m.alive(holder.PID) {
		return false
	}
	return holder.Age(m.now()) > m.staleAfter
}

// Release drops the lock for resource.
// With an empty holderID the lock is removed unconditionally; with a
// holderID it is a no-op returning false unless that holder currently owns
// the lock, so one process cannot release another's lock by mistake.
func (m *Manager) Release(resource, holderID string) bool {
	dir := lockDir(resource)
	if _, err := os.Stat(dir); err != nil {
		return false
	}

	if holderID != "" {
		holder := m.readHolder(resource)
		if holder == nil || holder.Owner != holderID {
			return false
		}
	}

	os.Remove(holderPath(resource))
	return os.Remove(dir) == nil
}

// IsHeldBy reports whether holderID currently holds the lock on resource.
func (m *Manager) IsHeldBy(resource, holderID string) bool {
	holder := m.readHolder(resource)
	return holder != nil && holderID != "" && holder.Owner == holderID
}

// Holder returns the current holder record for resource, or nil when the
// resource is unlocked.
func (m *Manager) Holder(resource string) *models.LockHolder {
	return m.readHolder(resource)
}

// pidAlive reports whether a process with the given pid exists.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, syscall.EPERM)
}
