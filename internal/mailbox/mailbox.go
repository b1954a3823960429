// Package mailbox implements append-only, per-inbox notification logs so an
// orchestrator can react to worker events without polling every task file.
// Each message is its own JSON file with a time-ordered unique id, so
// concurrent senders never contend and never need a lock. The poll
// operation watches the inbox directory for writes and falls back to
// interval polling, returning as soon as an unread matching message exists.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/ShayCichocki/teamwork/internal/debuglog"
	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// DefaultPollInterval is the fallback re-check interval during Poll.
const DefaultPollInterval = 100 * time.Millisecond

// Mailbox reads and writes message records under <root>/mailbox.
type Mailbox struct {
	root         string
	pollInterval time.Duration
	log          *debuglog.Logger
	now          func() time.Time
}

// Option configures a Mailbox.
type Option func(*Mailbox)

// WithPollInterval sets the fallback re-check interval for Poll.
func WithPollInterval(d time.Duration) Option {
	return func(mb *Mailbox) { mb.pollInterval = d }
}

// WithLogger sets the debug logger.
func WithLogger(l *debuglog.Logger) Option {
	return func(mb *Mailbox) { mb.log = l }
}

// Open creates a Mailbox rooted at the given project directory.
func Open(root string, opts ...Option) (*Mailbox, error) {
	mb := &Mailbox{
		root:         root,
		pollInterval: DefaultPollInterval,
		log:          debuglog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(mb)
	}
	if err := os.MkdirAll(filepath.Join(root, "mailbox"), 0755); err != nil {
		return nil, fmt.Errorf("create mailbox directory: %w", err)
	}
	return mb, nil
}

// inboxDir returns the directory holding one inbox's message files.
func (mb *Mailbox) inboxDir(inbox string) string {
	return filepath.Join(mb.root, "mailbox", inbox)
}

// messagePath returns the file path for a message id in an inbox.
func (mb *Mailbox) messagePath(inbox, id string) string {
	return filepath.Join(mb.inboxDir(inbox), id+".json")
}

// Send appends a message to an inbox and returns it.
// Message ids are unix-nanos plus a random suffix, so concurrent senders
// produce distinct, roughly time-ordered files without coordination.
func (mb *Mailbox) Send(inbox, from, msgType string, payload map[string]any) (*models.Message, error) {
	if inbox == "" {
		return nil, errors.New("inbox name is required")
	}
	if err := os.MkdirAll(mb.inboxDir(inbox), 0755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", inbox, err)
	}

	now := mb.now()
	msg := &models.Message{
		ID:        fmt.Sprintf("%020d-%s", now.UnixNano(), uuid.New().String()[:8]),
		From:      from,
		To:        inbox,
		Type:      msgType,
		Payload:   payload,
		Timestamp: now,
	}
	if err := record.Write(mb.messagePath(inbox, msg.ID), msg); err != nil {
		return nil, fmt.Errorf("send to inbox %s: %w", inbox, err)
	}
	return msg, nil
}

// Unread returns the unread messages in an inbox, oldest first, optionally
// filtered by message type. Corrupt message files are logged and skipped.
func (mb *Mailbox) Unread(inbox, typeFilter string) ([]*models.Message, error) {
	entries, err := os.ReadDir(mb.inboxDir(inbox))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inbox %s: %w", inbox, err)
	}

	var msgs []*models.Message
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var msg models.Message
		if err := record.Read(filepath.Join(mb.inboxDir(inbox), name), &msg); err != nil {
			if errors.Is(err, record.ErrCorrupt) {
				mb.log.Log("[mailbox] skipping corrupt message %s/%s: %v", inbox, name, err)
				continue
			}
			if errors.Is(err, record.ErrNotFound) {
				// Deleted between ReadDir and Read; another reader's
				// cleanup, not an error.
				continue
			}
			return nil, err
		}
		if msg.Read {
			continue
		}
		if typeFilter != "" && msg.Type != typeFilter {
			continue
		}
		msgs = append(msgs, &msg)
	}

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

// Poll blocks until the inbox contains at least one unread matching message,
// the timeout elapses, or ctx is cancelled. On timeout it returns an empty
// slice and a nil error so the caller can fall back to a status re-check.
// Delivery is detected through a directory watcher when one can be started,
// with interval polling as both fallback and safety net.
func (mb *Mailbox) Poll(ctx context.Context, inbox string, timeout time.Duration, typeFilter string) ([]*models.Message, error) {
	if err := os.MkdirAll(mb.inboxDir(inbox), 0755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", inbox, err)
	}

	msgs, err := mb.Unread(inbox, typeFilter)
	if err != nil || len(msgs) > 0 {
		return msgs, err
	}

	var events chan fsnotify.Event
	watcher, werr := fsnotify.NewWatcher()
	if werr == nil {
		if err := watcher.Add(mb.inboxDir(inbox)); err == nil {
			events = watcher.Events
		}
		defer watcher.Close()
	} else {
		mb.log.Log("[mailbox] watcher unavailable, polling only: %v", werr)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(mb.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-events:
		case <-ticker.C:
		}

		msgs, err := mb.Unread(inbox, typeFilter)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
	}
}

// MarkRead flags the given messages as consumed.
// Messages are otherwise immutable; the read flag is the only mutation and
// only the reader performs it. Unknown ids return an error rather than
// silently no-oping.
func (mb *Mailbox) MarkRead(inbox string, ids []string) error {
	for _, id := range ids {
		path := mb.messagePath(inbox, id)
		var msg models.Message
		if err := record.Read(path, &msg); err != nil {
			return fmt.Errorf("mark read %s: %w", id, err)
		}
		if msg.Read {
			continue
		}
		msg.Read = true
		if err := record.Write(path, &msg); err != nil {
			return fmt.Errorf("mark read %s: %w", id, err)
		}
	}
	return nil
}
