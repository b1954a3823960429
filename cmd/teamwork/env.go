package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ShayCichocki/teamwork/internal/config"
	"github.com/ShayCichocki/teamwork/internal/debuglog"
	"github.com/ShayCichocki/teamwork/internal/history"
	"github.com/ShayCichocki/teamwork/internal/lockfile"
	"github.com/ShayCichocki/teamwork/internal/mailbox"
	"github.com/ShayCichocki/teamwork/internal/store"
)

// env wires the coordination components together for one command
// invocation: config, project root, logger, locks, mailbox, history ledger
// and task store.
type env struct {
	cfg     *config.Config
	root    string
	log     *debuglog.Logger
	mailbox *mailbox.Mailbox
	ledger  *history.Ledger
	store   *store.Store
}

// openEnv builds the command environment from config and flags.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	root := rootFlag
	if root == "" {
		root = cfg.Project.Root
	}
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		root = filepath.Join(cwd, root)
	}

	log := debuglog.Nop()
	if cfg.Debug.Log {
		log = debuglog.ForRoot(root)
	}

	locks := lockfile.NewManager(
		lockfile.WithTimeout(cfg.Lock.Timeout),
		lockfile.WithPollInterval(cfg.Lock.PollInterval),
		lockfile.WithStaleAfter(cfg.Lock.StaleAfter),
		lockfile.WithLogger(log),
	)

	mb, err := mailbox.Open(root,
		mailbox.WithPollInterval(cfg.Mailbox.PollInterval),
		mailbox.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	// The ledger is advisory; run without it rather than fail the command.
	ledger, err := history.Open(history.Path(root))
	if err != nil {
		log.Log("[env] history ledger unavailable: %v", err)
		ledger = nil
	}

	opts := []store.Option{
		store.WithLocks(locks),
		store.WithLogger(log),
		store.WithNotifier(mb, cfg.Mailbox.DefaultInbox),
	}
	if ledger != nil {
		opts = append(opts, store.WithHistory(ledger))
	}
	st, err := store.Open(root, opts...)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		root:    root,
		log:     log,
		mailbox: mb,
		ledger:  ledger,
		store:   st,
	}, nil
}

// Close releases environment resources.
func (e *env) Close() {
	if e.ledger != nil {
		e.ledger.Close()
	}
	e.log.Close()
}

// defaultHolderID generates a holder identity for commands that don't
// receive one: hostname plus a short random suffix.
func defaultHolderID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.New().String()[:8])
}
