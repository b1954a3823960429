package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify teamwork configuration.

Without arguments, displays the current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/teamwork/config.yaml
Project-specific overrides can be placed in .teamwork.yaml

Keys:
  project.root           coordination root directory
  lock.timeout           lock acquisition timeout (duration)
  lock.poll_interval     lock retry interval (duration)
  lock.stale_after       stale lock reclamation threshold (duration)
  mailbox.poll_interval  mailbox poll fallback interval (duration)
  mailbox.default_inbox  inbox for idle notifications
  waves.force_release    release invalidated claims on recompute (bool)
  debug.log              enable the file-based debug log (bool)`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch len(args) {
	case 0:
		return printJSON(cfg)
	case 1:
		val, err := configValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	case 2:
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Set %s = %s\n", args[0], args[1])
		return nil
	default:
		return fmt.Errorf("expected at most 2 arguments, got %d", len(args))
	}
}

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "project.root":
		return cfg.Project.Root, nil
	case "lock.timeout":
		return cfg.Lock.Timeout.String(), nil
	case "lock.poll_interval":
		return cfg.Lock.PollInterval.String(), nil
	case "lock.stale_after":
		return cfg.Lock.StaleAfter.String(), nil
	case "mailbox.poll_interval":
		return cfg.Mailbox.PollInterval.String(), nil
	case "mailbox.default_inbox":
		return cfg.Mailbox.DefaultInbox, nil
	case "waves.force_release":
		return strconv.FormatBool(cfg.Waves.ForceRelease), nil
	case "debug.log":
		return strconv.FormatBool(cfg.Debug.Log), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	parseDuration := func() (time.Duration, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q for %s", value, key)
		}
		return d, nil
	}
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		return b, nil
	}

	switch key {
	case "project.root":
		cfg.Project.Root = value
	case "lock.timeout":
		d, err := parseDuration()
		if err != nil {
			return err
		}
		cfg.Lock.Timeout = d
	case "lock.poll_interval":
		d, err := parseDuration()
		if err != nil {
			return err
		}
		cfg.Lock.PollInterval = d
	case "lock.stale_after":
		d, err := parseDuration()
		if err != nil {
			return err
		}
		cfg.Lock.StaleAfter = d
	case "mailbox.poll_interval":
		d, err := parseDuration()
		if err != nil {
			return err
		}
		cfg.Mailbox.PollInterval = d
	case "mailbox.default_inbox":
		cfg.Mailbox.DefaultInbox = value
	case "waves.force_release":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.Waves.ForceRelease = b
	case "debug.log":
		b, err := parseBool()
		if err != nil {
			return err
		}
		cfg.Debug.Log = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
