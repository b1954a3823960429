// Package config handles configuration loading and management for teamwork.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for teamwork.
type Config struct {
	Project ProjectConfig `mapstructure:"project"`
	Lock    LockConfig    `mapstructure:"lock"`
	Mailbox MailboxConfig `mapstructure:"mailbox"`
	Waves   WavesConfig   `mapstructure:"waves"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// ProjectConfig holds project namespace settings.
type ProjectConfig struct {
	// Root is the coordination root directory, relative to the working
	// directory unless absolute.
	Root string `mapstructure:"root"`
}

// LockConfig holds file lock settings.
type LockConfig struct {
	// Timeout bounds how long an acquire waits on contention.
	Timeout time.Duration `mapstructure:"timeout"`
	// PollInterval is the retry interval while waiting for a lock.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// StaleAfter is the age past which an abandoned lock is reclaimed.
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// MailboxConfig holds mailbox settings.
type MailboxConfig struct {
	// PollInterval is the fallback re-check interval during a poll.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// DefaultInbox is the inbox idle notifications are sent to.
	DefaultInbox string `mapstructure:"default_inbox"`
}

// WavesConfig holds wave recomputation policy.
type WavesConfig struct {
	// ForceRelease releases claimed tasks whose dependencies are no longer
	// all resolved when waves are recomputed.
	ForceRelease bool `mapstructure:"force_release"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	// Log enables the file-based debug log under <root>/logs.
	Log bool `mapstructure:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{Root: ".teamwork"},
		Lock: LockConfig{
			Timeout:      10 * time.Second,
			PollInterval: 100 * time.Millisecond,
			StaleAfter:   60 * time.Second,
		},
		Mailbox: MailboxConfig{
			PollInterval: 100 * time.Millisecond,
			DefaultInbox: "orchestrator",
		},
		Waves: WavesConfig{ForceRelease: false},
		Debug: DebugConfig{Log: false},
	}
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TEAMWORK_*)
// 2. Project config (.teamwork.yaml in current directory or parent)
// 3. User config (~/.config/teamwork/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("TEAMWORK")
	v.BindEnv("project.root", "TEAMWORK_ROOT")
	v.BindEnv("mailbox.default_inbox", "TEAMWORK_INBOX")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("project.root", cfg.Project.Root)
	v.Set("lock.timeout", cfg.Lock.Timeout.String())
	v.Set("lock.poll_interval", cfg.Lock.PollInterval.String())
	v.Set("lock.stale_after", cfg.Lock.StaleAfter.String())
	v.Set("mailbox.poll_interval", cfg.Mailbox.PollInterval.String())
	v.Set("mailbox.default_inbox", cfg.Mailbox.DefaultInbox)
	v.Set("waves.force_release", cfg.Waves.ForceRelease)
	v.Set("debug.log", cfg.Debug.Log)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("project.root", def.Project.Root)
	v.SetDefault("lock.timeout", def.Lock.Timeout.String())
	v.SetDefault("lock.poll_interval", def.Lock.PollInterval.String())
	v.SetDefault("lock.stale_after", def.Lock.StaleAfter.String())
	v.SetDefault("mailbox.poll_interval", def.Mailbox.PollInterval.String())
	v.SetDefault("mailbox.default_inbox", def.Mailbox.DefaultInbox)
	v.SetDefault("waves.force_release", def.Waves.ForceRelease)
	v.SetDefault("debug.log", def.Debug.Log)
}

// getUserConfigDir returns the XDG config directory for teamwork.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "teamwork")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "teamwork")
	}
	return filepath.Join(home, ".config", "teamwork")
}

// findProjectConfig searches for .teamwork.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".teamwork.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
