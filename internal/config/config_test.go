package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir stands in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Project.Root != ".teamwork" {
		t.Errorf("project root = %q, want .teamwork", cfg.Project.Root)
	}
	if cfg.Lock.Timeout != 10*time.Second {
		t.Errorf("lock timeout = %v, want 10s", cfg.Lock.Timeout)
	}
	if cfg.Lock.PollInterval != 100*time.Millisecond {
		t.Errorf("lock poll interval = %v, want 100ms", cfg.Lock.PollInterval)
	}
	if cfg.Lock.StaleAfter != 60*time.Second {
		t.Errorf("lock stale after = %v, want 60s", cfg.Lock.StaleAfter)
	}
	if cfg.Mailbox.DefaultInbox != "orchestrator" {
		t.Errorf("default inbox = %q, want orchestrator", cfg.Mailbox.DefaultInbox)
	}
	if cfg.Waves.ForceRelease {
		t.Error("force_release defaults to true")
	}
	if cfg.Debug.Log {
		t.Error("debug.log defaults to true")
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
project:
  root: /srv/coordination
lock:
  timeout: 30s
  stale_after: 5m
waves:
  force_release: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Project.Root != "/srv/coordination" {
		t.Errorf("project root = %q", cfg.Project.Root)
	}
	if cfg.Lock.Timeout != 30*time.Second {
		t.Errorf("lock timeout = %v, want 30s", cfg.Lock.Timeout)
	}
	if cfg.Lock.StaleAfter != 5*time.Minute {
		t.Errorf("lock stale after = %v, want 5m", cfg.Lock.StaleAfter)
	}
	if !cfg.Waves.ForceRelease {
		t.Error("waves.force_release not loaded")
	}
	// Unset keys keep their defaults.
	if cfg.Lock.PollInterval != 100*time.Millisecond {
		t.Errorf("lock poll interval = %v, want default 100ms", cfg.Lock.PollInterval)
	}
	if cfg.Mailbox.DefaultInbox != "orchestrator" {
		t.Errorf("default inbox = %q, want default orchestrator", cfg.Mailbox.DefaultInbox)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromPath of missing file succeeded")
	}
}

func TestLoadUserConfig(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	chdir(t, t.TempDir())

	dir := filepath.Join(configHome, "teamwork")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	content := "mailbox:\n  default_inbox: lead\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mailbox.DefaultInbox != "lead" {
		t.Errorf("default inbox = %q, want lead", cfg.Mailbox.DefaultInbox)
	}
}

func TestProjectConfigOverridesUserConfig(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	userDir := filepath.Join(configHome, "teamwork")
	if err := os.MkdirAll(userDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte("project:\n  root: user-root\n"), 0644); err != nil {
		t.Fatal(err)
	}

	projectDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectDir, ".teamwork.yaml"), []byte("project:\n  root: project-root\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Run from a subdirectory: the project file is found by walking up.
	sub := filepath.Join(projectDir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	chdir(t, sub)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project.Root != "project-root" {
		t.Errorf("project root = %q, want project-root", cfg.Project.Root)
	}
}

func TestEnvOverridesEverything(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("TEAMWORK_ROOT", "/env/root")
	t.Setenv("TEAMWORK_INBOX", "env-inbox")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project.Root != "/env/root" {
		t.Errorf("project root = %q, want /env/root", cfg.Project.Root)
	}
	if cfg.Mailbox.DefaultInbox != "env-inbox" {
		t.Errorf("default inbox = %q, want env-inbox", cfg.Mailbox.DefaultInbox)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg := Default()
	cfg.Lock.Timeout = 45 * time.Second
	cfg.Waves.ForceRelease = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Lock.Timeout != 45*time.Second {
		t.Errorf("lock timeout = %v, want 45s", loaded.Lock.Timeout)
	}
	if !loaded.Waves.ForceRelease {
		t.Error("waves.force_release not saved")
	}
}
