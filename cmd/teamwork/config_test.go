package main

import (
	"testing"
	"time"

	"github.com/ShayCichocki/teamwork/internal/config"
)

func TestConfigValueRoundTrip(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		key   string
		value string
	}{
		{"project.root", "/srv/work"},
		{"lock.timeout", "25s"},
		{"lock.poll_interval", "50ms"},
		{"lock.stale_after", "2m0s"},
		{"mailbox.poll_interval", "250ms"},
		{"mailbox.default_inbox", "lead"},
		{"waves.force_release", "true"},
		{"debug.log", "true"},
	}

	for _, tc := range cases {
		if err := setConfigValue(cfg, tc.key, tc.value); err != nil {
			t.Errorf("setConfigValue(%s, %s) failed: %v", tc.key, tc.value, err)
			continue
		}
		got, err := configValue(cfg, tc.key)
		if err != nil {
			t.Errorf("configValue(%s) failed: %v", tc.key, err)
			continue
		}
		if got != tc.value {
			t.Errorf("configValue(%s) = %q, want %q", tc.key, got, tc.value)
		}
	}

	if cfg.Lock.Timeout != 25*time.Second {
		t.Errorf("lock timeout = %v, want 25s", cfg.Lock.Timeout)
	}
}

func TestSetConfigValueRejectsBadInput(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "lock.timeout", "soon"); err == nil {
		t.Error("accepted invalid duration")
	}
	if err := setConfigValue(cfg, "waves.force_release", "maybe"); err == nil {
		t.Error("accepted invalid boolean")
	}
	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("accepted unknown key")
	}
	if _, err := configValue(cfg, "no.such.key"); err == nil {
		t.Error("read unknown key")
	}
}

func TestDefaultHolderID(t *testing.T) {
	a := defaultHolderID()
	b := defaultHolderID()
	if a == "" || a == b {
		t.Errorf("holder ids not unique: %q, %q", a, b)
	}
}
