package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("first-run load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Settings.DateProperty != "date" {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := `
vault: /notes
settings:
  tag_filter: calendar
  tag_filter_mode: everything
  week_starts_on: 5
`
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault != "/notes" {
		t.Errorf("vault = %q", cfg.Vault)
	}
	if cfg.Settings.TagFilter != "calendar" {
		t.Errorf("tag filter = %q", cfg.Settings.TagFilter)
	}
	// Out-of-range enums collapse to defaults.
	if cfg.Settings.TagFilterMode != "any" {
		t.Errorf("tag filter mode = %q, want any", cfg.Settings.TagFilterMode)
	}
	if cfg.Settings.WeekStartsOn != 1 {
		t.Errorf("week_starts_on = %d, want 1", cfg.Settings.WeekStartsOn)
	}
	if cfg.Settings.RecurrenceProperty != "recurrence" {
		t.Errorf("recurrence property = %q", cfg.Settings.RecurrenceProperty)
	}
	if cfg.RefreshCron == "" || cfg.HorizonDays <= 0 {
		t.Errorf("server defaults not filled: %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Vault = "/srv/vault"
	cfg.Settings.Locale = "ko"
	cfg.Settings.WeekStartsOn = 0
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Vault != "/srv/vault" || loaded.Settings.Locale != "ko" || loaded.Settings.WeekStartsOn != 0 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.BasicAuth == nil || loaded.BasicAuth.Username != "u" {
		t.Errorf("basic auth lost: %+v", loaded.BasicAuth)
	}
}
