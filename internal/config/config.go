package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the immutable snapshot of extraction/query behavior consumed
// by the core. The core never holds a live reference to a Config; it
// receives a Settings value at construction and again on explicit update.
type Settings struct {
	// TagFilter is a comma/whitespace separated list of required tags.
	// Empty means every document matches.
	TagFilter string `yaml:"tag_filter" json:"tag_filter"`

	// TagFilterMode is "any" (OR) or "all" (AND).
	TagFilterMode string `yaml:"tag_filter_mode" json:"tag_filter_mode"`

	// Frontmatter property names the extractor reads.
	DateProperty           string `yaml:"date_property" json:"date_property"`
	EndDateProperty        string `yaml:"end_date_property" json:"end_date_property"`
	TimeProperty           string `yaml:"time_property" json:"time_property"`
	ColorProperty          string `yaml:"color_property" json:"color_property"`
	RecurrenceProperty     string `yaml:"recurrence_property" json:"recurrence_property"`
	RecurrenceDaysProperty string `yaml:"recurrence_days_property" json:"recurrence_days_property"`
	RRuleProperty          string `yaml:"rrule_property" json:"rrule_property"`

	// WeekStartsOn selects the first weekday of grids and the week-number
	// algorithm: 0 = Sunday, 1 = Monday (ISO numbering).
	WeekStartsOn int `yaml:"week_starts_on" json:"week_starts_on"`

	// Locale is a BCP 47 tag used for month/weekday display names.
	Locale string `yaml:"locale" json:"locale"`

	// DateFormat is the token template (YYYY, MMMM, ...) for display dates.
	DateFormat string `yaml:"date_format" json:"date_format"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Vault is the directory scanned for markdown notes.
	Vault string `yaml:"vault" json:"vault"`

	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used to invalidate and re-warm the event cache.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days listed in single-shot mode.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	Settings Settings `yaml:"settings" json:"settings"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultSettings returns the default extraction/query settings.
func DefaultSettings() Settings {
	return Settings{
		TagFilter:              "",
		TagFilterMode:          "any",
		DateProperty:           "date",
		EndDateProperty:        "endDate",
		TimeProperty:           "time",
		ColorProperty:          "color",
		RecurrenceProperty:     "recurrence",
		RecurrenceDaysProperty: "recurrenceDays",
		RRuleProperty:          "rrule",
		WeekStartsOn:           1,
		Locale:                 "en",
		DateFormat:             "YYYY-MM-DD",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Vault:       "./vault",
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 14,
		Settings:    DefaultSettings(),
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Vault == "" {
		c.Vault = "./vault"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 14
	}
	c.Settings.Normalize()
}

// Normalize fills empty Settings fields with defaults and clamps enums.
func (s *Settings) Normalize() {
	def := DefaultSettings()

	switch s.TagFilterMode {
	case "any", "all":
	default:
		s.TagFilterMode = def.TagFilterMode
	}
	if s.DateProperty == "" {
		s.DateProperty = def.DateProperty
	}
	if s.EndDateProperty == "" {
		s.EndDateProperty = def.EndDateProperty
	}
	if s.TimeProperty == "" {
		s.TimeProperty = def.TimeProperty
	}
	if s.ColorProperty == "" {
		s.ColorProperty = def.ColorProperty
	}
	if s.RecurrenceProperty == "" {
		s.RecurrenceProperty = def.RecurrenceProperty
	}
	if s.RecurrenceDaysProperty == "" {
		s.RecurrenceDaysProperty = def.RecurrenceDaysProperty
	}
	if s.RRuleProperty == "" {
		s.RRuleProperty = def.RRuleProperty
	}
	if s.WeekStartsOn != 0 && s.WeekStartsOn != 1 {
		s.WeekStartsOn = def.WeekStartsOn
	}
	if s.Locale == "" {
		s.Locale = def.Locale
	}
	if s.DateFormat == "" {
		s.DateFormat = def.DateFormat
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms, and return the default config.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".notecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
