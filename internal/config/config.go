package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir   = "files"
	DefaultMoment    = "ledig"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.121 Safari/537.36"
)

// SourceConfig describes the remote schedule export and the fixed query
// that selects a one-day window for a single resource.
type SourceConfig struct {
	// BaseURL is the iCalendar export endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// ViewURL is the HTML schedule page for the same query. Only printed.
	ViewURL string `yaml:"view_url" json:"view_url"`

	Language      string `yaml:"language" json:"language"`
	SearchWithAND bool   `yaml:"search_with_and" json:"search_with_and"`
	IntervalCount int    `yaml:"interval_count" json:"interval_count"`
	// IntervalType "a" selects a day interval on the remote side.
	IntervalType string `yaml:"interval_type" json:"interval_type"`
	// Resources is the resource filter, e.g. "s.HDledig".
	Resources string `yaml:"resources" json:"resources"`

	// UserAgent is sent on every request; the server rejects default
	// client identifiers.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// FilterConfig selects which events survive extraction.
type FilterConfig struct {
	// Moment is compared case-insensitively with the tag parsed from the
	// event summary.
	Moment string `yaml:"moment" json:"moment"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataDir holds the dated raw feeds and filtered JSON files.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone, if set, is the IANA zone used for derived date/time fields.
	// Empty keeps each timestamp in the zone the feed declared.
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Source SourceConfig `yaml:"source" json:"source"`
	Filter FilterConfig `yaml:"filter" json:"filter"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		Timezone: "",
		LogLevel: "INFO",
		Source:   defaultSource(),
		Filter:   FilterConfig{Moment: DefaultMoment},
	}
}

func defaultSource() SourceConfig {
	return SourceConfig{
		BaseURL:       "https://schema.mau.se/setup/jsp/SchemaICAL.ics",
		ViewURL:       "https://schema.mau.se/setup/jsp/Schema.jsp",
		Language:      "SV",
		SearchWithAND: true,
		IntervalCount: 1,
		IntervalType:  "a",
		Resources:     "s.HDledig",
		UserAgent:     DefaultUserAgent,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := defaultSource()

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = def.BaseURL
	}
	if c.Source.ViewURL == "" {
		c.Source.ViewURL = def.ViewURL
	}
	if c.Source.Language == "" {
		c.Source.Language = def.Language
	}
	if c.Source.IntervalCount <= 0 {
		c.Source.IntervalCount = def.IntervalCount
	}
	if c.Source.IntervalType == "" {
		c.Source.IntervalType = def.IntervalType
	}
	if c.Source.Resources == "" {
		c.Source.Resources = def.Resources
	}
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = def.UserAgent
	}
	if c.Filter.Moment == "" {
		c.Filter.Moment = DefaultMoment
	}
}

// Location resolves Timezone. A nil location with a nil error means
// "keep the feed's own zone".
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename, 0600).
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

	tmp, err := os.CreateTemp(dir, ".roomslots-config-*.tmp")
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
