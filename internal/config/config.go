// Package config provides configuration management for chanmap.
// Precedence: environment > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chanmap/chanmap/internal/similarity"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	LogLevel string `yaml:"logLevel,omitempty"`
	DataDir  string `yaml:"dataDir,omitempty"`
	Listen   string `yaml:"listen,omitempty"`

	Catalog  CatalogConfig  `yaml:"catalog"`
	Matching MatchingConfig `yaml:"matching"`
	RefData  RefDataConfig  `yaml:"refdata,omitempty"`
}

// CatalogConfig holds catalog client settings.
type CatalogConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Timeout   string `yaml:"timeout,omitempty"`   // e.g. "30s"
	RateLimit int    `yaml:"rateLimit,omitempty"` // requests/sec, 0 = unlimited
	RateBurst int    `yaml:"rateBurst,omitempty"`
}

// MatchingConfig holds the matching-engine settings. Pointer fields
// distinguish "not set" from an explicit zero value.
type MatchingConfig struct {
	Countries      []string `yaml:"countries,omitempty"`
	FuzzyThreshold *int     `yaml:"fuzzyThreshold,omitempty"` // 0-100
	Algorithm      string   `yaml:"algorithm,omitempty"`      // "blocks" or "jarowinkler"
	OTAFormat      string   `yaml:"otaFormat,omitempty"`
	IgnoredTags    []string `yaml:"ignoredTags,omitempty"`
	UnknownSuffix  *string  `yaml:"unknownSuffix,omitempty"`
	SelectedGroups []string `yaml:"selectedGroups,omitempty"`
	DefaultLogo    string   `yaml:"defaultLogo,omitempty"`
}

// RefDataConfig points at an optional on-disk reference-dataset override.
type RefDataConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	threshold := 85
	suffix := " [Unk]"
	return Config{
		LogLevel: "info",
		DataDir:  "/var/lib/chanmap",
		Listen:   ":8085",
		Catalog: CatalogConfig{
			Timeout:   "30s",
			RateLimit: 5,
			RateBurst: 10,
		},
		Matching: MatchingConfig{
			Countries:      []string{"us"},
			FuzzyThreshold: &threshold,
			Algorithm:      similarity.AlgorithmBlocks,
			OTAFormat:      "{NETWORK} - {STATE} {CITY} ({CALLSIGN})",
			IgnoredTags:    []string{"[HD]", "[FHD]", "[SD]", "[4K]", "[Slow]"},
			UnknownSuffix:  &suffix,
		},
	}
}

// Threshold resolves the configured fuzzy threshold.
func (m MatchingConfig) Threshold() int {
	if m.FuzzyThreshold == nil {
		return 85
	}
	return *m.FuzzyThreshold
}

// Suffix resolves the unknown-channel suffix.
func (m MatchingConfig) Suffix() string {
	if m.UnknownSuffix == nil {
		return " [Unk]"
	}
	return *m.UnknownSuffix
}

// CatalogTimeout parses the catalog timeout, falling back to 30s.
func (c CatalogConfig) CatalogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Loader loads configuration with precedence ENV > file > defaults.
type Loader struct {
	Path string // optional YAML file path
}

// Load resolves the effective configuration and validates it.
func (l Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.Path != "" {
		data, err := os.ReadFile(l.Path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", l.Path, err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects structurally broken configuration before any matching is
// attempted.
func Validate(cfg Config) error {
	if t := cfg.Matching.Threshold(); t < 0 || t > 100 {
		return fmt.Errorf("config: fuzzyThreshold %d out of range [0,100]", t)
	}
	if len(cfg.Matching.Countries) == 0 {
		return fmt.Errorf("config: at least one country must be selected")
	}
	if _, err := similarity.New(cfg.Matching.Algorithm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(cfg.Matching.OTAFormat) == "" {
		return fmt.Errorf("config: otaFormat must not be empty")
	}
	if cfg.Catalog.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Catalog.Timeout); err != nil {
			return fmt.Errorf("config: catalog.timeout: %w", err)
		}
	}
	if cfg.Catalog.RateLimit < 0 || cfg.Catalog.RateBurst < 0 {
		return fmt.Errorf("config: catalog rate limit settings must not be negative")
	}
	return nil
}
