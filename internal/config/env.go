package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables recognized by applyEnv, all optional.
const (
	EnvLogLevel       = "CHANMAP_LOG_LEVEL"
	EnvDataDir        = "CHANMAP_DATA"
	EnvListen         = "CHANMAP_LISTEN"
	EnvCatalogURL     = "CHANMAP_CATALOG_URL"
	EnvCatalogUser    = "CHANMAP_CATALOG_USERNAME"
	EnvCatalogPass    = "CHANMAP_CATALOG_PASSWORD"
	EnvCountries      = "CHANMAP_COUNTRIES"
	EnvFuzzyThreshold = "CHANMAP_FUZZY_THRESHOLD"
	EnvSelectedGroups = "CHANMAP_GROUPS"
	EnvRefDataDir     = "CHANMAP_REFDATA_DIR"
)

// applyEnv overlays environment variables on top of file/default values.
func applyEnv(cfg *Config) {
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.DataDir, EnvDataDir)
	setString(&cfg.Listen, EnvListen)
	setString(&cfg.Catalog.BaseURL, EnvCatalogURL)
	setString(&cfg.Catalog.Username, EnvCatalogUser)
	setString(&cfg.Catalog.Password, EnvCatalogPass)
	setString(&cfg.RefData.Dir, EnvRefDataDir)

	if v, ok := lookup(EnvCountries); ok {
		cfg.Matching.Countries = splitList(v)
	}
	if v, ok := lookup(EnvSelectedGroups); ok {
		cfg.Matching.SelectedGroups = splitList(v)
	}
	if v, ok := lookup(EnvFuzzyThreshold); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matching.FuzzyThreshold = &n
		}
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
