// Package config handles rxl configuration: a YAML file under the user's
// config directory, a .env file, and RXL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsen/rxivlink/internal/biorxiv"
	"github.com/matsen/rxivlink/internal/crossref"
)

// EnvPrefix is the prefix of environment overrides (RXL_CROSSREF_MAILTO, ...).
const EnvPrefix = "RXL"

// Config holds settings for the collaborator clients.
type Config struct {
	CrossrefMailto    string  `yaml:"crossref_mailto,omitempty" json:"crossref_mailto" envconfig:"CROSSREF_MAILTO"`
	CrossrefBaseURL   string  `yaml:"crossref_base_url,omitempty" json:"crossref_base_url" envconfig:"CROSSREF_BASE_URL"`
	BiorxivBaseURL    string  `yaml:"biorxiv_base_url,omitempty" json:"biorxiv_base_url" envconfig:"BIORXIV_BASE_URL"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	SearchRows        int     `yaml:"search_rows,omitempty" json:"search_rows" envconfig:"SEARCH_ROWS"`
	TimeoutSeconds    int     `yaml:"timeout_seconds,omitempty" json:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CrossrefBaseURL:   crossref.BaseURL,
		BiorxivBaseURL:    biorxiv.BaseURL,
		RequestsPerSecond: crossref.RateLimit,
		SearchRows:        crossref.DefaultRows,
		TimeoutSeconds:    int(crossref.DefaultTimeout / time.Second),
	}
}

// Timeout returns the HTTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	for name, raw := range map[string]string{
		"crossref_base_url": c.CrossrefBaseURL,
		"biorxiv_base_url":  c.BiorxivBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidConfig, name, raw)
		}
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be positive, got %v", ErrInvalidConfig, c.RequestsPerSecond)
	}
	if c.SearchRows < 1 || c.SearchRows > 1000 {
		return fmt.Errorf("%w: search_rows must be between 1 and 1000, got %d", ErrInvalidConfig, c.SearchRows)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: timeout_seconds must be positive, got %d", ErrInvalidConfig, c.TimeoutSeconds)
	}
	if c.CrossrefMailto != "" && !strings.Contains(c.CrossrefMailto, "@") {
		return fmt.Errorf("%w: crossref_mailto %q is not an email address", ErrInvalidConfig, c.CrossrefMailto)
	}
	return nil
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
