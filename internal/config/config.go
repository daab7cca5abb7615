package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultWorkers = 4

// Config controls how captured events are turned into messages.
type Config struct {
	// Bots lists emails or usernames whose comments are not human-authored.
	// Only FAILURE lines are quoted from them.
	Bots []string `yaml:"bots"`

	Workers       int    `yaml:"workers"`
	EscapeQueries bool   `yaml:"escape_queries"`
	Filter        string `yaml:"filter"`

	// DedupeCapacity > 0 drops a message already emitted for the same change
	// within DedupeTTL (0 keeps entries until evicted by capacity).
	DedupeCapacity int           `yaml:"dedupe_capacity"`
	DedupeTTL      time.Duration `yaml:"dedupe_ttl"`
}

// Load reads the optional YAML file named by GERRITBOT_CONFIG (or path, when
// non-empty) and then applies environment overrides:
//
//	GERRITBOT_BOTS            comma separated bot emails/usernames
//	GERRITBOT_WORKERS         formatting workers (default 4)
//	GERRITBOT_ESCAPE_QUERIES  percent-encode values in search links
//	GERRITBOT_FILTER          drop messages matching this regexp
//	GERRITBOT_DEDUPE_CAPACITY remembered messages for repeat suppression (0 = off)
//	GERRITBOT_DEDUPE_TTL      how long a message is remembered, e.g. "10m"
//
// Load does not validate; call Validate once every override is applied.
func Load(path string) (*Config, error) {
	cfg := &Config{Workers: defaultWorkers}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("GERRITBOT_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if bots := os.Getenv("GERRITBOT_BOTS"); bots != "" {
		cfg.Bots = splitCSV(bots)
	}
	if v := os.Getenv("GERRITBOT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GERRITBOT_WORKERS %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("GERRITBOT_ESCAPE_QUERIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GERRITBOT_ESCAPE_QUERIES %q: %w", v, err)
		}
		cfg.EscapeQueries = b
	}
	if v, ok := os.LookupEnv("GERRITBOT_FILTER"); ok {
		cfg.Filter = v
	}
	if v := os.Getenv("GERRITBOT_DEDUPE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GERRITBOT_DEDUPE_CAPACITY %q: %w", v, err)
		}
		cfg.DedupeCapacity = n
	}
	if v := os.Getenv("GERRITBOT_DEDUPE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GERRITBOT_DEDUPE_TTL %q: %w", v, err)
		}
		cfg.DedupeTTL = d
	}

	return cfg, nil
}

// Validate checks values that could have come from any source.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.DedupeCapacity < 0 {
		return fmt.Errorf("dedupe capacity must not be negative, got %d", c.DedupeCapacity)
	}
	if c.DedupeTTL < 0 {
		return fmt.Errorf("dedupe ttl must not be negative, got %s", c.DedupeTTL)
	}
	if _, err := c.FilterRegexp(); err != nil {
		return err
	}
	return nil
}

// FilterRegexp compiles Filter; it returns nil when no filter is set.
func (c *Config) FilterRegexp() (*regexp.Regexp, error) {
	if c.Filter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", c.Filter, err)
	}
	return re, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
