package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.StreamReadLimit < 0 {
		errs = append(errs, fmt.Errorf("server.stream_read_limit %d must not be negative", cfg.Server.StreamReadLimit))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}

	// Lexicon
	if t := cfg.Lexicon.PhoneticThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("lexicon.phonetic_threshold %.2f is out of range [0, 1]", t))
	}
	if t := cfg.Lexicon.FuzzyThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("lexicon.fuzzy_threshold %.2f is out of range [0, 1]", t))
	}
	for alias, canonical := range cfg.Lexicon.Aliases {
		if strings.TrimSpace(alias) == "" {
			errs = append(errs, fmt.Errorf("lexicon.aliases contains an empty alias"))
			continue
		}
		if strings.TrimSpace(canonical) == "" {
			errs = append(errs, fmt.Errorf("lexicon.aliases[%q] has an empty canonical name", alias))
		}
	}
	if !cfg.Lexicon.UseBuiltin() && cfg.Lexicon.File == "" && len(cfg.Lexicon.Aliases) == 0 {
		slog.Warn("lexicon.builtin is disabled and no lexicon file or aliases are configured; no exercise will be recognised")
	}

	// MCP
	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path %q must start with '/'", cfg.MCP.Path))
	}

	return errors.Join(errs...)
}
