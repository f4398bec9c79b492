package config

import (
	"cmp"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	AliasesChanged bool
	AliasChanges   []AliasDiff // sorted by alias

	// RestartRequired lists changed settings that only take effect after a
	// restart (listen address, lexicon file, database DSN, MCP mount).
	RestartRequired []string
}

// AliasDiff describes what changed for a single inline alias.
type AliasDiff struct {
	Alias      string
	Canonical  string // the new target; empty when Removed
	Added      bool
	Removed    bool
	Retargeted bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Inline aliases
	for alias, oldTarget := range old.Lexicon.Aliases {
		newTarget, exists := new.Lexicon.Aliases[alias]
		switch {
		case !exists:
			d.AliasChanges = append(d.AliasChanges, AliasDiff{Alias: alias, Removed: true})
		case newTarget != oldTarget:
			d.AliasChanges = append(d.AliasChanges, AliasDiff{Alias: alias, Canonical: newTarget, Retargeted: true})
		}
	}
	for alias, target := range new.Lexicon.Aliases {
		if _, exists := old.Lexicon.Aliases[alias]; !exists {
			d.AliasChanges = append(d.AliasChanges, AliasDiff{Alias: alias, Canonical: target, Added: true})
		}
	}
	slices.SortFunc(d.AliasChanges, func(a, b AliasDiff) int {
		return cmp.Compare(a.Alias, b.Alias)
	})
	d.AliasesChanged = len(d.AliasChanges) > 0

	// Settings that need a restart.
	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Lexicon.File != new.Lexicon.File {
		d.RestartRequired = append(d.RestartRequired, "lexicon.file")
	}
	if old.Lexicon.UseBuiltin() != new.Lexicon.UseBuiltin() {
		d.RestartRequired = append(d.RestartRequired, "lexicon.builtin")
	}
	if old.Lexicon.PostgresDSN != new.Lexicon.PostgresDSN {
		d.RestartRequired = append(d.RestartRequired, "lexicon.postgres_dsn")
	}
	if old.MCP != new.MCP {
		d.RestartRequired = append(d.RestartRequired, "mcp")
	}
	if old.Lexicon.PhoneticThreshold != new.Lexicon.PhoneticThreshold ||
		old.Lexicon.FuzzyThreshold != new.Lexicon.FuzzyThreshold {
		d.RestartRequired = append(d.RestartRequired, "lexicon thresholds")
	}

	return d
}
