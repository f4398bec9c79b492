package config_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/gymvox/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Lexicon.Aliases = map[string]string{"dl": "Deadlift"}

	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged || d.AliasesChanged || len(d.RestartRequired) != 0 {
		t.Errorf("expected no changes, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_Aliases(t *testing.T) {
	t.Parallel()
	old := &config.Config{Lexicon: config.LexiconConfig{Aliases: map[string]string{
		"dl":    "Deadlift",
		"zerch": "Zercher Squat",
		"ohp":   "Overhead Press",
	}}}
	new := &config.Config{Lexicon: config.LexiconConfig{Aliases: map[string]string{
		"dl":   "Deadlift",
		"ohp":  "Push Press",
		"hspu": "Handstand Push Up",
	}}}

	d := config.Diff(old, new)
	if !d.AliasesChanged {
		t.Fatal("expected AliasesChanged=true")
	}
	want := []config.AliasDiff{
		{Alias: "hspu", Canonical: "Handstand Push Up", Added: true},
		{Alias: "ohp", Canonical: "Push Press", Retargeted: true},
		{Alias: "zerch", Removed: true},
	}
	if !slices.Equal(d.AliasChanges, want) {
		t.Errorf("AliasChanges = %+v, want %+v", d.AliasChanges, want)
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.ListenAddr = ":1234"
	new.Lexicon.PostgresDSN = "postgres://db"
	new.MCP.Enabled = true

	d := config.Diff(old, new)
	for _, want := range []string{"server.listen_addr", "lexicon.postgres_dsn", "mcp"} {
		if !slices.Contains(d.RestartRequired, want) {
			t.Errorf("RestartRequired = %v, missing %q", d.RestartRequired, want)
		}
	}
	if d.AliasesChanged || d.LogLevelChanged {
		t.Errorf("unexpected hot changes: %+v", d)
	}
}
