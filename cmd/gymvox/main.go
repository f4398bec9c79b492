// Command gymvox parses spoken gym shorthand into workout commands.
//
// Usage:
//
//	gymvox [-config config.yaml] [serve]      HTTP API, WebSocket stream, MCP over HTTP
//	gymvox [-config config.yaml] parse TEXT   parse one transcript and print JSON
//	gymvox [-config config.yaml] mcp          MCP tools over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrWong99/gymvox/internal/app"
	"github.com/MrWong99/gymvox/internal/config"
	"github.com/MrWong99/gymvox/internal/observe"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("gymvox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode := "serve"
	rest := fs.Args()
	if len(rest) > 0 {
		mode, rest = rest[0], rest[1:]
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, fromFile, err := loadConfig(*configPath, mode)
	if err != nil {
		fmt.Fprintf(stderr, "gymvox: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(newLogger(stderr, level))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		return serve(ctx, cfg, *configPath, fromFile, level, stdout)
	case "parse":
		if len(rest) == 0 {
			fmt.Fprintln(stderr, "gymvox: parse needs a transcript, e.g. gymvox parse \"bench 225 for 5\"")
			return 2
		}
		return parseOnce(ctx, cfg, strings.Join(rest, " "), stdout)
	case "mcp":
		return serveStdio(ctx, cfg)
	default:
		fmt.Fprintf(stderr, "gymvox: unknown mode %q (want serve, parse or mcp)\n", mode)
		return 2
	}
}

// loadConfig reads path. Outside serve mode a missing file falls back to the
// defaults so one-shot parsing works without any setup.
func loadConfig(path, mode string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		if mode != "serve" {
			return config.Default(), false, nil
		}
		return nil, false, fmt.Errorf("config file %q not found, copy configs/example.yaml to get started", path)
	}
	return nil, false, err
}

// ── Modes ─────────────────────────────────────────────────────────────────────

func serve(ctx context.Context, cfg *config.Config, configPath string, watch bool, level *slog.LevelVar, stdout io.Writer) int {
	slog.Info("gymvox starting",
		"version", version,
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	application, err := app.New(ctx, cfg,
		app.WithLevelVar(level),
		app.WithMetricsHandler(provider.MetricsHandler()),
		app.WithVersion(version),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	if watch {
		if err := application.Watch(configPath); err != nil {
			slog.Warn("config hot-reload disabled", "err", err)
		}
	}

	printStartupSummary(stdout, cfg, application)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

func parseOnce(ctx context.Context, cfg *config.Config, transcript string, stdout io.Writer) int {
	application, err := app.New(ctx, cfg, app.WithVersion(version))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer application.Shutdown(context.WithoutCancel(ctx))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(application.Parser().Analyze(transcript).Result()); err != nil {
		slog.Error("failed to write result", "err", err)
		return 1
	}
	return 0
}

func serveStdio(ctx context.Context, cfg *config.Config) int {
	application, err := app.New(ctx, cfg, app.WithVersion(version))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer application.Shutdown(context.WithoutCancel(ctx))

	slog.Info("serving MCP tools on stdio", "version", version)
	if err := application.MCP().RunStdio(ctx); err != nil {
		slog.Error("mcp stdio error", "err", err)
		return 1
	}
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config, a *app.App) {
	snap := a.Store().Snapshot()

	backend := "(in-memory)"
	if cfg.Lexicon.PostgresDSN != "" {
		backend = "postgres"
	}
	mcp := "(disabled)"
	if cfg.MCP.Enabled {
		mcp = cfg.MCP.Path
	}

	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║         gymvox startup summary        ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Exercises", fmt.Sprint(len(snap.Exercises())))
	printRow(w, "Lexicon size", fmt.Sprint(snap.Len()))
	printRow(w, "Alias store", backend)
	printRow(w, "MCP endpoint", mcp)
	printRow(w, "Listen addr", cfg.Server.ListenAddr)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Fprintf(w, "║  %-12s    : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
