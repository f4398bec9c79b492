// Package app wires the gymvox subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the lexicon (built-in
// seed, lexicon file, inline aliases, optional PostgreSQL alias backend) and
// the HTTP and MCP surfaces, Run serves until the context is cancelled, and
// Shutdown releases everything in order.
//
// For testing, inject doubles via functional options (WithBackend,
// WithMetrics). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/gymvox/internal/config"
	"github.com/MrWong99/gymvox/internal/health"
	"github.com/MrWong99/gymvox/internal/mcpserver"
	"github.com/MrWong99/gymvox/internal/observe"
	"github.com/MrWong99/gymvox/internal/resilience"
	"github.com/MrWong99/gymvox/internal/server"
	"github.com/MrWong99/gymvox/pkg/grammar"
	"github.com/MrWong99/gymvox/pkg/lexicon"
	"github.com/MrWong99/gymvox/pkg/lexicon/phonetic"
	"github.com/MrWong99/gymvox/pkg/lexicon/postgres"
)

// App owns all subsystem lifetimes.
type App struct {
	cfg     *config.Config
	version string

	levelVar       *slog.LevelVar
	metrics        *observe.Metrics
	metricsHandler http.Handler

	// Subsystems, initialised in New and torn down in Shutdown.
	backend  lexicon.Backend
	pool     *pgxpool.Pool
	store    *lexicon.Store
	parser   *grammar.Parser
	checkers []health.Checker

	// baseAliases is the alias table from the built-in seed and the lexicon
	// file, before inline aliases were applied.
	baseAliases map[string]string
	api      *server.Server
	mcp      *mcpserver.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithBackend injects an alias backend instead of connecting to
// lexicon.postgres_dsn.
func WithBackend(b lexicon.Backend) Option {
	return func(a *App) { a.backend = b }
}

// WithMetrics injects the metric instruments instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLevelVar lets config reloads change the log level of the handler
// built around v.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = v }
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. It connects to
// PostgreSQL and migrates the alias table when a DSN is configured, so ctx
// bounds that work.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, version: "dev"}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Alias backend ─────────────────────────────────────────────────
	if err := a.initBackend(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init backend: %w", err)
	}

	// ── 2. Lexicon ───────────────────────────────────────────────────────
	if err := a.initLexicon(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init lexicon: %w", err)
	}

	// ── 3. Surfaces ──────────────────────────────────────────────────────
	a.initServers()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initBackend connects the PostgreSQL alias backend or keeps an injected one.
func (a *App) initBackend(ctx context.Context) error {
	if a.backend != nil {
		return nil
	}
	dsn := a.cfg.Lexicon.PostgresDSN
	if dsn == "" {
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	// The database may still be starting next to us.
	pg := postgres.New(pool)
	if err := resilience.Retry(ctx, resilience.RetryConfig{Name: "postgres migrate"}, pg.Migrate); err != nil {
		return err
	}
	guarded := resilience.NewBackend(pg, resilience.BreakerConfig{Name: "postgres"})
	a.backend = guarded
	a.checkers = append(a.checkers,
		health.Ping("postgres", pool),
		health.Checker{Name: "postgres_breaker", Check: func(context.Context) error {
			if guarded.Breaker().State() == resilience.StateOpen {
				return resilience.ErrOpen
			}
			return nil
		}},
	)
	slog.Info("alias backend ready", "backend", "postgres")
	return nil
}

// initLexicon builds the store from the built-in seed, the lexicon file,
// inline aliases and, last, the persisted aliases.
func (a *App) initLexicon(ctx context.Context) error {
	lc := a.cfg.Lexicon

	opts := []lexicon.Option{
		lexicon.WithMatcher(phonetic.New(
			phonetic.WithPhoneticThreshold(lc.PhoneticThreshold),
			phonetic.WithFuzzyThreshold(lc.FuzzyThreshold),
		)),
		lexicon.WithOnChange(func(snap *lexicon.Snapshot) {
			a.metrics.SetLexiconSize(context.Background(), snap.Len())
		}),
	}
	if lc.UseBuiltin() {
		opts = append(opts, lexicon.WithExercises(lexicon.Builtin()))
	}
	if a.backend != nil {
		opts = append(opts, lexicon.WithBackend(a.backend))
	}
	a.store = lexicon.NewStore(opts...)

	if lc.File != "" {
		lf, err := lexicon.LoadFile(lc.File)
		if err != nil {
			return err
		}
		n, err := lf.Apply(a.store)
		if err != nil {
			return err
		}
		slog.Info("imported lexicon file", "path", lc.File, "count", n)
	}

	a.baseAliases = a.store.Snapshot().Aliases()
	for _, alias := range slices.Sorted(maps.Keys(lc.Aliases)) {
		if err := a.store.Teach(alias, lc.Aliases[alias]); err != nil {
			return fmt.Errorf("inline alias %q: %w", alias, err)
		}
	}

	n, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if a.backend != nil {
		slog.Info("loaded persisted aliases", "count", n)
	}

	snap := a.store.Snapshot()
	a.metrics.SetLexiconSize(ctx, snap.Len())
	a.checkers = append(a.checkers, health.Lexicon(a.store))
	a.parser = grammar.New(a.store)

	slog.Info("lexicon ready",
		"exercises", len(snap.Exercises()),
		"entries", snap.Len(),
		"version", snap.Version(),
	)
	return nil
}

// initServers builds the MCP tools and the HTTP API.
func (a *App) initServers() {
	a.mcp = mcpserver.New(a.store,
		mcpserver.WithMetrics(a.metrics),
		mcpserver.WithVersion(a.version),
	)

	opts := []server.Option{
		server.WithMetrics(a.metrics),
		server.WithStreamReadLimit(a.cfg.Server.StreamReadLimit),
		server.WithHealth(health.New(a.checkers...)),
	}
	if a.metricsHandler != nil {
		opts = append(opts, server.WithMetricsHandler(a.metricsHandler))
	}
	if a.cfg.MCP.Enabled {
		opts = append(opts, server.WithMount(a.cfg.MCP.Path, a.mcp.Handler()))
	}
	a.api = server.New(a.store, opts...)
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Store returns the live lexicon.
func (a *App) Store() *lexicon.Store { return a.store }

// Parser returns a parser reading the live lexicon.
func (a *App) Parser() *grammar.Parser { return a.parser }

// MCP returns the MCP tool server, e.g. for stdio mode.
func (a *App) MCP() *mcpserver.Server { return a.mcp }

// Handler returns the full HTTP API.
func (a *App) Handler() http.Handler { return a.api.Handler() }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the HTTP API on server.listen_addr and blocks until ctx is
// cancelled, then drains in-flight requests within server.shutdown_timeout.
// Open WebSocket streams are closed when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It closes ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     a.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})

	slog.Info("app running",
		"addr", ln.Addr().String(),
		"mcp", a.cfg.MCP.Enabled,
		"backend", a.backend != nil,
	)
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// Watch starts a [config.Watcher] on path that applies every valid change
// through [App.Reload]. The watcher is stopped by Shutdown.
func (a *App) Watch(path string, opts ...config.WatcherOption) error {
	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		a.Reload(context.Background(), old, new)
	}, opts...)
	if err != nil {
		return fmt.Errorf("app: watch config: %w", err)
	}
	a.closers = append(a.closers, func() error {
		w.Stop()
		return nil
	})
	return nil
}

// Reload applies the hot-reloadable differences between old and new: the
// log level and the inline aliases. Settings that need a restart are logged.
func (a *App) Reload(ctx context.Context, old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.levelVar != nil {
		a.levelVar.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	for _, c := range d.AliasChanges {
		op := "teach"
		canonical := c.Canonical
		var err error
		if c.Removed {
			op = "forget"
			canonical, err = a.restoreAlias(ctx, c.Alias)
		} else {
			err = a.store.Teach(c.Alias, c.Canonical)
		}
		a.metrics.RecordAliasChange(ctx, op, observe.Status(err))

		switch {
		case errors.Is(err, lexicon.ErrUnknownAlias):
			slog.Debug("reloaded alias already gone", "alias", c.Alias)
		case err != nil:
			slog.Warn("failed to apply reloaded alias", "alias", c.Alias, "op", op, "err", err)
		case c.Removed && canonical != "":
			slog.Info("inline alias removed, previous mapping restored", "alias", c.Alias, "canonical", canonical)
		default:
			slog.Info("alias reloaded", "alias", c.Alias, "op", op, "canonical", canonical)
		}
	}

	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "settings", d.RestartRequired)
	}
}

// restoreAlias undoes an inline alias that left the config. The key falls
// back to the persisted alias, then to the seed or lexicon file mapping the
// inline alias had shadowed, and is forgotten only when neither exists. It
// returns the restored canonical name, empty when the alias was forgotten.
func (a *App) restoreAlias(ctx context.Context, alias string) (string, error) {
	key := lexicon.NormalizeKey(alias)
	if a.backend != nil {
		persisted, err := a.backend.LoadAliases(ctx)
		if err != nil {
			return "", fmt.Errorf("app: restore alias %q: %w", key, err)
		}
		if c, ok := persisted[key]; ok {
			return c, a.store.Teach(key, c)
		}
	}
	if c, ok := a.baseAliases[key]; ok {
		return c, a.store.Teach(key, c)
	}
	return "", a.store.Forget(key)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll runs the closers registered so far after a failed New.
func (a *App) closeAll() {
	for _, closer := range a.closers {
		_ = closer()
	}
}
