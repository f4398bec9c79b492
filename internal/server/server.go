// Package server exposes the transcript parser and the exercise lexicon over
// HTTP.
//
// Routes:
//
//	POST   /v1/parse            parse one transcript
//	POST   /v1/parse/batch      parse many transcripts concurrently
//	GET    /v1/aliases          list the lexicon
//	PUT    /v1/aliases/{alias}  teach an alias
//	DELETE /v1/aliases/{alias}  forget an alias
//	GET    /v1/stream           WebSocket: one transcript in, one result out
//
// Every response body is JSON. Failures carry {"error": "..."}.
package server

import (
	"net/http"
	"time"

	"github.com/MrWong99/gymvox/internal/health"
	"github.com/MrWong99/gymvox/internal/observe"
	"github.com/MrWong99/gymvox/pkg/grammar"
	"github.com/MrWong99/gymvox/pkg/lexicon"
)

const (
	// DefaultStreamReadLimit is the largest WebSocket message accepted when
	// [WithStreamReadLimit] is not given.
	DefaultStreamReadLimit = 4096

	// MaxBatch is the largest number of transcripts in one batch request.
	MaxBatch = 256

	// maxBodyBytes bounds every JSON request body.
	maxBodyBytes = 1 << 20
)

// Server serves the gymvox HTTP API. Create one with [New]; it is safe for
// concurrent use.
type Server struct {
	store   *lexicon.Store
	parser  *grammar.Parser
	metrics *observe.Metrics

	readLimit int64
	now       func() time.Time

	health         *health.Handler
	metricsHandler http.Handler
	mounts         []mount
}

type mount struct {
	pattern string
	handler http.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics records parse and alias metrics to m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithStreamReadLimit caps the size of a single WebSocket message.
func WithStreamReadLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}

// WithHealth registers /healthz and /readyz from h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMount serves h under pattern, e.g. the MCP endpoint.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mounts = append(s.mounts, mount{pattern: pattern, handler: h}) }
}

// New returns a Server that parses against store and teaches aliases into
// it.
func New(store *lexicon.Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		parser:    grammar.New(store),
		readLimit: DefaultStreamReadLimit,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the routed API wrapped in the tracing and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/parse", s.handleParse)
	mux.HandleFunc("POST /v1/parse/batch", s.handleParseBatch)
	mux.HandleFunc("GET /v1/aliases", s.handleListAliases)
	mux.HandleFunc("PUT /v1/aliases/{alias}", s.handleTeachAlias)
	mux.HandleFunc("DELETE /v1/aliases/{alias}", s.handleForgetAlias)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	for _, m := range s.mounts {
		mux.Handle(m.pattern, m.handler)
	}

	return observe.Middleware(s.metrics)(mux)
}
