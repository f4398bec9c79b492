// Package mcpserver exposes the transcript parser and the exercise lexicon
// as MCP tools, so an assistant can log sets by voice without speaking the
// HTTP API.
//
// Tools:
//
//   - parse_transcript: parse one gym shorthand transcript.
//   - teach_alias: map a spoken alias to a canonical exercise.
//   - forget_alias: remove a taught alias.
//   - list_aliases: list canonical exercises and aliases.
//
// The same [mcpsdk.Server] is served over streamable HTTP ([Server.Handler])
// or stdio ([Server.RunStdio]).
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/gymvox/internal/observe"
	"github.com/MrWong99/gymvox/pkg/grammar"
	"github.com/MrWong99/gymvox/pkg/lexicon"
)

// Tool names.
const (
	ToolParse  = "parse_transcript"
	ToolTeach  = "teach_alias"
	ToolForget = "forget_alias"
	ToolList   = "list_aliases"
)

// Server owns the MCP server and its tools.
type Server struct {
	store   *lexicon.Store
	parser  *grammar.Parser
	metrics *observe.Metrics
	version string

	srv *mcpsdk.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics records tool calls and parses to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the implementation version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New builds the MCP server with all tools registered against store.
func New(store *lexicon.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		parser:  grammar.New(store),
		version: "dev",
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	s.srv = mcpsdk.NewServer(&mcpsdk.Implementation{Name: "gymvox", Version: s.version}, nil)

	mcpsdk.AddTool(s.srv, &mcpsdk.Tool{
		Name:        ToolParse,
		Description: "Parse a spoken gym shorthand transcript (e.g. \"bench 225 for 5\") into a confidence-scored workout command.",
	}, instrument(s, ToolParse, s.parseTranscript))

	mcpsdk.AddTool(s.srv, &mcpsdk.Tool{
		Name:        ToolTeach,
		Description: "Teach the parser that a spoken alias means a canonical exercise. Overwrites an existing alias.",
	}, instrument(s, ToolTeach, s.teachAlias))

	mcpsdk.AddTool(s.srv, &mcpsdk.Tool{
		Name:        ToolForget,
		Description: "Remove a previously taught exercise alias.",
	}, instrument(s, ToolForget, s.forgetAlias))

	mcpsdk.AddTool(s.srv, &mcpsdk.Tool{
		Name:        ToolList,
		Description: "List the canonical exercises and aliases the parser knows.",
	}, instrument(s, ToolList, s.listAliases))

	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcpsdk.Server { return s.srv }

// Handler serves the tools over the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return s.srv }, nil)
}

// RunStdio serves the tools on stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.srv.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcpserver: run stdio: %w", err)
	}
	return nil
}

// instrument wraps a tool handler with a span, a tool-call metric and a log
// line on failure.
func instrument[In, Out any](s *Server, tool string, fn func(context.Context, In) (Out, error)) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := observe.StartSpan(ctx, "mcp.tool "+tool)
		defer span.End()

		out, err := fn(ctx, in)
		if err != nil {
			s.metrics.RecordToolCall(ctx, tool, "error")
			span.RecordError(err)
			observe.Logger(ctx).Warn("mcpserver: tool failed", "tool", tool, "err", err)
			var zero Out
			return nil, zero, err
		}
		s.metrics.RecordToolCall(ctx, tool, "ok")
		return nil, out, nil
	}
}

// ── tools ────────────────────────────────────────────────────────────────────

// ParseInput is the parse_transcript argument.
type ParseInput struct {
	Transcript string `json:"transcript" jsonschema:"the raw speech transcript"`
}

func (s *Server) parseTranscript(ctx context.Context, in ParseInput) (grammar.Result, error) {
	start := time.Now()
	a := s.parser.Analyze(in.Transcript)
	kind := string(a.Command.Kind())
	conf := a.Command.Metadata().Confidence

	s.metrics.RecordParse(ctx, "mcp", kind, a.Rule, conf, time.Since(start))
	observe.AnnotateParse(ctx, kind, a.Rule, conf)
	return a.Result(), nil
}

// TeachInput is the teach_alias argument.
type TeachInput struct {
	Alias     string `json:"alias" jsonschema:"the spoken alias, e.g. zercher"`
	Canonical string `json:"canonical" jsonschema:"the canonical exercise name, e.g. Zercher Squat"`
}

// AliasOutput reports the alias after a teach or forget.
type AliasOutput struct {
	Alias          string `json:"alias"`
	Canonical      string `json:"canonical,omitempty"`
	LexiconVersion uint64 `json:"lexicon_version"`
}

func (s *Server) teachAlias(ctx context.Context, in TeachInput) (AliasOutput, error) {
	err := s.store.TeachContext(ctx, in.Alias, in.Canonical)
	s.metrics.RecordAliasChange(ctx, "teach", observe.Status(err))
	if err != nil {
		return AliasOutput{}, err
	}
	key := lexicon.NormalizeKey(in.Alias)
	snap := s.store.Snapshot()
	canonical, _ := snap.Canonical(key)
	return AliasOutput{Alias: key, Canonical: canonical, LexiconVersion: snap.Version()}, nil
}

// ForgetInput is the forget_alias argument.
type ForgetInput struct {
	Alias string `json:"alias" jsonschema:"the alias to remove"`
}

func (s *Server) forgetAlias(ctx context.Context, in ForgetInput) (AliasOutput, error) {
	err := s.store.ForgetContext(ctx, in.Alias)
	s.metrics.RecordAliasChange(ctx, "forget", observe.Status(err))
	if err != nil {
		return AliasOutput{}, err
	}
	return AliasOutput{Alias: lexicon.NormalizeKey(in.Alias), LexiconVersion: s.store.Snapshot().Version()}, nil
}

// ListInput is the (empty) list_aliases argument.
type ListInput struct{}

// ListOutput is the list_aliases result.
type ListOutput struct {
	Exercises      []string          `json:"exercises"`
	Aliases        map[string]string `json:"aliases"`
	LexiconVersion uint64            `json:"lexicon_version"`
}

func (s *Server) listAliases(_ context.Context, _ ListInput) (ListOutput, error) {
	snap := s.store.Snapshot()
	exercises := snap.Exercises()
	if exercises == nil {
		exercises = []string{}
	}
	return ListOutput{
		Exercises:      exercises,
		Aliases:        snap.Aliases(),
		LexiconVersion: snap.Version(),
	}, nil
}
