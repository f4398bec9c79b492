// Package grammar turns noisy gym shorthand transcripts into
// confidence-scored [command.Command] values.
//
// A transcript is tokenized, then offered to a fixed, ordered list of
// whole-utterance rules (same again, weight delta, full set log, standalone
// modifier, standalone reps, exercise change). The first rule that matches
// wins; when none does the result is [command.Unknown] with suggestions.
// Parsing is total: every string, empty or not, yields exactly one command,
// and no error is ever returned.
//
// The only external state is the exercise lexicon. A [Parser] reads a single
// lexicon snapshot per call, so concurrent parses are safe alongside alias
// teaching and a parse is a pure function of (input, snapshot).
package grammar

import (
	"log/slog"
	"sync"

	"github.com/MrWong99/gymvox/pkg/command"
	"github.com/MrWong99/gymvox/pkg/lexicon"
)

// Lexicon answers the known-exercise question for the grammar.
// *lexicon.Snapshot implements it.
type Lexicon interface {
	IsKnownExercise(candidate string) bool
}

// Source hands out lexicon snapshots. *lexicon.Store implements it.
type Source interface {
	Snapshot() *lexicon.Snapshot
}

var (
	_ Lexicon = (*lexicon.Snapshot)(nil)
	_ Source  = (*lexicon.Store)(nil)
)

// Parser parses transcripts against a live lexicon. It is safe for
// concurrent use.
type Parser struct {
	src Source
}

// New returns a Parser reading from src.
func New(src Source) *Parser {
	return &Parser{src: src}
}

// Parse parses input against the current lexicon snapshot.
func (p *Parser) Parse(input string) command.Command {
	return p.Analyze(input).Command
}

// Analysis is a parsed command together with the rule that produced it and,
// when the command names an exercise, its canonical resolution. Both come
// from the same lexicon snapshot.
type Analysis struct {
	Command command.Command

	// Rule is the name of the matching rule, "unknown" for the fallback.
	Rule string

	// Resolution is set when the command carries an exercise phrase that
	// resolves to a canonical exercise.
	Resolution *lexicon.Resolution

	// LexiconVersion is the version of the snapshot used.
	LexiconVersion uint64
}

// Analyze parses input and resolves the exercise phrase, if any.
func (p *Parser) Analyze(input string) Analysis {
	snap := p.src.Snapshot()
	cmd, ruleName := parse(snap, input)

	a := Analysis{Command: cmd, Rule: ruleName, LexiconVersion: snap.Version()}
	if phrase := exercisePhrase(cmd); phrase != "" {
		if res, ok := snap.Resolve(phrase); ok {
			a.Resolution = &res
		}
	}
	return a
}

// Result is the wire form of an [Analysis] shared by the HTTP, stream and
// MCP surfaces.
type Result struct {
	Command          command.View        `json:"command"`
	Rule             string              `json:"rule"`
	ResolvedExercise *lexicon.Resolution `json:"resolved_exercise,omitempty"`
	LexiconVersion   uint64              `json:"lexicon_version"`
}

// Result converts a into its wire form.
func (a Analysis) Result() Result {
	return Result{
		Command:          command.ViewOf(a.Command),
		Rule:             a.Rule,
		ResolvedExercise: a.Resolution,
		LexiconVersion:   a.LexiconVersion,
	}
}

// ParseWith parses input against lex. A nil lex, including a nil
// *lexicon.Snapshot, knows no exercises.
func ParseWith(lex Lexicon, input string) command.Command {
	cmd, _ := parse(lex, input)
	return cmd
}

var defaultParser = sync.OnceValue(func() *Parser {
	return New(lexicon.NewStore(lexicon.WithExercises(lexicon.Builtin())))
})

// Parse parses input against the built-in exercise lexicon.
func Parse(input string) command.Command {
	return defaultParser().Parse(input)
}

func parse(lex Lexicon, input string) (command.Command, string) {
	u := &utterance{raw: input, tokens: Tokenize(input), lex: lex}
	for _, r := range rules {
		if cmd, ok := r.match(u); ok {
			slog.Debug("grammar: parsed", "rule", r.name, "kind", cmd.Kind(), "confidence", cmd.Metadata().Confidence)
			return cmd, r.name
		}
	}
	unk := matchUnknown(u)
	slog.Debug("grammar: not understood", "tokens", len(u.tokens), "suggestions", len(unk.PossibleInterpretations))
	return unk, "unknown"
}

func exercisePhrase(cmd command.Command) string {
	switch c := cmd.(type) {
	case *command.LogSet:
		return c.Exercise
	case *command.ExerciseChange:
		return c.Exercise
	}
	return ""
}
