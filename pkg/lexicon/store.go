// Package lexicon holds the exercise-alias lexicon consulted by the grammar.
//
// The lexicon is the only state that outlives a single parse. It is stored
// as an immutable [Snapshot] behind an atomic pointer: readers load the
// current snapshot without locking, while writers ([Store.Teach],
// [Store.Forget], [Store.Import]) are serialised by a mutex and publish a
// fresh copy. Concurrent parses therefore never block on alias teaching and
// never see a partially-applied change.
package lexicon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MrWong99/gymvox/pkg/lexicon/phonetic"
)

var (
	// ErrEmptyAlias is returned when teaching or forgetting a blank alias.
	ErrEmptyAlias = errors.New("lexicon: alias must not be empty")

	// ErrEmptyCanonical is returned when teaching an alias without a target.
	ErrEmptyCanonical = errors.New("lexicon: canonical name must not be empty")

	// ErrUnknownAlias is returned by Forget for an alias that is not taught.
	ErrUnknownAlias = errors.New("lexicon: unknown alias")
)

// Backend persists taught aliases. Implementations must be safe for
// concurrent use.
type Backend interface {
	// LoadAliases returns every persisted alias, keyed by lowercased alias.
	LoadAliases(ctx context.Context) (map[string]string, error)

	// SaveAlias inserts or overwrites alias.
	SaveAlias(ctx context.Context, alias, canonical string) error

	// DeleteAlias removes alias. Removing a missing alias is not an error.
	DeleteAlias(ctx context.Context, alias string) error
}

// Option configures a [Store].
type Option func(*Store)

// WithBackend attaches a durable alias backend used by the context-aware
// methods and by [Store.Load].
func WithBackend(b Backend) Option {
	return func(s *Store) {
		s.backend = b
	}
}

// WithMatcher replaces the phonetic matcher used by [Snapshot.Resolve].
func WithMatcher(m *phonetic.Matcher) Option {
	return func(s *Store) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithOnChange registers fn to be called after every published change.
// fn runs outside the writer lock.
func WithOnChange(fn func(*Snapshot)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// WithExercises seeds the store with exs.
func WithExercises(exs []Exercise) Option {
	return func(s *Store) {
		s.seed = append(s.seed, exs...)
	}
}

// Store owns the current [Snapshot]. The zero value is not usable; create
// one with [NewStore].
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[Snapshot]

	backend  Backend
	matcher  *phonetic.Matcher
	onChange func(*Snapshot)
	seed     []Exercise
}

// NewStore returns a Store populated from the options. Without
// [WithExercises] the store starts empty; use [Builtin] for the bundled
// exercise list.
func NewStore(opts ...Option) *Store {
	s := &Store{matcher: phonetic.New()}
	for _, o := range opts {
		o(s)
	}

	exercises := make(map[string]string)
	aliases := make(map[string]string)
	applyExercises(exercises, aliases, s.seed)
	s.seed = nil
	s.cur.Store(newSnapshot(0, exercises, aliases, s.matcher))
	return s
}

// Snapshot returns the current lexicon view.
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

// IsKnownExercise is a shorthand for Snapshot().IsKnownExercise.
func (s *Store) IsKnownExercise(candidate string) bool {
	return s.Snapshot().IsKnownExercise(candidate)
}

// Teach inserts or overwrites alias -> canonical in memory only.
func (s *Store) Teach(alias, canonical string) error {
	a, c, err := normalizePair(alias, canonical)
	if err != nil {
		return err
	}
	return s.update(func(_, aliases map[string]string) error {
		aliases[a] = c
		return nil
	})
}

// Forget removes a taught alias in memory only.
func (s *Store) Forget(alias string) error {
	a := NormalizeKey(alias)
	if a == "" {
		return ErrEmptyAlias
	}
	return s.update(func(_, aliases map[string]string) error {
		if _, ok := aliases[a]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownAlias, a)
		}
		delete(aliases, a)
		return nil
	})
}

// TeachContext persists the alias through the backend (when configured) and
// then publishes it. A backend failure leaves the lexicon unchanged.
func (s *Store) TeachContext(ctx context.Context, alias, canonical string) error {
	a, c, err := normalizePair(alias, canonical)
	if err != nil {
		return err
	}
	if s.backend != nil {
		if err := s.backend.SaveAlias(ctx, a, c); err != nil {
			return fmt.Errorf("lexicon: save alias %q: %w", a, err)
		}
	}
	return s.Teach(a, c)
}

// ForgetContext removes the alias from the backend (when configured) and
// from memory.
func (s *Store) ForgetContext(ctx context.Context, alias string) error {
	a := NormalizeKey(alias)
	if a == "" {
		return ErrEmptyAlias
	}
	if _, ok := s.Snapshot().aliases[a]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownAlias, a)
	}
	if s.backend != nil {
		if err := s.backend.DeleteAlias(ctx, a); err != nil {
			return fmt.Errorf("lexicon: delete alias %q: %w", a, err)
		}
	}
	return s.Forget(a)
}

// Load merges every alias held by the backend into the lexicon. Without a
// backend it is a no-op.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.backend == nil {
		return 0, nil
	}
	loaded, err := s.backend.LoadAliases(ctx)
	if err != nil {
		return 0, fmt.Errorf("lexicon: load aliases: %w", err)
	}
	n := 0
	err = s.update(func(_, aliases map[string]string) error {
		for rawAlias, rawCanonical := range loaded {
			a, c, err := normalizePair(rawAlias, rawCanonical)
			if err != nil {
				slog.Warn("lexicon: skipping invalid persisted alias", "alias", rawAlias, "err", err)
				continue
			}
			aliases[a] = c
			n++
		}
		return nil
	})
	return n, err
}

// Import adds exercises and their aliases, overwriting existing entries with
// the same key.
func (s *Store) Import(exs []Exercise) {
	_ = s.update(func(exercises, aliases map[string]string) error {
		applyExercises(exercises, aliases, exs)
		return nil
	})
}

// update copies the current tables, applies fn and publishes the result.
// If fn fails nothing is published.
func (s *Store) update(fn func(exercises, aliases map[string]string) error) error {
	s.mu.Lock()
	cur := s.cur.Load()
	exercises := maps.Clone(cur.exercises)
	aliases := maps.Clone(cur.aliases)
	if err := fn(exercises, aliases); err != nil {
		s.mu.Unlock()
		return err
	}
	next := newSnapshot(cur.version+1, exercises, aliases, s.matcher)
	s.cur.Store(next)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

func applyExercises(exercises, aliases map[string]string, exs []Exercise) {
	for _, ex := range exs {
		name := strings.TrimSpace(ex.Name)
		key := NormalizeKey(name)
		if key == "" {
			continue
		}
		exercises[key] = name
		for _, a := range ex.Aliases {
			if ak := NormalizeKey(a); ak != "" && ak != key {
				aliases[ak] = name
			}
		}
	}
}

// NormalizeKey returns the lexicon key for s: lowercased, with whitespace
// runs collapsed to single spaces. Aliases are stored and reported under
// this key.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizePair(alias, canonical string) (string, string, error) {
	a := NormalizeKey(alias)
	if a == "" {
		return "", "", ErrEmptyAlias
	}
	c := strings.TrimSpace(canonical)
	if c == "" {
		return "", "", ErrEmptyCanonical
	}
	return a, c, nil
}
