package lexicon

import (
	"maps"
	"slices"
	"strings"

	"github.com/MrWong99/gymvox/pkg/lexicon/phonetic"
)

// Snapshot is an immutable view of the exercise lexicon. Every method is safe
// for concurrent use; a parse reads one Snapshot from start to finish so it
// never observes a half-applied alias change.
type Snapshot struct {
	version uint64

	// exercises maps a lowercased canonical name to its display form.
	exercises map[string]string

	// aliases maps a lowercased alias to the canonical display name.
	aliases map[string]string

	// known holds every lowercased name and alias, sorted, for the
	// containment scan.
	known []string

	prepared *phonetic.Set
	matcher  *phonetic.Matcher
}

func newSnapshot(version uint64, exercises, aliases map[string]string, matcher *phonetic.Matcher) *Snapshot {
	s := &Snapshot{
		version:   version,
		exercises: exercises,
		aliases:   aliases,
		matcher:   matcher,
	}

	seen := make(map[string]struct{}, len(exercises)+len(aliases))
	for k := range exercises {
		seen[k] = struct{}{}
	}
	for k := range aliases {
		seen[k] = struct{}{}
	}
	s.known = slices.Sorted(maps.Keys(seen))
	s.prepared = phonetic.Prepare(s.known)
	return s
}

// Version increases by one with every change applied to the owning [Store].
func (s *Snapshot) Version() uint64 { return s.version }

// Len returns the number of distinct names and aliases.
func (s *Snapshot) Len() int { return len(s.known) }

// IsKnownExercise reports whether candidate looks like a known exercise.
// After lowercasing it is true when candidate is a name or alias, when it is
// a substring of one, or when one is a substring of it.
//
// The containment check is deliberately permissive and has no minimum
// length: very short candidates such as "a" match. Confidence boosts in the
// grammar depend on this behaviour. Only the empty string never matches.
//
// A nil Snapshot knows no exercises.
func (s *Snapshot) IsKnownExercise(candidate string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if s == nil || c == "" {
		return false
	}
	if _, ok := s.aliases[c]; ok {
		return true
	}
	if _, ok := s.exercises[c]; ok {
		return true
	}
	for _, k := range s.known {
		if strings.Contains(k, c) || strings.Contains(c, k) {
			return true
		}
	}
	return false
}

// Canonical returns the canonical exercise for an exact name or alias.
// Aliases win over canonical names when both exist.
func (s *Snapshot) Canonical(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	k := strings.ToLower(strings.TrimSpace(name))
	if c, ok := s.aliases[k]; ok {
		return c, true
	}
	c, ok := s.exercises[k]
	return c, ok
}

// Aliases returns a copy of the alias table (lowercased alias to canonical).
func (s *Snapshot) Aliases() map[string]string {
	return maps.Clone(s.aliases)
}

// Exercises returns the canonical exercise names, sorted.
func (s *Snapshot) Exercises() []string {
	return slices.Sorted(maps.Values(s.exercises))
}

// Resolution is the outcome of [Snapshot.Resolve].
type Resolution struct {
	// Canonical is the canonical exercise name.
	Canonical string `json:"canonical"`

	// Matched is the lexicon entry the phrase was matched against.
	Matched string `json:"matched"`

	// Method is "exact", "alias" or "phonetic".
	Method string `json:"method"`

	// Confidence is 1 for exact and alias hits, the Jaro-Winkler score for
	// phonetic hits.
	Confidence float64 `json:"confidence"`
}

// Resolve maps a spoken exercise phrase to a canonical exercise. Exact names
// and aliases resolve directly; otherwise the phonetic matcher ranks every
// known entry.
func (s *Snapshot) Resolve(phrase string) (Resolution, bool) {
	k := strings.ToLower(strings.TrimSpace(phrase))
	if s == nil || k == "" {
		return Resolution{}, false
	}
	if c, ok := s.aliases[k]; ok {
		return Resolution{Canonical: c, Matched: k, Method: "alias", Confidence: 1}, true
	}
	if c, ok := s.exercises[k]; ok {
		return Resolution{Canonical: c, Matched: k, Method: "exact", Confidence: 1}, true
	}
	if s.matcher == nil {
		return Resolution{}, false
	}
	best, conf, ok := s.matcher.MatchPrepared(k, s.prepared)
	if !ok {
		return Resolution{}, false
	}
	canonical, _ := s.Canonical(best)
	return Resolution{Canonical: canonical, Matched: best, Method: "phonetic", Confidence: conf}, true
}
