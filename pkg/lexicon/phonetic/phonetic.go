// Package phonetic resolves misheard exercise names using Double Metaphone
// phonetic encoding combined with Jaro-Winkler string similarity.
//
// Speech recognisers regularly split or respell gym vocabulary ("dead lift",
// "rdl" heard as "are dee el", "skull crushers" as "skullcrushers"). The
// matcher proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each word of the input and of every candidate name. A candidate whose
//     codes overlap the input's becomes a phonetic candidate.
//
//  2. Jaro-Winkler ranking: among phonetic candidates the one with the
//     highest similarity wins, provided it clears the phonetic threshold.
//     Without any phonetic candidate, a stricter fuzzy threshold is applied
//     to pure Jaro-Winkler similarity.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically-matched candidate. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.phoneticThreshold = threshold
		}
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score used when no
// phonetic candidate exists. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.fuzzyThreshold = threshold
		}
	}
}

// Matcher is safe for concurrent use; it is read-only after construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// candidate is a name with its phonetic codes computed once.
type candidate struct {
	name   string
	lower  string
	tokens []string
	codes  map[string]struct{}
}

// Set is a precomputed list of candidate names. Build it once per lexicon
// snapshot with [Prepare]; it is immutable and safe to share.
type Set struct {
	candidates []candidate
}

// Prepare computes phonetic codes for names. Blank names are skipped.
func Prepare(names []string) *Set {
	s := &Set{candidates: make([]candidate, 0, len(names))}
	for _, n := range names {
		lower := strings.ToLower(strings.TrimSpace(n))
		if lower == "" {
			continue
		}
		tokens := strings.Fields(lower)
		s.candidates = append(s.candidates, candidate{
			name:   n,
			lower:  lower,
			tokens: tokens,
			codes:  codesForTokens(tokens),
		})
	}
	return s
}

// Len returns the number of candidates in s.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candidates)
}

// Match finds the name in names that best matches phrase. When matched is
// false, best equals phrase and confidence is 0.
func (m *Matcher) Match(phrase string, names []string) (best string, confidence float64, matched bool) {
	return m.MatchPrepared(phrase, Prepare(names))
}

// MatchPrepared is [Matcher.Match] against a precomputed [Set].
func (m *Matcher) MatchPrepared(phrase string, set *Set) (best string, confidence float64, matched bool) {
	if set.Len() == 0 || strings.TrimSpace(phrase) == "" {
		return phrase, 0, false
	}

	lower := strings.ToLower(strings.TrimSpace(phrase))
	tokens := strings.Fields(lower)
	inputCodes := codesForTokens(tokens)

	var (
		winner   string
		score    float64
		phonetic bool
	)
	for _, c := range set.candidates {
		jw := bestJWScore(tokens, c.tokens, lower, c.lower)
		if codesOverlap(inputCodes, c.codes) {
			if jw >= m.phoneticThreshold && (!phonetic || jw > score) {
				winner, score, phonetic = c.name, jw, true
			}
			continue
		}
		if !phonetic && jw >= m.fuzzyThreshold && jw > score {
			winner, score = c.name, jw
		}
	}

	if winner == "" {
		return phrase, 0, false
	}
	return winner, score, true
}

// codesForTokens returns the union of the Double Metaphone codes of tokens,
// excluding empty codes.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the highest Jaro-Winkler similarity over full strings,
// space-stripped strings ("dead lift" vs "deadlift") and every token pair.
func bestJWScore(inputTokens, candTokens []string, inputFull, candFull string) float64 {
	score := matchr.JaroWinkler(inputFull, candFull, false)

	if len(inputTokens) > 1 || len(candTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(candTokens, ""), false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, ct := range candTokens {
			if s := matchr.JaroWinkler(it, ct, false); s > score {
				score = s
			}
		}
	}
	return score
}
