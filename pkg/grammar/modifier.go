package grammar

import (
	"github.com/MrWong99/gymvox/pkg/command"
	"github.com/MrWong99/gymvox/pkg/normalize"
)

// matchModifier tries to read one set modifier starting at tokens[i]. It
// returns the modifier and the number of tokens consumed.
//
//	failed | failure [at N]  -> Failed
//	easy | hard              -> Easy | Hard
//	rpe N                    -> RPE (clamped to 1..10)
//	warmup | warm up         -> Warmup
//	<body part> pain         -> Pain (body part may be two words)
func matchModifier(tokens []Token, i int) (command.SetModifier, int, bool) {
	if i < 0 || i >= len(tokens) {
		return nil, 0, false
	}
	t := tokens[i]
	next := func(off int) (Token, bool) {
		if i+off < len(tokens) {
			return tokens[i+off], true
		}
		return Token{}, false
	}

	switch {
	case t.Is(KwFailed), t.Is(KwFailure):
		at, ok1 := next(1)
		n, ok2 := next(2)
		if ok1 && ok2 && at.Is(KwAt) && n.IsNumber() {
			return command.FailedAt(n.Int()), 3, true
		}
		return command.Failed{}, 1, true

	case t.Is(KwEasy):
		return command.Easy{}, 1, true

	case t.Is(KwHard):
		return command.Hard{}, 1, true

	case t.Is(KwRPE):
		if n, ok := next(1); ok && n.IsNumber() {
			return command.NewRPE(n.Num), 2, true
		}
		return nil, 0, false

	case t.Is(KwWarmup):
		return command.Warmup{}, 1, true

	case t.Is(KwWarm):
		if up, ok := next(1); ok && up.Is(KwUp) {
			return command.Warmup{}, 2, true
		}
		return nil, 0, false

	case t.Kind == TokenWord:
		// Two-word body parts first: "lower back pain".
		if w, ok := next(1); ok && w.Kind == TokenWord {
			if p, ok := next(2); ok && p.Is(KwPain) {
				if part, ok := normalize.BodyPart(t.Text + " " + w.Text); ok {
					return command.Pain{BodyPart: part}, 3, true
				}
			}
		}
		part, ok := normalize.BodyPart(t.Text)
		if !ok {
			return nil, 0, false
		}
		if p, ok := next(1); ok && p.Is(KwPain) {
			return command.Pain{BodyPart: part}, 2, true
		}
	}
	return nil, 0, false
}
