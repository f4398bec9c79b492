package grammar

import (
	"math"
	"strconv"
	"strings"

	"github.com/MrWong99/gymvox/pkg/command"
	"github.com/MrWong99/gymvox/pkg/normalize"
)

// Confidence adjustments for the set-log rule.
const (
	setLogBase        = 1.0
	setLogFloor       = 0.5
	setLogPenalty     = 0.1
	knownExerciseLift = 0.1

	exerciseKnown    = 0.85
	exerciseUnknown  = 0.5
	exerciseMinScore = 0.6
)

// utterance is the per-call state shared by the rules.
type utterance struct {
	raw    string
	tokens []Token
	lex    Lexicon
}

func (u *utterance) meta(confidence float64) command.Meta {
	return command.Meta{Confidence: roundConfidence(confidence), RawInput: u.raw}
}

func (u *utterance) known(phrase string) bool {
	return u.lex != nil && u.lex.IsKnownExercise(phrase)
}

// rule is one whole-utterance grammar rule. It either produces a command or
// declines.
type rule struct {
	name  string
	match func(*utterance) (command.Command, bool)
}

// rules in precedence order. The first rule that matches wins; [matchUnknown]
// runs when all of them decline.
var rules = []rule{
	{"same_again", matchSameAgain},
	{"delta", matchDelta},
	{"set_log", matchSetLog},
	{"modifier", matchStandaloneModifier},
	{"reps", matchStandaloneReps},
	{"exercise_change", matchExerciseChange},
}

func matchSameAgain(u *utterance) (command.Command, bool) {
	t := u.tokens
	if len(t) == 0 || !t[0].Is(KwSame) {
		return nil, false
	}
	conf := 0.8
	switch {
	case len(t) == 1:
		conf = 0.95
	case len(t) == 2 && t[1].Is(KwAgain):
		conf = 1.0
	}
	return &command.SameAgain{Meta: u.meta(conf)}, true
}

func matchDelta(u *utterance) (command.Command, bool) {
	t := u.tokens
	if len(t) < 2 {
		return nil, false
	}
	var dir command.Direction
	switch {
	case t[0].Is(KwPlus), t[0].Is(KwAdd):
		dir = command.Add
	case t[0].Is(KwMinus), t[0].Is(KwDrop):
		dir = command.Subtract
	default:
		return nil, false
	}
	if !t[1].IsNumber() {
		return nil, false
	}

	delta := command.Weight{Value: t[1].Num}
	conf := 0.95
	if len(t) > 2 {
		if unit, ok := normalize.Unit(t[2].Text); ok {
			delta.Unit = unit
			conf = 1.0
		}
	}
	return &command.WeightDelta{Meta: u.meta(conf), Direction: dir, Delta: delta}, true
}

// matchSetLog recognises "[exercise] <weight> [unit] for <reps> [reps]
// [modifiers...]".
func matchSetLog(u *utterance) (command.Command, bool) {
	t := u.tokens

	forIdx := -1
	for i, tok := range t {
		if tok.Is(KwFor) {
			forIdx = i
			break
		}
	}
	if forIdx <= 0 || forIdx == len(t)-1 {
		return nil, false
	}

	weightIdx := -1
	for i := forIdx - 1; i >= 0; i-- {
		if t[i].IsNumber() {
			weightIdx = i
			break
		}
	}
	if weightIdx < 0 {
		return nil, false
	}

	repIdx := forIdx + 1
	if !t[repIdx].IsNumber() {
		return nil, false
	}

	weight := command.Weight{Value: t[weightIdx].Num}
	// An unresolved unit word is dropped, not folded into the exercise.
	if weightIdx+1 < forIdx && t[weightIdx+1].Kind == TokenWord {
		if unit, ok := normalize.Unit(t[weightIdx+1].Text); ok {
			weight.Unit = unit
		}
	}

	conf := setLogBase

	words := make([]string, 0, weightIdx)
	for _, tok := range t[:weightIdx] {
		if tok.IsNumber() {
			words = append(words, strconv.Itoa(tok.Int()))
			conf -= setLogPenalty
			continue
		}
		words = append(words, tok.Text)
	}
	exercise := strings.Join(words, " ")
	if exercise != "" && u.known(exercise) {
		conf = math.Min(conf+knownExerciseLift, 1.0)
	}

	i := repIdx + 1
	if i < len(t) && (t[i].Is(KwReps) || t[i].Is(KwRep)) {
		i++
	}
	var mods []command.SetModifier
	for i < len(t) {
		if m, n, ok := matchModifier(t, i); ok {
			mods = append(mods, m)
			i += n
			continue
		}
		conf -= setLogPenalty
		i++
	}

	conf = math.Max(conf, setLogFloor)
	return &command.LogSet{
		Meta:      u.meta(conf),
		Exercise:  exercise,
		Weight:    weight,
		Reps:      command.Reps{Count: t[repIdx].Int()},
		Modifiers: mods,
	}, true
}

func matchStandaloneModifier(u *utterance) (command.Command, bool) {
	m, n, ok := matchModifier(u.tokens, 0)
	if !ok {
		return nil, false
	}
	conf := 0.8
	if n == len(u.tokens) {
		conf = 1.0
	}
	return &command.Modifier{Meta: u.meta(conf), Modifier: m}, true
}

// matchStandaloneReps accepts "<n> reps". A bare number is ambiguous and
// declined.
func matchStandaloneReps(u *utterance) (command.Command, bool) {
	t := u.tokens
	if len(t) < 1 || len(t) > 2 || !t[0].IsNumber() {
		return nil, false
	}
	if len(t) == 1 || !(t[1].Is(KwReps) || t[1].Is(KwRep)) {
		return nil, false
	}
	return &command.RepChange{Meta: u.meta(0.9), Reps: command.Reps{Count: t[0].Int()}}, true
}

func matchExerciseChange(u *utterance) (command.Command, bool) {
	if len(u.tokens) == 0 {
		return nil, false
	}
	words := make([]string, 0, len(u.tokens))
	for _, tok := range u.tokens {
		if tok.IsNumber() {
			return nil, false
		}
		words = append(words, tok.Text)
	}
	exercise := strings.Join(words, " ")

	conf := exerciseUnknown
	if u.known(exercise) {
		conf = exerciseKnown
	}
	if conf < exerciseMinScore {
		return nil, false
	}
	return &command.ExerciseChange{Meta: u.meta(conf), Exercise: exercise}, true
}

// matchUnknown always matches. Its suggestions are best-effort rewrites the
// caller can offer back to the lifter.
func matchUnknown(u *utterance) *command.Unknown {
	var nums []float64
	var suggestions []string
	for _, tok := range u.tokens {
		if tok.IsNumber() {
			nums = append(nums, tok.Num)
		}
	}
	switch {
	case len(nums) >= 2:
		suggestions = append(suggestions, command.FormatNumber(nums[0])+" for "+command.FormatNumber(nums[1]))
	case len(nums) == 1:
		n := command.FormatNumber(nums[0])
		suggestions = append(suggestions, "plus "+n, n+" reps")
	}
	for _, tok := range u.tokens {
		if tok.Kind == TokenWord && u.known(tok.Text) {
			suggestions = append(suggestions, "log a set of "+tok.Text)
		}
	}
	return &command.Unknown{Meta: u.meta(0), PossibleInterpretations: suggestions}
}

// roundConfidence trims float noise from repeated 0.1 steps.
func roundConfidence(c float64) float64 {
	return math.Round(c*1000) / 1000
}
