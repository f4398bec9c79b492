package command

import (
	"fmt"
	"strings"
)

// Kind identifies a [Command] variant.
type Kind string

const (
	KindLogSet         Kind = "log_set"
	KindSameAgain      Kind = "same_again"
	KindWeightDelta    Kind = "weight_delta"
	KindRepChange      Kind = "rep_change"
	KindExerciseChange Kind = "exercise_change"
	KindModifier       Kind = "modifier"
	KindUnknown        Kind = "unknown"
)

// Kinds lists every command kind in rule-precedence order.
var Kinds = []Kind{
	KindSameAgain, KindWeightDelta, KindLogSet, KindModifier,
	KindRepChange, KindExerciseChange, KindUnknown,
}

// Meta is carried by every command.
type Meta struct {
	// Confidence is the matcher's certainty in [0, 1].
	Confidence float64

	// RawInput is the transcript exactly as it was passed to the parser.
	RawInput string
}

// Metadata returns m. It is promoted to every command through embedding.
func (m Meta) Metadata() Meta { return m }

// Command is the result of parsing one transcript. Exactly one of the
// variants in this package is returned for every input.
type Command interface {
	Kind() Kind
	Metadata() Meta
	String() string

	isCommand()
}

// LogSet records a completed set.
type LogSet struct {
	Meta

	// Exercise is the spoken exercise phrase. Empty when none was said.
	Exercise  string
	Weight    Weight
	Reps      Reps
	Modifiers []SetModifier
}

// HasExercise reports whether an exercise phrase preceded the weight.
func (c *LogSet) HasExercise() bool { return c.Exercise != "" }

func (*LogSet) Kind() Kind { return KindLogSet }

func (c *LogSet) String() string {
	var b strings.Builder
	if c.HasExercise() {
		b.WriteString(c.Exercise)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s x %s", c.Weight, c.Reps)
	if len(c.Modifiers) > 0 {
		parts := make([]string, len(c.Modifiers))
		for i, m := range c.Modifiers {
			parts[i] = m.String()
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}

func (*LogSet) isCommand() {}

// SameAgain repeats the previous set.
type SameAgain struct {
	Meta
}

func (*SameAgain) Kind() Kind     { return KindSameAgain }
func (*SameAgain) String() string { return "same again" }
func (*SameAgain) isCommand()     {}

// WeightDelta adjusts the previous weight.
type WeightDelta struct {
	Meta

	Direction Direction
	Delta     Weight
}

func (*WeightDelta) Kind() Kind { return KindWeightDelta }

func (c *WeightDelta) String() string {
	if c.Direction == Subtract {
		return "minus " + c.Delta.String()
	}
	return "plus " + c.Delta.String()
}

func (*WeightDelta) isCommand() {}

// RepChange changes the rep count of the previous set.
type RepChange struct {
	Meta

	Reps Reps
}

func (*RepChange) Kind() Kind       { return KindRepChange }
func (c *RepChange) String() string { return c.Reps.String() }
func (*RepChange) isCommand()       {}

// ExerciseChange switches the current exercise.
type ExerciseChange struct {
	Meta

	Exercise string
}

func (*ExerciseChange) Kind() Kind       { return KindExerciseChange }
func (c *ExerciseChange) String() string { return "switch to " + c.Exercise }
func (*ExerciseChange) isCommand()       {}

// Modifier qualifies the previous set after the fact.
type Modifier struct {
	Meta

	Modifier SetModifier
}

func (*Modifier) Kind() Kind { return KindModifier }

func (c *Modifier) String() string {
	if c.Modifier == nil {
		return "modifier"
	}
	return c.Modifier.String()
}

func (*Modifier) isCommand() {}

// Unknown is returned when no rule matched. Its confidence is always 0.
type Unknown struct {
	Meta

	// PossibleInterpretations holds best-effort rephrasings the consumer can
	// offer back to the lifter.
	PossibleInterpretations []string
}

func (*Unknown) Kind() Kind { return KindUnknown }

func (c *Unknown) String() string {
	if len(c.PossibleInterpretations) == 0 {
		return "unknown"
	}
	return "unknown (did you mean: " + strings.Join(c.PossibleInterpretations, " | ") + ")"
}

func (*Unknown) isCommand() {}

var (
	_ Command = (*LogSet)(nil)
	_ Command = (*SameAgain)(nil)
	_ Command = (*WeightDelta)(nil)
	_ Command = (*RepChange)(nil)
	_ Command = (*ExerciseChange)(nil)
	_ Command = (*Modifier)(nil)
	_ Command = (*Unknown)(nil)
)
