// Package command defines the structured result produced by the gym shorthand
// grammar: a small set of confidence-scored commands a workout tracker can act
// on.
//
// Both [Command] and [SetModifier] are closed tagged unions implemented as
// sealed interfaces. Only the types declared in this package satisfy them, so
// a type switch over the listed variants is exhaustive:
//
//	switch c := cmd.(type) {
//	case *command.LogSet:
//	case *command.SameAgain:
//	case *command.WeightDelta:
//	case *command.RepChange:
//	case *command.ExerciseChange:
//	case *command.Modifier:
//	case *command.Unknown:
//	}
//
// All values are plain data created fresh for every parse and carry no
// identity; they are safe to share between goroutines once constructed.
package command

import (
	"strconv"
	"strings"
)

// WeightUnit is the unit attached to a spoken weight. The zero value means
// no unit was given.
type WeightUnit int

const (
	// UnitUnspecified means the lifter did not say a unit.
	UnitUnspecified WeightUnit = iota
	Kilograms
	Pounds
	Plates
)

// String returns the short display form of the unit.
func (u WeightUnit) String() string {
	switch u {
	case Kilograms:
		return "kg"
	case Pounds:
		return "lbs"
	case Plates:
		return "plates"
	}
	return ""
}

// Weight is a load value with an optional unit.
type Weight struct {
	Value float64
	Unit  WeightUnit
}

// HasUnit reports whether a unit was resolved for w.
func (w Weight) HasUnit() bool {
	return w.Unit != UnitUnspecified
}

// String renders w as e.g. "225", "135 lbs" or "2 plates".
func (w Weight) String() string {
	v := FormatNumber(w.Value)
	if !w.HasUnit() {
		return v
	}
	if w.Unit == Plates && w.Value == 1 {
		return v + " plate"
	}
	return v + " " + w.Unit.String()
}

// Reps is a whole repetition count.
type Reps struct {
	Count int
}

// String pluralises: "1 rep", "5 reps".
func (r Reps) String() string {
	if r.Count == 1 {
		return "1 rep"
	}
	return strconv.Itoa(r.Count) + " reps"
}

const (
	minRPE = 1.0
	maxRPE = 10.0
)

// NewRPE returns an RPE clamped to [1, 10]. RPE values should only be built
// through NewRPE so the range invariant holds.
func NewRPE(v float64) RPE {
	switch {
	case v != v: // NaN
		v = minRPE
	case v < minRPE:
		v = minRPE
	case v > maxRPE:
		v = maxRPE
	}
	return RPE{Value: v}
}

// BodyPart is the closed set of body parts a lifter can report pain in.
type BodyPart string

const (
	Shoulder  BodyPart = "shoulder"
	Back      BodyPart = "back"
	Knee      BodyPart = "knee"
	Elbow     BodyPart = "elbow"
	Wrist     BodyPart = "wrist"
	Hip       BodyPart = "hip"
	Neck      BodyPart = "neck"
	Chest     BodyPart = "chest"
	LowerBack BodyPart = "lower_back"
)

// BodyParts lists every [BodyPart] in declaration order.
var BodyParts = []BodyPart{Shoulder, Back, Knee, Elbow, Wrist, Hip, Neck, Chest, LowerBack}

// IsValid reports whether b is one of the declared body parts.
func (b BodyPart) IsValid() bool {
	switch b {
	case Shoulder, Back, Knee, Elbow, Wrist, Hip, Neck, Chest, LowerBack:
		return true
	}
	return false
}

// String returns the spoken form, e.g. "lower back".
func (b BodyPart) String() string {
	return strings.ReplaceAll(string(b), "_", " ")
}

// Direction is the sign of a [WeightDelta].
type Direction int

const (
	Add Direction = iota
	Subtract
)

// String returns "add" or "subtract".
func (d Direction) String() string {
	if d == Subtract {
		return "subtract"
	}
	return "add"
}

// FormatNumber renders v without a trailing ".0" for whole numbers.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
