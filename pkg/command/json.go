package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

// View is the flat JSON shape shared by every command. Fields that do not
// apply to a variant are omitted.
type View struct {
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"`
	RawInput   string  `json:"raw_input"`

	Exercise  string         `json:"exercise,omitempty"`
	Weight    *WeightView    `json:"weight,omitempty"`
	Reps      *int           `json:"reps,omitempty"`
	Modifiers []ModifierView `json:"modifiers,omitempty"`
	Direction string         `json:"direction,omitempty"`
	Delta     *WeightView    `json:"delta,omitempty"`
	Modifier  *ModifierView  `json:"modifier,omitempty"`
	Possible  []string       `json:"possible_interpretations,omitempty"`

	// Display is the human-readable rendering. Ignored by [Decode].
	Display string `json:"display"`
}

// WeightView is the JSON shape of a [Weight].
type WeightView struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// ModifierView is the JSON shape of a [SetModifier].
type ModifierView struct {
	Kind     string   `json:"kind"`
	AtRep    *int     `json:"at_rep,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	BodyPart BodyPart `json:"body_part,omitempty"`
}

var unitNames = map[WeightUnit]string{
	Kilograms: "kg",
	Pounds:    "lbs",
	Plates:    "plates",
}

func viewWeight(w Weight) *WeightView {
	return &WeightView{Value: w.Value, Unit: unitNames[w.Unit]}
}

// ViewModifier converts m into its JSON shape.
func ViewModifier(m SetModifier) ModifierView {
	v := ModifierView{Kind: m.ModifierKind()}
	switch m := m.(type) {
	case Failed:
		if m.AtRep != nil {
			rep := *m.AtRep
			v.AtRep = &rep
		}
	case RPE:
		val := m.Value
		v.Value = &val
	case Pain:
		v.BodyPart = m.BodyPart
	}
	return v
}

// ViewOf converts c into its JSON shape.
func ViewOf(c Command) View {
	meta := c.Metadata()
	v := View{
		Kind:       c.Kind(),
		Confidence: meta.Confidence,
		RawInput:   meta.RawInput,
		Display:    c.String(),
	}
	switch c := c.(type) {
	case *LogSet:
		v.Exercise = c.Exercise
		v.Weight = viewWeight(c.Weight)
		reps := c.Reps.Count
		v.Reps = &reps
		for _, m := range c.Modifiers {
			v.Modifiers = append(v.Modifiers, ViewModifier(m))
		}
	case *WeightDelta:
		v.Direction = c.Direction.String()
		v.Delta = viewWeight(c.Delta)
	case *RepChange:
		reps := c.Reps.Count
		v.Reps = &reps
	case *ExerciseChange:
		v.Exercise = c.Exercise
	case *Modifier:
		if c.Modifier != nil {
			mv := ViewModifier(c.Modifier)
			v.Modifier = &mv
		}
	case *Unknown:
		v.Possible = c.PossibleInterpretations
	}
	return v
}

func (c *LogSet) MarshalJSON() ([]byte, error)         { return json.Marshal(ViewOf(c)) }
func (c *SameAgain) MarshalJSON() ([]byte, error)      { return json.Marshal(ViewOf(c)) }
func (c *WeightDelta) MarshalJSON() ([]byte, error)    { return json.Marshal(ViewOf(c)) }
func (c *RepChange) MarshalJSON() ([]byte, error)      { return json.Marshal(ViewOf(c)) }
func (c *ExerciseChange) MarshalJSON() ([]byte, error) { return json.Marshal(ViewOf(c)) }
func (c *Modifier) MarshalJSON() ([]byte, error)       { return json.Marshal(ViewOf(c)) }
func (c *Unknown) MarshalJSON() ([]byte, error)        { return json.Marshal(ViewOf(c)) }

// ErrUnknownKind is returned by [Decode] for an unrecognised kind.
var ErrUnknownKind = errors.New("command: unknown kind")

// Decode rebuilds a [Command] from its JSON encoding. The display field is
// ignored.
func Decode(data []byte) (Command, error) {
	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("command: decode: %w", err)
	}
	return FromView(v)
}

// FromView rebuilds a [Command] from its flat view.
func FromView(v View) (Command, error) {
	meta := Meta{Confidence: v.Confidence, RawInput: v.RawInput}
	switch v.Kind {
	case KindLogSet:
		c := &LogSet{Meta: meta, Exercise: v.Exercise}
		if v.Weight != nil {
			c.Weight = weightFromView(*v.Weight)
		}
		if v.Reps != nil {
			c.Reps = Reps{Count: *v.Reps}
		}
		for _, mv := range v.Modifiers {
			m, err := modifierFromView(mv)
			if err != nil {
				return nil, err
			}
			c.Modifiers = append(c.Modifiers, m)
		}
		return c, nil
	case KindSameAgain:
		return &SameAgain{Meta: meta}, nil
	case KindWeightDelta:
		c := &WeightDelta{Meta: meta}
		if v.Direction == Subtract.String() {
			c.Direction = Subtract
		}
		if v.Delta != nil {
			c.Delta = weightFromView(*v.Delta)
		}
		return c, nil
	case KindRepChange:
		c := &RepChange{Meta: meta}
		if v.Reps != nil {
			c.Reps = Reps{Count: *v.Reps}
		}
		return c, nil
	case KindExerciseChange:
		return &ExerciseChange{Meta: meta, Exercise: v.Exercise}, nil
	case KindModifier:
		c := &Modifier{Meta: meta}
		if v.Modifier != nil {
			m, err := modifierFromView(*v.Modifier)
			if err != nil {
				return nil, err
			}
			c.Modifier = m
		}
		return c, nil
	case KindUnknown:
		return &Unknown{Meta: meta, PossibleInterpretations: v.Possible}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, v.Kind)
}

func weightFromView(w WeightView) Weight {
	out := Weight{Value: w.Value}
	for u, name := range unitNames {
		if name == w.Unit {
			out.Unit = u
		}
	}
	return out
}

func modifierFromView(v ModifierView) (SetModifier, error) {
	switch v.Kind {
	case "failed":
		return Failed{AtRep: v.AtRep}, nil
	case "easy":
		return Easy{}, nil
	case "hard":
		return Hard{}, nil
	case "rpe":
		if v.Value == nil {
			return nil, fmt.Errorf("command: rpe modifier without value")
		}
		return NewRPE(*v.Value), nil
	case "warmup":
		return Warmup{}, nil
	case "pain":
		if !v.BodyPart.IsValid() {
			return nil, fmt.Errorf("command: invalid body part %q", v.BodyPart)
		}
		return Pain{BodyPart: v.BodyPart}, nil
	}
	return nil, fmt.Errorf("%w modifier %q", ErrUnknownKind, v.Kind)
}
