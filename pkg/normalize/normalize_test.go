package normalize_test

import (
	"testing"

	"github.com/MrWong99/gymvox/pkg/command"
	"github.com/MrWong99/gymvox/pkg/normalize"
)

func TestUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want command.WeightUnit
		ok   bool
	}{
		{"kg", command.Kilograms, true},
		{"KGS", command.Kilograms, true},
		{"kilo", command.Kilograms, true},
		{"kilos", command.Kilograms, true},
		{"kilogram", command.Kilograms, true},
		{"Kilograms", command.Kilograms, true},
		{"lb", command.Pounds, true},
		{"lbs", command.Pounds, true},
		{"pound", command.Pounds, true},
		{"pounds", command.Pounds, true},
		{"plate", command.Plates, true},
		{"plates", command.Plates, true},
		{"stone", command.UnitUnspecified, false},
		{"", command.UnitUnspecified, false},
		{"kgx", command.UnitUnspecified, false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			got, ok := normalize.Unit(tt.word)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Unit(%q) = (%v, %v), want (%v, %v)", tt.word, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBodyPart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want command.BodyPart
		ok   bool
	}{
		{"shoulder", command.Shoulder, true},
		{"Shoulders", command.Shoulder, true},
		{"back", command.Back, true},
		{"knees", command.Knee, true},
		{"elbow", command.Elbow, true},
		{"wrists", command.Wrist, true},
		{"hips", command.Hip, true},
		{"neck", command.Neck, true},
		{"chest", command.Chest, true},
		{"lowerback", command.LowerBack, true},
		{"lower_back", command.LowerBack, true},
		{"Lower Back", command.LowerBack, true},
		{"low back", command.LowerBack, true},
		{"upper back", "", false},
		{"ankle", "", false},
	}
	for _, tt := range tests {
		got, ok := normalize.BodyPart(tt.word)
		if ok != tt.ok || got != tt.want {
			t.Errorf("BodyPart(%q) = (%q, %v), want (%q, %v)", tt.word, got, ok, tt.want, tt.ok)
		}
	}
}
