// Package normalize resolves the closed vocabularies spoken in gym shorthand:
// weight units and body parts. Both resolvers are pure table lookups and are
// safe for concurrent use.
package normalize

import (
	"strings"

	"github.com/MrWong99/gymvox/pkg/command"
)

var units = map[string]command.WeightUnit{
	"kg":        command.Kilograms,
	"kgs":       command.Kilograms,
	"kilo":      command.Kilograms,
	"kilos":     command.Kilograms,
	"kilogram":  command.Kilograms,
	"kilograms": command.Kilograms,
	"lb":        command.Pounds,
	"lbs":       command.Pounds,
	"pound":     command.Pounds,
	"pounds":    command.Pounds,
	"plate":     command.Plates,
	"plates":    command.Plates,
}

// Unit resolves a spoken unit word. Matching is case-insensitive and exact;
// ok is false for anything not in the variant table.
func Unit(word string) (unit command.WeightUnit, ok bool) {
	unit, ok = units[strings.ToLower(strings.TrimSpace(word))]
	return unit, ok
}

var bodyParts = map[string]command.BodyPart{
	"shoulder":   command.Shoulder,
	"shoulders":  command.Shoulder,
	"back":       command.Back,
	"knee":       command.Knee,
	"knees":      command.Knee,
	"elbow":      command.Elbow,
	"elbows":     command.Elbow,
	"wrist":      command.Wrist,
	"wrists":     command.Wrist,
	"hip":        command.Hip,
	"hips":       command.Hip,
	"neck":       command.Neck,
	"chest":      command.Chest,
	"lower_back": command.LowerBack,
	"lower back": command.LowerBack,
	"lowerback":  command.LowerBack,
	"low_back":   command.LowerBack,
	"low back":   command.LowerBack,
}

// BodyPart resolves a spoken body part, including plural and alternate
// spellings. Matching is case-insensitive; "lower back" may be passed as two
// space-separated words.
func BodyPart(word string) (part command.BodyPart, ok bool) {
	part, ok = bodyParts[strings.ToLower(strings.TrimSpace(word))]
	return part, ok
}
