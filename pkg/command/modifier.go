package command

import "strconv"

// SetModifier is a post-fact qualifier attached to a set. The variants are
// [Failed], [Easy], [Hard], [RPE], [Warmup] and [Pain].
type SetModifier interface {
	// ModifierKind returns the stable snake_case discriminator used in JSON.
	ModifierKind() string
	String() string

	isSetModifier()
}

// Failed marks a set taken to failure, optionally at a specific rep.
type Failed struct {
	// AtRep is the rep the lifter failed on. Nil when not spoken.
	AtRep *int
}

// FailedAt is a convenience constructor for a Failed modifier with a rep.
func FailedAt(rep int) Failed {
	return Failed{AtRep: &rep}
}

func (Failed) ModifierKind() string { return "failed" }
func (f Failed) String() string {
	if f.AtRep == nil {
		return "failed"
	}
	return "failed at rep " + strconv.Itoa(*f.AtRep)
}
func (Failed) isSetModifier() {}

// Easy marks a set that felt light.
type Easy struct{}

func (Easy) ModifierKind() string { return "easy" }
func (Easy) String() string       { return "easy" }
func (Easy) isSetModifier()       {}

// Hard marks a set that felt heavy.
type Hard struct{}

func (Hard) ModifierKind() string { return "hard" }
func (Hard) String() string       { return "hard" }
func (Hard) isSetModifier()       {}

// RPE is a rate of perceived exertion. Value is always within [1, 10] when
// built with [NewRPE].
type RPE struct {
	Value float64
}

func (RPE) ModifierKind() string { return "rpe" }
func (r RPE) String() string     { return "RPE " + FormatNumber(r.Value) }
func (RPE) isSetModifier()       {}

// Warmup marks a set as a warmup rather than a working set.
type Warmup struct{}

func (Warmup) ModifierKind() string { return "warmup" }
func (Warmup) String() string       { return "warmup" }
func (Warmup) isSetModifier()       {}

// Pain reports pain in a body part during the set.
type Pain struct {
	BodyPart BodyPart
}

func (Pain) ModifierKind() string { return "pain" }
func (p Pain) String() string     { return p.BodyPart.String() + " pain" }
func (Pain) isSetModifier()       {}

var (
	_ SetModifier = Failed{}
	_ SetModifier = Easy{}
	_ SetModifier = Hard{}
	_ SetModifier = RPE{}
	_ SetModifier = Warmup{}
	_ SetModifier = Pain{}
)
