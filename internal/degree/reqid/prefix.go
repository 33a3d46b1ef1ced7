package reqid

import "fmt"

// Combination is the kind of multi-plan degree a student is pursuing.
type Combination string

const (
	Major               Combination = "major"
	DoubleMajor         Combination = "double-major"
	MajorMinor          Combination = "major-minor"
	Specialization      Combination = "specialization"
	SpecializationMinor Combination = "specialization-minor"
	JointMajor          Combination = "joint-major"
	General             Combination = "general"
	GeneralMinor        Combination = "general-minor"
)

var slotPrefixes = map[Combination][]string{
	Major:               {"major1-"},
	DoubleMajor:         {"major1-", "major2-"},
	MajorMinor:          {"major1-", "minor-"},
	Specialization:      {"specialization-"},
	SpecializationMinor: {"specialization-", "minor-"},
	JointMajor:          {"joint1-", "joint2-"},
	General:             {"general-"},
	GeneralMinor:        {"general-", "minor-"},
}

func (c Combination) Known() bool {
	_, ok := slotPrefixes[c]
	return ok
}

// Slots is how many plans the combination locks in. Unknown combinations
// report zero.
func (c Combination) Slots() int {
	return len(slotPrefixes[c])
}

// Prefix is a pure function of (slot, combination). Pairs outside the table
// fall back to "plan<N>-" so ids still never collide across slots.
func Prefix(slot int, c Combination) string {
	if p, ok := slotPrefixes[c]; ok && slot >= 0 && slot < len(p) {
		return p[slot]
	}
	return fmt.Sprintf("plan%d-", slot+1)
}
