// Package reqid names requirement slots. A requirement is identified by the
// plan slot it belongs to, the section and subsection it came from and, when
// a sub-plan is active, the option and nested subsection. The composite
// string form only exists at the edges (display, persistence, excess titles).
package reqid

import (
	"fmt"
	"strings"
)

const (
	unassignedLabel = "Unassigned/Electives"
	electivesKey    = "Electives"
)

// ID is comparable and safe to use as a map key.
type ID struct {
	Slot       int    `json:"slot"`
	Prefix     string `json:"prefix,omitempty"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
	Option     string `json:"option,omitempty"`
	Nested     string `json:"nested,omitempty"`
}

// Unassigned is the plan-independent catch-all bucket. It has no unit cap and
// is where excess records land.
func Unassigned() ID {
	return ID{Slot: -1, Section: unassignedLabel}
}

// Electives is the plan-specific elective bucket of a slot.
func Electives(slot int, prefix string) ID {
	return ID{Slot: slot, Prefix: prefix, Section: electivesKey}
}

func Requirement(slot int, prefix, section, subsection string) ID {
	return ID{Slot: slot, Prefix: prefix, Section: section, Subsection: subsection}
}

func NestedRequirement(slot int, prefix, section, subsection, option, nested string) ID {
	return ID{Slot: slot, Prefix: prefix, Section: section, Subsection: subsection, Option: option, Nested: nested}
}

func (id ID) IsZero() bool { return id == ID{} }

func (id ID) IsUnassigned() bool { return id == Unassigned() }

func (id ID) IsElectives() bool {
	return id.IsUnassigned() || (id.Section == electivesKey && id.Subsection == "")
}

// IsSupporting reports whether the requirement sits in a supporting section.
func (id ID) IsSupporting() bool {
	return strings.Contains(strings.ToLower(id.Section), "supporting")
}

// Label is the requirement name without the plan prefix.
func (id ID) Label() string {
	if id.IsUnassigned() {
		return unassignedLabel
	}
	s := id.Section + id.Subsection
	if id.Option != "" {
		s += "-" + id.Option + id.Nested
	}
	return s
}

// String is the canonical composite key, e.g. "major1-CoreA" or
// "major1-CoreB-theoryT".
func (id ID) String() string {
	return id.Prefix + id.Label()
}

// SameSection reports whether other lives in the same slot and section.
func (id ID) SameSection(other ID) bool {
	return id.Slot == other.Slot && id.Prefix == other.Prefix && id.Section == other.Section
}

func (id ID) GoString() string {
	return fmt.Sprintf("reqid.ID{%q}", id.String())
}
