package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
)

// Build derives the initial ledger of one plan: one empty entry per top-level
// subsection, keyed by the slot's prefix. Sub-plans are not expanded; see
// BuildOption.
func Build(p *schema.Plan, slot int, prefix string) *Ledger {
	out := New()
	if p == nil {
		return out
	}
	for _, sec := range p.Sections {
		if schema.IsReservedKey(sec.Key) {
			continue
		}
		out.Merge(BuildSection(sec, slot, prefix, ""))
	}
	return out
}

// BuildSection builds the entries of one section, leaving out the subsection
// named skip (the one a selected sub-plan supersedes).
func BuildSection(sec schema.Section, slot int, prefix, skip string) *Ledger {
	out := New()
	for _, sub := range sec.Subsections {
		if skip != "" && sub.ID == skip {
			continue
		}
		out.Put(reqid.Requirement(slot, prefix, sec.Key, sub.ID), empty(sub.UnitsRequired()))
	}
	return out
}

// BuildOption builds the entries of a selected sub-plan option nested in
// section/subsection.
func BuildOption(sec schema.Section, sub schema.Subsection, opt schema.SubPlanOption, slot int, prefix string) *Ledger {
	out := New()
	for _, nested := range opt.Subsections {
		id := reqid.NestedRequirement(slot, prefix, sec.Key, sub.ID, opt.Key, nested.ID)
		out.Put(id, empty(nested.UnitsRequired()))
	}
	return out
}

// Reserve adds the catch-all bucket and the plan elective bucket of every
// slot. Existing entries are left alone.
func Reserve(l *Ledger, buckets ...ElectiveBucket) {
	l.Ensure(reqid.Unassigned(), decimal.Zero)
	for _, b := range buckets {
		l.Ensure(reqid.Electives(b.Slot, b.Prefix), b.Allowance)
	}
}

// ElectiveBucket is the per-plan elective allowance.
type ElectiveBucket struct {
	Slot      int
	Prefix    string
	Allowance decimal.Decimal
}

func empty(required decimal.Decimal) Entry {
	return Entry{UnitsRequired: required, UnitsCompleted: decimal.Zero, Courses: []string{}}
}
