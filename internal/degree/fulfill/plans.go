// Package fulfill assigns a student's courses to degree-plan requirements.
//
// Everything here is synchronous and pure: every exported operation takes
// its inputs by value (or clones them) and returns fresh course lists and
// ledgers. Bad plan data degrades to "no match"; it never panics or errors
// inside the resolver or the recompute pipeline.
package fulfill

import (
	"errors"
	"fmt"

	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
)

var (
	ErrUnknownCombination = errors.New("unknown plan combination")
	ErrSlotCount          = errors.New("wrong number of plans for combination")
	ErrDuplicatePlan      = errors.New("plan selected more than once")
	ErrUnknownSubPlan     = errors.New("unknown sub-plan")
	ErrInvalidOverride    = errors.New("invalid override")
)

// Selection is the active sub-plan option of a plan slot.
type Selection struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Option     string `json:"option"`
}

// LockedPlan is a validated plan schema pinned to a slot.
type LockedPlan struct {
	Slot      int
	Plan      *schema.Plan
	Selection *Selection
}

func (lp LockedPlan) Prefix(c reqid.Combination) string {
	return reqid.Prefix(lp.Slot, c)
}

// LockPlans validates a combination's plans and pins them to slots in order.
func LockPlans(c reqid.Combination, plans []*schema.Plan) ([]LockedPlan, error) {
	if !c.Known() {
		return nil, fmt.Errorf("%q: %w", c, ErrUnknownCombination)
	}
	if len(plans) != c.Slots() {
		return nil, fmt.Errorf("%s needs %d plans, got %d: %w", c, c.Slots(), len(plans), ErrSlotCount)
	}
	seen := map[string]int{}
	out := make([]LockedPlan, 0, len(plans))
	for i, p := range plans {
		if err := schema.Validate(p); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if prev, ok := seen[p.Identity()]; ok {
			return nil, fmt.Errorf("%q in slots %d and %d: %w", p.Identity(), prev, i, ErrDuplicatePlan)
		}
		seen[p.Identity()] = i
		out = append(out, LockedPlan{Slot: i, Plan: p})
	}
	return out, nil
}

func clonePlans(in []LockedPlan) []LockedPlan {
	out := make([]LockedPlan, len(in))
	for i, lp := range in {
		if lp.Selection != nil {
			sel := *lp.Selection
			lp.Selection = &sel
		}
		out[i] = lp
	}
	return out
}

// requirement is one fillable slot of a plan, in resolver walk order.
type requirement struct {
	id  reqid.ID
	sub schema.Subsection
}

// requirements walks sections in lexicographic key order and subsections in
// schema order. Each subsection is followed by the nested subsections of its
// options, sorted by option key. Which of these are live is decided by the
// ledger, not here.
func (lp LockedPlan) requirements(c reqid.Combination) []requirement {
	if lp.Plan == nil {
		return nil
	}
	prefix := lp.Prefix(c)
	var out []requirement
	for _, sec := range lp.Plan.SortedSections() {
		if schema.IsReservedKey(sec.Key) {
			continue
		}
		for _, sub := range sec.Subsections {
			out = append(out, requirement{id: reqid.Requirement(lp.Slot, prefix, sec.Key, sub.ID), sub: sub})
			for _, opt := range sub.SortedOptions() {
				for _, nested := range opt.Subsections {
					id := reqid.NestedRequirement(lp.Slot, prefix, sec.Key, sub.ID, opt.Key, nested.ID)
					out = append(out, requirement{id: id, sub: nested})
				}
			}
		}
	}
	return out
}

// resolveSelection looks up the schema nodes a selection points at.
func (lp LockedPlan) resolveSelection(sel *Selection) (schema.Section, schema.Subsection, schema.SubPlanOption, error) {
	if lp.Plan == nil || sel == nil {
		return schema.Section{}, schema.Subsection{}, schema.SubPlanOption{}, ErrUnknownSubPlan
	}
	sec, ok := lp.Plan.Section(sel.Section)
	if !ok {
		return sec, schema.Subsection{}, schema.SubPlanOption{}, fmt.Errorf("section %q: %w", sel.Section, ErrUnknownSubPlan)
	}
	sub, ok := sec.Subsection(sel.Subsection)
	if !ok {
		return sec, sub, schema.SubPlanOption{}, fmt.Errorf("subsection %q: %w", sel.Subsection, ErrUnknownSubPlan)
	}
	opt, ok := sub.Option(sel.Option)
	if !ok {
		return sec, sub, opt, fmt.Errorf("option %q: %w", sel.Option, ErrUnknownSubPlan)
	}
	return sec, sub, opt, nil
}

// BuildPlanLedger builds one plan's ledger with its active sub-plan expanded.
func BuildPlanLedger(lp LockedPlan, c reqid.Combination) *ledger.Ledger {
	prefix := lp.Prefix(c)
	if lp.Plan == nil {
		return ledger.New()
	}
	selSec, selSub, selOpt, err := lp.resolveSelection(lp.Selection)
	if err != nil {
		return ledger.Build(lp.Plan, lp.Slot, prefix)
	}
	out := ledger.New()
	for _, sec := range lp.Plan.Sections {
		if schema.IsReservedKey(sec.Key) {
			continue
		}
		if sec.Key != selSec.Key {
			out.Merge(ledger.BuildSection(sec, lp.Slot, prefix, ""))
			continue
		}
		out.Merge(ledger.BuildSection(sec, lp.Slot, prefix, selSub.ID))
		out.Merge(ledger.BuildOption(sec, selSub, selOpt, lp.Slot, prefix))
	}
	return out
}

// BuildLedger builds the fresh ledger for a set of locked plans: every plan's
// requirements in slot order, then the catch-all bucket and each plan's
// elective bucket.
func BuildLedger(plans []LockedPlan, c reqid.Combination) *ledger.Ledger {
	out := ledger.New()
	buckets := make([]ledger.ElectiveBucket, 0, len(plans))
	for _, lp := range plans {
		out.Merge(BuildPlanLedger(lp, c))
		b := ledger.ElectiveBucket{Slot: lp.Slot, Prefix: lp.Prefix(c)}
		if lp.Plan != nil {
			b.Allowance = lp.Plan.Electives
		}
		buckets = append(buckets, b)
	}
	ledger.Reserve(out, buckets...)
	return out
}
