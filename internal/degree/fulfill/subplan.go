package fulfill

import (
	"fmt"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

type SubPlanInput struct {
	Plans       []LockedPlan
	Combination reqid.Combination
	Slot        int
	// Selection is the chosen option, or nil to clear the slot's selection.
	Selection *Selection
	Ledger    *ledger.Ledger
	Courses   course.List
}

type SubPlanResult struct {
	Plans   []LockedPlan
	Ledger  *ledger.Ledger
	Courses course.List
}

// SelectSubPlan switches a slot's active sub-plan option. The affected
// section is rebuilt in the ledger and every course assignment is cleared,
// so the next Recompute resolves everything against the new structure.
func SelectSubPlan(in SubPlanInput) (SubPlanResult, error) {
	pos := -1
	for i, lp := range in.Plans {
		if lp.Slot == in.Slot {
			pos = i
			break
		}
	}
	if pos < 0 {
		return SubPlanResult{}, fmt.Errorf("slot %d: %w", in.Slot, ErrUnknownSubPlan)
	}
	plans := clonePlans(in.Plans)
	lp := plans[pos]
	if in.Selection != nil {
		if _, _, _, err := lp.resolveSelection(in.Selection); err != nil {
			return SubPlanResult{}, err
		}
	}

	sections := map[string]bool{}
	if lp.Selection != nil {
		sections[lp.Selection.Section] = true
	}
	var sel *Selection
	if in.Selection != nil {
		s := *in.Selection
		sel = &s
		sections[sel.Section] = true
	}
	lp.Selection = sel
	plans[pos] = lp

	prefix := lp.Prefix(in.Combination)
	l := in.Ledger.Clone()
	l.DeleteWhere(func(id reqid.ID) bool {
		return id.Slot == lp.Slot && id.Prefix == prefix && sections[id.Section]
	})
	rebuilt := BuildPlanLedger(lp, in.Combination)
	for _, id := range rebuilt.Keys() {
		if !sections[id.Section] {
			continue
		}
		e, _ := rebuilt.Get(id)
		l.Put(id, e)
	}

	courses := in.Courses.Clone()
	for i := range courses {
		if !courses[i].IsExcess {
			courses[i].Assignment = nil
		}
	}
	return SubPlanResult{Plans: plans, Ledger: l, Courses: courses}, nil
}
