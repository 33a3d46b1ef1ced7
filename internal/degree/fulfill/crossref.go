package fulfill

import (
	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
)

// CrossReferenceSupporting gives assigned courses a secondary credit in a
// supporting requirement of another plan. It only adds: prior assignments are
// never removed and no excess is split off. Inputs are not modified.
func CrossReferenceSupporting(courses course.List, plans []LockedPlan, l *ledger.Ledger, c reqid.Combination) Result {
	out := courses.Clone()
	work := l.Clone()
	crossReference(out, plans, work, c, nil)
	return Result{Courses: out, Ledger: work}
}

// crossReference works in place. Indices in skip are left alone.
func crossReference(courses course.List, plans []LockedPlan, l *ledger.Ledger, c reqid.Combination, skip map[int]bool) {
	for i := range courses {
		cur := courses[i]
		if skip[i] || cur.IsExcess || cur.Code == "" || !cur.Assigned() || cur.Assignment.HasSupporting() {
			continue
		}
		if id, ok := supportingMatch(cur, plans, l, c); ok {
			l.Credit(id, cur.Code, cur.Units)
			courses[i].Assignment = courses[i].Assignment.Add(id)
		}
	}
}

func supportingMatch(cur course.Course, plans []LockedPlan, l *ledger.Ledger, c reqid.Combination) (reqid.ID, bool) {
	home := map[int]bool{}
	for _, s := range cur.Assignment.Slots() {
		home[s] = true
	}
	for _, lp := range plans {
		if home[lp.Slot] {
			continue
		}
		for _, req := range lp.requirements(c) {
			if !req.id.IsSupporting() {
				continue
			}
			e, ok := l.Get(req.id)
			if !ok || e.Saturated() {
				continue
			}
			if listsDirect(req.sub, cur.Code) {
				return req.id, true
			}
		}
	}
	return reqid.ID{}, false
}

func listsDirect(sub schema.Subsection, code string) bool {
	for _, e := range sub.Courses {
		if ref, ok := e.(schema.CourseRef); ok && ref.Code == code {
			return true
		}
	}
	return false
}
