package fulfill

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

// ResolveInput describes one single-course resolution.
type ResolveInput struct {
	// Index of the course in Courses.
	Index       int
	Courses     course.List
	Plans       []LockedPlan
	Ledger      *ledger.Ledger
	Combination reqid.Combination
	// AllCourses is the list excess records are de-duplicated against. When
	// nil, Courses is used.
	AllCourses course.List
}

type Result struct {
	Courses course.List
	Ledger  *ledger.Ledger
}

// Resolve assigns one unassigned course to the first requirement it fits,
// optionally picks up a second, opposite-category requirement in another plan,
// and falls back to the first plan's elective bucket. Inputs are not modified.
func Resolve(in ResolveInput) Result {
	all := in.AllCourses
	if all == nil {
		all = in.Courses
	}
	r := newResolver(in.Courses.Clone(), in.Plans, in.Ledger.Clone(), in.Combination, all, false)
	r.resolve(in.Index)
	return Result{Courses: r.courses, Ledger: r.ledger}
}

// resolver carries the working state of one resolution run. Recompute drives
// a single resolver across all courses so later courses see earlier credit.
type resolver struct {
	courses course.List
	plans   []LockedPlan
	ledger  *ledger.Ledger
	combo   reqid.Combination
	all     course.List

	// deferExcess holds new excess records aside instead of appending them to
	// courses; Recompute places and credits them in its last step.
	deferExcess bool
	newExcess   course.List
}

func newResolver(courses course.List, plans []LockedPlan, l *ledger.Ledger, c reqid.Combination, all course.List, deferExcess bool) *resolver {
	return &resolver{
		courses:     courses,
		plans:       plans,
		ledger:      l,
		combo:       c,
		all:         all,
		deferExcess: deferExcess,
	}
}

func (r *resolver) resolve(idx int) {
	if idx < 0 || idx >= len(r.courses) || len(r.plans) == 0 {
		return
	}
	if !r.courses[idx].Resolvable() {
		return
	}

	var assigned reqid.Set
	first, firstPos, ok := r.firstMatch(idx)
	if ok {
		assigned = assigned.Add(first)
		if second, ok := r.continuation(idx, firstPos, !first.IsSupporting()); ok {
			assigned = assigned.Add(second)
		}
	} else {
		assigned = assigned.Add(r.fallback(idx))
	}
	r.courses[idx].Assignment = r.courses[idx].Assignment.Add(assigned...)
}

// firstMatch scans every plan in slot order and stops at the first
// requirement the course fills.
func (r *resolver) firstMatch(idx int) (reqid.ID, int, bool) {
	for pos, lp := range r.plans {
		for _, req := range lp.requirements(r.combo) {
			if r.try(idx, req, true) {
				return req.id, pos, true
			}
		}
	}
	return reqid.ID{}, -1, false
}

// continuation lets the course also fill one requirement of the opposite
// category in another plan. The first hit wins, in slot order. Secondary
// credit never spawns excess records.
func (r *resolver) continuation(idx, skipPos int, wantSupporting bool) (reqid.ID, bool) {
	for pos, lp := range r.plans {
		if pos == skipPos {
			continue
		}
		for _, req := range lp.requirements(r.combo) {
			if req.id.IsSupporting() != wantSupporting {
				continue
			}
			if r.try(idx, req, false) {
				return req.id, true
			}
		}
	}
	return reqid.ID{}, false
}

// try matches the course at idx against one requirement's course list and
// allocates on success. One-of groups are never matched.
func (r *resolver) try(idx int, req requirement, allowExcess bool) bool {
	entry, ok := r.ledger.Get(req.id)
	if !ok || entry.Saturated() {
		return false
	}
	target := r.courses[idx]
	if target.Assignment.Contains(req.id) {
		return false
	}
	for _, e := range req.sub.Courses {
		switch v := e.(type) {
		case schema.Combination:
			if !v.Contains(target.Code) || !r.allPresent(v) {
				continue
			}
			if r.allocateCombination(idx, req.id, v, allowExcess) {
				return true
			}
			if r.ledger.Saturated(req.id) {
				return false
			}
		case schema.CourseRef:
			if v.Code != target.Code {
				continue
			}
			r.allocateDirect(idx, req.id, allowExcess)
			return true
		case schema.OneOf:
		}
	}
	return false
}

// allPresent reports whether every member of a combination has been taken.
// Excess records do not count.
func (r *resolver) allPresent(c schema.Combination) bool {
	if len(c.Members) == 0 {
		return false
	}
	for _, m := range c.Members {
		if !r.courses.HasCode(m.Code) {
			return false
		}
	}
	return true
}

func (r *resolver) allocateDirect(idx int, id reqid.ID, allowExcess bool) {
	entry, _ := r.ledger.Get(id)
	c := r.courses[idx]
	alloc := units.Min(c.Units, entry.Remaining())
	r.ledger.Credit(id, c.Code, alloc)
	r.courses[idx].Assignment = r.courses[idx].Assignment.Add(id)
	if allowExcess {
		r.spill(c, id, c.Units.Sub(alloc))
	}
}

// allocateCombination spreads the requirement's remaining capacity over the
// combination's members in listed order. Members that get nothing are left
// for their own resolution. It reports whether the course at idx was credited.
func (r *resolver) allocateCombination(idx int, id reqid.ID, c schema.Combination, allowExcess bool) bool {
	entry, _ := r.ledger.Get(id)
	budget := entry.UnitsRequired
	if budget.IsZero() {
		budget = schema.EntryUnits(c)
	}
	remaining := units.Remaining(budget, entry.UnitsCompleted)

	credited := false
	for _, m := range c.Members {
		prefer := -1
		if r.courses[idx].Code == m.Code {
			prefer = idx
		}
		i := r.courses.FindInstance(m.Code, id, prefer)
		if i < 0 {
			continue
		}
		member := r.courses[i]
		alloc := units.Min(member.Units, remaining)
		if !units.Positive(alloc) {
			continue
		}
		remaining = remaining.Sub(alloc)
		r.ledger.Credit(id, member.Code, alloc)
		r.courses[i].Assignment = r.courses[i].Assignment.Add(id)
		if i == idx {
			credited = true
		}
		if allowExcess {
			r.spill(member, id, member.Units.Sub(alloc))
		}
	}
	return credited
}

// spill turns leftover units into an excess record routed to the catch-all
// bucket. A single resolution skips the record when an identical one is
// already listed; Recompute collects every split and reconciles them itself.
func (r *resolver) spill(src course.Course, id reqid.ID, leftover decimal.Decimal) {
	if !units.Positive(leftover) {
		return
	}
	rec := course.NewExcess(src.Code, r.excessLabel(id), leftover)
	if r.deferExcess {
		r.newExcess = append(r.newExcess, rec)
		return
	}
	if r.all.HasExcess(rec) || r.courses.HasExcess(rec) {
		return
	}
	r.courses = append(r.courses, rec)
	r.ledger.Credit(reqid.Unassigned(), rec.Code, rec.Units)
}

// excessLabel names the requirement an excess record came from. With more
// than one plan locked the plan prefix is kept so that equal section keys in
// different plans stay distinct.
func (r *resolver) excessLabel(id reqid.ID) string {
	if len(r.plans) > 1 {
		return id.String()
	}
	return id.Label()
}

// fallback credits the course to the first plan's elective bucket, or to the
// catch-all bucket once that allowance is used up.
func (r *resolver) fallback(idx int) reqid.ID {
	first := r.plans[0]
	allowance := decimal.Zero
	if first.Plan != nil {
		allowance = first.Plan.Electives
	}
	id := reqid.Electives(first.Slot, first.Prefix(r.combo))
	if r.ledger.Ensure(id, allowance).Saturated() {
		id = reqid.Unassigned()
		r.ledger.Ensure(id, decimal.Zero)
	}
	c := r.courses[idx]
	r.ledger.Credit(id, c.Code, c.Units)
	r.courses[idx].Assignment = r.courses[idx].Assignment.Add(id)
	return id
}
