package fulfill

import (
	"fmt"
	"testing"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

func resolveAll(t *testing.T, plans []LockedPlan, c reqid.Combination, courses course.List) Result {
	t.Helper()
	res := Result{Courses: courses, Ledger: BuildLedger(plans, c)}
	for i := range courses {
		res = Resolve(ResolveInput{Index: i, Courses: res.Courses, Plans: plans, Ledger: res.Ledger, Combination: c})
	}
	return res
}

func TestResolveDirectMatch(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	res := resolveAll(t, plans, reqid.Major, taken("CISC121", 3.0, "CISC124", 3.0))

	coreA := req(0, "major1-", "Core", "A")
	if got := completed(t, res.Ledger, coreA); got != 6 {
		t.Fatalf("CoreA completed: want=6 got=%v", got)
	}
	for _, c := range res.Courses {
		if !c.Assignment.Equal(reqid.Set{coreA}) {
			t.Fatalf("%s assignment: want=[%s] got=%s", c.Code, coreA, c.Assignment.Join())
		}
	}
	if x := excessRecords(res.Courses); len(x) != 0 {
		t.Fatalf("excess: want none got=%v", x)
	}
}

func TestResolveSplitsExcess(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	in := taken("MATH110", 4.0)
	l := BuildLedger(plans, reqid.Major)
	res := Resolve(ResolveInput{Index: 0, Courses: in, Plans: plans, Ledger: l, Combination: reqid.Major})

	if got := completed(t, res.Ledger, req(0, "major1-", "Core", "B")); got != 3 {
		t.Fatalf("CoreB completed: want=3 got=%v", got)
	}
	x := excessRecords(res.Courses)
	if len(x) != 1 {
		t.Fatalf("excess: want one record got=%d", len(x))
	}
	if x[0].Title != "Excess from CoreB" || !x[0].Units.Equal(units.New(1)) || !x[0].Assignment.Equal(reqid.Set{reqid.Unassigned()}) {
		t.Fatalf("excess record: got %+v", x[0])
	}
	if got := completed(t, res.Ledger, reqid.Unassigned()); got != 1 {
		t.Fatalf("Unassigned completed: want=1 got=%v", got)
	}
	if len(in) != 1 || in[0].Assigned() {
		t.Fatalf("input course list was modified: %+v", in)
	}
	if got := completed(t, l, req(0, "major1-", "Core", "B")); got != 0 {
		t.Fatalf("input ledger was modified: CoreB=%v", got)
	}
}

func TestResolveDoesNotDuplicateExcess(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	in := append(taken("MATH110", 4.0), course.NewExcess("MATH110", "CoreB", units.New(1)))
	res := Resolve(ResolveInput{Index: 0, Courses: in, Plans: plans, Ledger: BuildLedger(plans, reqid.Major), Combination: reqid.Major})
	if x := excessRecords(res.Courses); len(x) != 1 {
		t.Fatalf("excess: want the existing record only got=%d", len(x))
	}
}

func TestResolveRespectsSaturation(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	res := resolveAll(t, plans, reqid.Major, taken("CISC121", 3.0, "CISC124", 3.0, "CISC102", 3.0))

	e, _ := res.Ledger.Get(req(0, "major1-", "Core", "A"))
	if len(e.Courses) != 2 || !e.UnitsCompleted.Equal(units.New(6)) {
		t.Fatalf("CoreA: want two courses and 6 units got=%+v", e)
	}
	el := reqid.Electives(0, "major1-")
	if !res.Courses[2].Assignment.Equal(reqid.Set{el}) {
		t.Fatalf("CISC102: want=%s got=%s", el, res.Courses[2].Assignment.Join())
	}
}

func TestResolveCombinationNeedsAllMembers(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	coreC := req(0, "major1-", "Core", "C")

	res := resolveAll(t, plans, reqid.Major, taken("PHYS106", 3.0))
	if got := completed(t, res.Ledger, coreC); got != 0 {
		t.Fatalf("CoreC with one member: want=0 got=%v", got)
	}
	if res.Courses[0].Assignment.Contains(coreC) {
		t.Fatalf("PHYS106 assigned to CoreC without its partner")
	}

	res = resolveAll(t, plans, reqid.Major, taken("PHYS106", 3.0, "PHYS107", 3.0))
	if got := completed(t, res.Ledger, coreC); got != 6 {
		t.Fatalf("CoreC with both members: want=6 got=%v", got)
	}
	for _, c := range res.Courses {
		if !c.Assignment.Equal(reqid.Set{coreC}) {
			t.Fatalf("%s: want=[%s] got=%s", c.Code, coreC, c.Assignment.Join())
		}
	}
}

func TestResolveCombinationBudget(t *testing.T) {
	const physics = `
title: Physics
electives: 3.0
Core:
  - id: C
    title: %s
    courses:
      - combination:
          - {code: PHYS106, units: 3.0}
          - {code: PHYS107, units: 3.0}
`
	type split struct {
		code  string
		units float64
	}
	cases := []struct {
		name    string
		title   string
		courses course.List
		coreC   float64
		excess  []split
	}{
		{name: "budget covers members", title: "Physics", courses: taken("PHYS106", 3.0, "PHYS107", 3.0), coreC: 6},
		{name: "budget below members", title: "Complete 4.00 units", courses: taken("PHYS106", 3.0, "PHYS107", 3.0), coreC: 4, excess: []split{{"PHYS107", 2}}},
		{name: "listed order wins", title: "Complete 4.00 units", courses: taken("PHYS107", 3.0, "PHYS106", 3.0), coreC: 4, excess: []split{{"PHYS107", 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plans := mustLock(t, reqid.Major, fmt.Sprintf(physics, tc.title))
			coreC := req(0, "major1-", "Core", "C")
			res := resolveAll(t, plans, reqid.Major, tc.courses)

			if got := completed(t, res.Ledger, coreC); got != tc.coreC {
				t.Fatalf("CoreC: want=%v got=%v", tc.coreC, got)
			}
			kept, x := res.Courses.Split()
			for _, c := range kept {
				if !c.Assignment.Equal(reqid.Set{coreC}) {
					t.Fatalf("%s: want=[%s] got=%s", c.Code, coreC, c.Assignment.Join())
				}
			}
			if len(x) != len(tc.excess) {
				t.Fatalf("excess: want=%v got=%+v", tc.excess, x)
			}
			for i, want := range tc.excess {
				if x[i].Code != want.code || !x[i].Units.Equal(units.New(want.units)) || x[i].Title != "Excess from CoreC" {
					t.Fatalf("excess[%d]: want=%v got=%+v", i, want, x[i])
				}
			}
			if !res.Ledger.TotalCompleted().Equal(tc.courses.TotalUnits()) {
				t.Fatalf("ledger total: want=%s got=%s", tc.courses.TotalUnits(), res.Ledger.TotalCompleted())
			}

			again := Recompute(RecomputeInput{Courses: tc.courses, Plans: plans, Combination: reqid.Major})
			if !sameCourses(res.Courses, again.Courses) {
				t.Fatalf("recompute differs from course-by-course:\n%+v\n%+v", res.Courses, again.Courses)
			}
		})
	}
}

func TestResolveCrossPlanContinuation(t *testing.T) {
	plans := mustLock(t, reqid.DoubleMajor, computingPlan, mathPlan)
	res := resolveAll(t, plans, reqid.DoubleMajor, taken("CISC121", 3.0))

	got := res.Courses[0].Assignment
	want := reqid.Set{req(0, "major1-", "Core", "A"), req(1, "major2-", "Supporting", "A")}
	if !got.Equal(want) {
		t.Fatalf("assignment: want=%s got=%s", want.Join(), got.Join())
	}
	if c := completed(t, res.Ledger, req(1, "major2-", "Core", "B")); c != 0 {
		t.Fatalf("second core credit in other plan: major2-CoreB=%v", c)
	}
	if c := completed(t, res.Ledger, req(1, "major2-", "Supporting", "A")); c != 3 {
		t.Fatalf("major2-SupportingA: want=3 got=%v", c)
	}
}

func TestResolveElectivesOverflow(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	res := resolveAll(t, plans, reqid.Major, taken("ART100", 3.0, "ART200", 3.0, "ART300", 3.0))

	el := reqid.Electives(0, "major1-")
	if got := completed(t, res.Ledger, el); got != 6 {
		t.Fatalf("electives: want=6 got=%v", got)
	}
	if !res.Courses[2].Assignment.Equal(reqid.Set{reqid.Unassigned()}) {
		t.Fatalf("overflow course: want=Unassigned got=%s", res.Courses[2].Assignment.Join())
	}
}

func TestResolveNoOps(t *testing.T) {
	plans := mustLock(t, reqid.Major, computingPlan)
	l := BuildLedger(plans, reqid.Major)
	assigned := taken("CISC121", 3.0)
	assigned[0].Assignment = reqid.Set{reqid.Electives(0, "major1-")}

	cases := []struct {
		name    string
		index   int
		courses course.List
		plans   []LockedPlan
	}{
		{"negative index", -1, taken("CISC121", 3.0), plans},
		{"index past end", 4, taken("CISC121", 3.0), plans},
		{"no code", 0, taken("", 3.0), plans},
		{"already assigned", 0, assigned, plans},
		{"excess record", 0, course.List{course.NewExcess("CISC121", "CoreA", units.New(1))}, plans},
		{"no plans", 0, taken("CISC121", 3.0), nil},
	}
	for _, tc := range cases {
		res := Resolve(ResolveInput{Index: tc.index, Courses: tc.courses, Plans: tc.plans, Ledger: l, Combination: reqid.Major})
		if len(res.Courses) != len(tc.courses) || !res.Courses[0].Assignment.Equal(tc.courses[0].Assignment) {
			t.Fatalf("%s: courses changed: %+v", tc.name, res.Courses)
		}
		if !res.Ledger.Equal(l) {
			t.Fatalf("%s: ledger changed", tc.name)
		}
	}
}

func TestCrossReferenceSupporting(t *testing.T) {
	plans := mustLock(t, reqid.DoubleMajor, computingPlan, mathPlan)
	l := BuildLedger(plans, reqid.DoubleMajor)
	coreA := req(0, "major1-", "Core", "A")
	l.Credit(coreA, "CISC121", units.New(3))
	in := taken("CISC121", 3.0, "ART100", 3.0)
	in[0].Assignment = reqid.Set{coreA}

	res := CrossReferenceSupporting(in, plans, l, reqid.DoubleMajor)
	sup := req(1, "major2-", "Supporting", "A")
	if !res.Courses[0].Assignment.Equal(reqid.Set{coreA, sup}) {
		t.Fatalf("CISC121: got %s", res.Courses[0].Assignment.Join())
	}
	if got := completed(t, res.Ledger, sup); got != 3 {
		t.Fatalf("SupportingA: want=3 got=%v", got)
	}
	if res.Courses[1].Assigned() {
		t.Fatalf("unassigned course picked up credit")
	}
	if in[0].Assignment.Contains(sup) {
		t.Fatalf("input course list was modified")
	}

	again := CrossReferenceSupporting(res.Courses, plans, res.Ledger, reqid.DoubleMajor)
	if !again.Ledger.Equal(res.Ledger) {
		t.Fatalf("second pass added credit")
	}
}
