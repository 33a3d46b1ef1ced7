package fulfill

import (
	"testing"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

const computingPlan = `
title: Computing
electives: 6.0
Core:
  - id: A
    title: Complete 6.00 units from the following
    courses:
      - {code: CISC121, units: 3.0}
      - {code: CISC124, units: 3.0}
      - {code: CISC102, units: 3.0}
  - id: B
    title: Complete 3.00 units from the following
    courses:
      - {code: MATH110, units: 4.0}
  - id: C
    title: Physics
    courses:
      - combination:
          - {code: PHYS106, units: 3.0}
          - {code: PHYS107, units: 3.0}
`

const mathPlan = `
title: Mathematics
electives: 3.0
Supporting:
  - id: A
    title: Complete 3.00 units from the following
    courses:
      - {code: CISC121, units: 3.0}
Core:
  - id: A
    courses:
      - {code: MATH120, units: 3.0}
  - id: B
    courses:
      - {code: CISC121, units: 3.0}
`

const subPlanPlan = `
title: Software Design
electives: 3.0
Core:
  - id: A
    courses:
      - {code: CISC121, units: 3.0}
  - id: B
    title: Complete one of the following sub-plans
    plan:
      ai:
        - id: X
          courses:
            - {code: CISC352, units: 3.0}
      data:
        - id: X
          courses:
            - {code: CISC332, units: 3.0}
        - id: Y
          courses:
            - {code: CISC432, units: 3.0}
`

func mustPlan(t *testing.T, src string) *schema.Plan {
	t.Helper()
	p, err := schema.Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return p
}

func mustLock(t *testing.T, c reqid.Combination, srcs ...string) []LockedPlan {
	t.Helper()
	plans := make([]*schema.Plan, 0, len(srcs))
	for _, s := range srcs {
		plans = append(plans, mustPlan(t, s))
	}
	locked, err := LockPlans(c, plans)
	if err != nil {
		t.Fatalf("LockPlans: %v", err)
	}
	return locked
}

func taken(codeUnits ...any) course.List {
	var out course.List
	for i := 0; i+1 < len(codeUnits); i += 2 {
		out = append(out, course.Course{
			Code:  codeUnits[i].(string),
			Units: units.New(codeUnits[i+1].(float64)),
		})
	}
	return out
}

func req(slot int, prefix, section, sub string) reqid.ID {
	return reqid.Requirement(slot, prefix, section, sub)
}

func completed(t *testing.T, l *ledger.Ledger, id reqid.ID) float64 {
	t.Helper()
	e, ok := l.Get(id)
	if !ok {
		t.Fatalf("ledger has no %s", id)
	}
	f, _ := e.UnitsCompleted.Float64()
	return f
}

func excessRecords(l course.List) course.List {
	_, x := l.Split()
	return x
}
