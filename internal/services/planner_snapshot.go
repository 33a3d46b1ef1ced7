package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/fulfill"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	types "github.com/yungbote/degreeplan-backend/internal/domain"
)

// PlannerSnapshot is one student's planner session as the engine sees it.
// Plans are not persisted; they are fetched again from FieldLinks on load.
type PlannerSnapshot struct {
	StudentID   string
	Combination reqid.Combination
	// FieldLinks holds the plan identifier of each slot.
	FieldLinks []string
	Plans      []fulfill.LockedPlan
	// SubPlans holds each slot's active sub-plan selection, nil when none.
	SubPlans []*fulfill.Selection
	// SectionNames lists each slot's sections in resolver order.
	SectionNames [][]string
	Overrides    []fulfill.Override
	Courses      course.List
	Ledger       *ledger.Ledger

	Version    int
	Generation uint64
}

func emptySnapshot(studentID string) *PlannerSnapshot {
	return &PlannerSnapshot{StudentID: studentID, Ledger: ledger.New()}
}

func (s *PlannerSnapshot) Clone() *PlannerSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.FieldLinks = append([]string(nil), s.FieldLinks...)
	out.Plans = make([]fulfill.LockedPlan, len(s.Plans))
	for i, lp := range s.Plans {
		if lp.Selection != nil {
			sel := *lp.Selection
			lp.Selection = &sel
		}
		out.Plans[i] = lp
	}
	out.SubPlans = make([]*fulfill.Selection, len(s.SubPlans))
	for i, sel := range s.SubPlans {
		if sel != nil {
			c := *sel
			out.SubPlans[i] = &c
		}
	}
	out.SectionNames = make([][]string, len(s.SectionNames))
	for i, names := range s.SectionNames {
		out.SectionNames[i] = append([]string(nil), names...)
	}
	out.Overrides = append([]fulfill.Override(nil), s.Overrides...)
	for i := range out.Overrides {
		out.Overrides[i].Course = out.Overrides[i].Course.Clone()
	}
	out.Courses = s.Courses.Clone()
	out.Ledger = s.Ledger.Clone()
	return &out
}

func sectionNames(p *schema.Plan) []string {
	var out []string
	for _, sec := range p.SortedSections() {
		if !schema.IsReservedKey(sec.Key) {
			out = append(out, sec.Key)
		}
	}
	return out
}

func toState(s *PlannerSnapshot, version int) (*types.PlannerState, error) {
	st := &types.PlannerState{
		StudentID:   s.StudentID,
		Combination: string(s.Combination),
		Version:     version,
	}
	fields := []struct {
		name string
		dst  *datatypes.JSON
		v    any
	}{
		{"field_links", &st.FieldLinks, s.FieldLinks},
		{"ledger", &st.Ledger, s.Ledger},
		{"sub_plans", &st.SubPlans, s.SubPlans},
		{"section_names", &st.SectionNames, s.SectionNames},
		{"overrides", &st.Overrides, s.Overrides},
		{"courses_taken", &st.CoursesTaken, s.Courses},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = datatypes.JSON(raw)
	}
	return st, nil
}

// fromState decodes everything but Plans, which need the catalog.
func fromState(st *types.PlannerState) (*PlannerSnapshot, error) {
	s := emptySnapshot(st.StudentID)
	s.Combination = reqid.Combination(st.Combination)
	s.Version = st.Version
	fields := []struct {
		name string
		raw  datatypes.JSON
		dst  any
	}{
		{"field_links", st.FieldLinks, &s.FieldLinks},
		{"ledger", st.Ledger, s.Ledger},
		{"sub_plans", st.SubPlans, &s.SubPlans},
		{"section_names", st.SectionNames, &s.SectionNames},
		{"overrides", st.Overrides, &s.Overrides},
		{"courses_taken", st.CoursesTaken, &s.Courses},
	}
	for _, f := range fields {
		if len(f.raw) == 0 || string(f.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return s, nil
}
