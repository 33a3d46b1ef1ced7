// Package schema models degree-plan definitions: a plan is a set of named
// sections, each an ordered list of subsections (requirements). A subsection
// lists the course entries that can fill it and may expose alternate
// sub-plans, of which at most one is active per plan slot.
package schema

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Reserved top-level keys of a plan document. Every other key is a section.
const (
	KeyID        = "id"
	KeyTitle     = "title"
	KeyYear      = "year"
	KeyUnits     = "units"
	KeyElectives = "electives"
)

func IsReservedKey(k string) bool {
	switch k {
	case KeyID, KeyTitle, KeyYear, KeyUnits, KeyElectives:
		return true
	default:
		return false
	}
}

type Plan struct {
	ID        string
	Title     string
	Year      string
	Units     decimal.Decimal
	Electives decimal.Decimal
	// Sections in declaration order.
	Sections []Section
}

type Section struct {
	Key         string
	Subsections []Subsection
}

type Subsection struct {
	ID      string
	Title   string
	Courses []CourseEntry
	Options []SubPlanOption
}

// SubPlanOption is one user-selectable alternative nested in a subsection.
type SubPlanOption struct {
	Key         string
	Subsections []Subsection
}

// Identity is what makes two plans "the same plan" for duplicate detection.
func (p *Plan) Identity() string {
	if p == nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.Title + "@" + p.Year
}

func (p *Plan) Section(key string) (Section, bool) {
	if p == nil {
		return Section{}, false
	}
	for _, s := range p.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// SortedSections returns the sections in lexicographic key order, which is the
// order the resolver walks them in.
func (p *Plan) SortedSections() []Section {
	if p == nil {
		return nil
	}
	out := make([]Section, len(p.Sections))
	copy(out, p.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s Section) Subsection(id string) (Subsection, bool) {
	for _, sub := range s.Subsections {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subsection{}, false
}

func (s Subsection) Option(key string) (SubPlanOption, bool) {
	for _, o := range s.Options {
		if o.Key == key {
			return o, true
		}
	}
	return SubPlanOption{}, false
}

// SortedOptions returns the sub-plan options ordered by key.
func (s Subsection) SortedOptions() []SubPlanOption {
	out := make([]SubPlanOption, len(s.Options))
	copy(out, s.Options)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// EntryKind discriminates the CourseEntry variants.
type EntryKind int

const (
	KindCourse EntryKind = iota + 1
	KindCombination
	KindOneOf
)

func (k EntryKind) String() string {
	switch k {
	case KindCourse:
		return "course"
	case KindCombination:
		return "combination"
	case KindOneOf:
		return "one_of"
	default:
		return "unknown"
	}
}

// CourseEntry is one item of a subsection's course list. The set of
// implementations is closed: CourseRef, Combination and OneOf.
type CourseEntry interface {
	Kind() EntryKind
	courseEntry()
}

type CourseRef struct {
	Code  string
	Title string
	Units decimal.Decimal
}

// Combination counts only when every member has been taken.
type Combination struct {
	Members []CourseRef
}

// OneOf is informational; the resolver never matches against it.
type OneOf struct {
	Options []CourseRef
}

func (CourseRef) Kind() EntryKind   { return KindCourse }
func (Combination) Kind() EntryKind { return KindCombination }
func (OneOf) Kind() EntryKind       { return KindOneOf }

func (CourseRef) courseEntry()   {}
func (Combination) courseEntry() {}
func (OneOf) courseEntry()       {}

func (c Combination) Contains(code string) bool {
	for _, m := range c.Members {
		if m.Code == code {
			return true
		}
	}
	return false
}

func (c Combination) Codes() []string {
	out := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		out = append(out, m.Code)
	}
	return out
}
