package schema

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

// ErrPlanNotParsed marks a plan whose requirement units do not add up to its
// declared total. Such a plan must not be locked in.
var ErrPlanNotParsed = errors.New("plan not parsed correctly")

var (
	decimalUnitsRe = regexp.MustCompile(`(?i)(\d+\.\d+)\s*units`)
	subPlanTitleRe = regexp.MustCompile(`(?i)complete\s+one\s+of\s+the\s+following\s+sub-plans`)
)

// UnitsRequired derives how many units a subsection asks for. The order is
// fixed: a decimal "N.NN units" phrase in the title wins, then the sub-plan
// phrase (cheapest option), then the sum of the listed courses, else zero.
func (s Subsection) UnitsRequired() decimal.Decimal {
	if m := decimalUnitsRe.FindStringSubmatch(s.Title); m != nil {
		return units.Parse(m[1])
	}
	if subPlanTitleRe.MatchString(s.Title) {
		if len(s.Options) == 0 {
			return decimal.Zero
		}
		best := s.Options[0].UnitsRequired()
		for _, o := range s.Options[1:] {
			best = units.Min(best, o.UnitsRequired())
		}
		return best
	}
	if len(s.Courses) > 0 {
		total := decimal.Zero
		for _, e := range s.Courses {
			total = total.Add(EntryUnits(e))
		}
		return total
	}
	return decimal.Zero
}

// UnitsRequired of an option is the sum over its nested subsections.
func (o SubPlanOption) UnitsRequired() decimal.Decimal {
	total := decimal.Zero
	for _, sub := range o.Subsections {
		total = total.Add(sub.UnitsRequired())
	}
	return total
}

// EntryUnits is what one course entry contributes to a summed requirement. A
// one-of group contributes its cheapest option.
func EntryUnits(e CourseEntry) decimal.Decimal {
	switch v := e.(type) {
	case CourseRef:
		return v.Units
	case Combination:
		total := decimal.Zero
		for _, m := range v.Members {
			total = total.Add(m.Units)
		}
		return total
	case OneOf:
		if len(v.Options) == 0 {
			return decimal.Zero
		}
		best := v.Options[0].Units
		for _, o := range v.Options[1:] {
			best = units.Min(best, o.Units)
		}
		return best
	default:
		return decimal.Zero
	}
}

// RequiredTotal sums the top-level subsection requirements plus the elective
// allowance.
func (p *Plan) RequiredTotal() decimal.Decimal {
	total := p.Electives
	for _, sec := range p.Sections {
		for _, sub := range sec.Subsections {
			total = total.Add(sub.UnitsRequired())
		}
	}
	return total
}

// Validate checks that a plan reconciles with its declared unit total. Plans
// that declare no total are accepted as-is.
func Validate(p *Plan) error {
	if p == nil {
		return fmt.Errorf("nil plan: %w", ErrPlanNotParsed)
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("plan %q has no sections: %w", p.Title, ErrPlanNotParsed)
	}
	seen := map[string]bool{}
	for _, sec := range p.Sections {
		for _, sub := range sec.Subsections {
			if sub.ID == "" {
				return fmt.Errorf("plan %q section %q: subsection without id: %w", p.Title, sec.Key, ErrPlanNotParsed)
			}
			k := sec.Key + "/" + sub.ID
			if seen[k] {
				return fmt.Errorf("plan %q: duplicate subsection %s: %w", p.Title, k, ErrPlanNotParsed)
			}
			seen[k] = true
		}
	}
	if p.Units.IsZero() {
		return nil
	}
	if got := p.RequiredTotal(); !got.Equal(p.Units) {
		return fmt.Errorf("plan %q requires %s units but declares %s: %w", p.Title, got, p.Units, ErrPlanNotParsed)
	}
	return nil
}
