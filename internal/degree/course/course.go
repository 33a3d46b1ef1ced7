// Package course holds the student's course records as the fulfillment engine
// sees them: a code, a unit value and the requirements the course counts
// toward.
package course

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

const excessTitlePrefix = "Excess from "

type Course struct {
	Code       string          `json:"code"`
	Title      string          `json:"title"`
	Units      decimal.Decimal `json:"units"`
	Assignment reqid.Set       `json:"requirement_assignment,omitempty"`
	IsExcess   bool            `json:"is_excess_unit,omitempty"`
}

// NewExcess builds the synthetic record holding the units a course had left
// after filling the requirement named by label.
func NewExcess(code, label string, units decimal.Decimal) Course {
	return Course{
		Code:       code,
		Title:      ExcessTitle(label),
		Units:      units,
		Assignment: reqid.Set{reqid.Unassigned()},
		IsExcess:   true,
	}
}

func ExcessTitle(label string) string { return excessTitlePrefix + label }

func (c Course) Assigned() bool { return !c.Assignment.Empty() }

// Resolvable reports whether the resolver should look at the record at all.
func (c Course) Resolvable() bool {
	return c.Code != "" && !c.IsExcess && !c.Assigned()
}

func (c Course) Clone() Course {
	c.Assignment = c.Assignment.Clone()
	return c
}

// SameExcess is the dedup rule for excess records: code, title and units.
func (c Course) SameExcess(o Course) bool {
	return c.IsExcess && o.IsExcess && c.Code == o.Code && c.Title == o.Title && c.Units.Equal(o.Units)
}
