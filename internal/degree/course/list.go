package course

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

// List is an ordered list of course records. Position matters: overrides
// refer to courses by index.
type List []Course

func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, c := range l {
		out[i] = c.Clone()
	}
	return out
}

// HasCode reports whether a real (non-excess) record with code exists.
func (l List) HasCode(code string) bool {
	for _, c := range l {
		if !c.IsExcess && c.Code == code {
			return true
		}
	}
	return false
}

func (l List) HasExcess(rec Course) bool {
	for _, c := range l {
		if c.SameExcess(rec) {
			return true
		}
	}
	return false
}

// Split separates real records from excess records, keeping relative order.
func (l List) Split() (taken, excess List) {
	for _, c := range l {
		if c.IsExcess {
			excess = append(excess, c.Clone())
		} else {
			taken = append(taken, c.Clone())
		}
	}
	return taken, excess
}

// FindInstance returns the index of the first non-excess record with code
// that does not already carry id and is either unassigned or equal to prefer.
// It returns -1 when there is none.
func (l List) FindInstance(code string, id reqid.ID, prefer int) int {
	if prefer >= 0 && prefer < len(l) {
		c := l[prefer]
		if !c.IsExcess && c.Code == code && !c.Assignment.Contains(id) {
			return prefer
		}
	}
	for i, c := range l {
		if c.IsExcess || c.Code != code || c.Assignment.Contains(id) {
			continue
		}
		if c.Assigned() {
			continue
		}
		return i
	}
	return -1
}

func (l List) TotalUnits() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l {
		total = total.Add(c.Units)
	}
	return total
}
