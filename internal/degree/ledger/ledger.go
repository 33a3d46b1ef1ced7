// Package ledger tracks how far each requirement has been filled.
//
// A Ledger is a derived cache: it can always be rebuilt from the plan
// schemas, the course list and the override list. Operations that change a
// ledger are done on a Clone so callers keep their snapshot.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

type Entry struct {
	UnitsRequired  decimal.Decimal `json:"units_required"`
	UnitsCompleted decimal.Decimal `json:"units_completed"`
	// Course codes in the order they were credited.
	Courses []string `json:"courses"`
}

func (e Entry) Saturated() bool {
	return e.UnitsCompleted.GreaterThanOrEqual(e.UnitsRequired)
}

func (e Entry) Remaining() decimal.Decimal {
	return units.Remaining(e.UnitsRequired, e.UnitsCompleted)
}

func (e Entry) clone() Entry {
	if e.Courses != nil {
		c := make([]string, len(e.Courses))
		copy(c, e.Courses)
		e.Courses = c
	}
	return e
}

// Ledger is an insertion-ordered map from requirement to Entry. The zero
// value is empty and ready to use.
type Ledger struct {
	order   []reqid.ID
	entries map[reqid.ID]Entry
}

func New() *Ledger {
	return &Ledger{entries: map[reqid.ID]Entry{}}
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Keys returns requirement ids in insertion order.
func (l *Ledger) Keys() []reqid.ID {
	if l == nil {
		return nil
	}
	out := make([]reqid.ID, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Ledger) Get(id reqid.ID) (Entry, bool) {
	if l == nil || l.entries == nil {
		return Entry{}, false
	}
	e, ok := l.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

func (l *Ledger) Has(id reqid.ID) bool {
	_, ok := l.Get(id)
	return ok
}

// Put inserts or replaces an entry. A new id goes to the end of the order.
func (l *Ledger) Put(id reqid.ID, e Entry) {
	if l.entries == nil {
		l.entries = map[reqid.ID]Entry{}
	}
	if _, ok := l.entries[id]; !ok {
		l.order = append(l.order, id)
	}
	l.entries[id] = e.clone()
}

// Ensure creates an empty entry for id with the given requirement when none
// exists yet, and returns the current entry.
func (l *Ledger) Ensure(id reqid.ID, required decimal.Decimal) Entry {
	if e, ok := l.Get(id); ok {
		return e
	}
	e := Entry{UnitsRequired: required, UnitsCompleted: decimal.Zero, Courses: []string{}}
	l.Put(id, e)
	return e
}

// Credit adds units and the course code to an existing entry, creating an
// uncapped one if needed.
func (l *Ledger) Credit(id reqid.ID, code string, amount decimal.Decimal) {
	e := l.Ensure(id, decimal.Zero)
	e.UnitsCompleted = e.UnitsCompleted.Add(amount)
	e.Courses = append(e.Courses, code)
	l.Put(id, e)
}

func (l *Ledger) Saturated(id reqid.ID) bool {
	e, ok := l.Get(id)
	return ok && e.Saturated()
}

func (l *Ledger) Delete(id reqid.ID) {
	if l == nil || l.entries == nil {
		return
	}
	if _, ok := l.entries[id]; !ok {
		return
	}
	delete(l.entries, id)
	for i, k := range l.order {
		if k == id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
}

// DeleteWhere removes every entry whose id matches pred.
func (l *Ledger) DeleteWhere(pred func(reqid.ID) bool) {
	if l == nil {
		return
	}
	kept := l.order[:0:0]
	for _, id := range l.order {
		if pred(id) {
			delete(l.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	l.order = kept
}

// Merge copies other's entries into l in other's order. Keys are prefix
// disambiguated per plan so merging plan ledgers never collides.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		l.Put(id, other.entries[id])
	}
}

func (l *Ledger) Clone() *Ledger {
	out := New()
	if l == nil {
		return out
	}
	out.order = make([]reqid.ID, len(l.order))
	copy(out.order, l.order)
	for k, v := range l.entries {
		out.entries[k] = v.clone()
	}
	return out
}

// TotalCompleted sums UnitsCompleted over every entry.
func (l *Ledger) TotalCompleted() decimal.Decimal {
	total := decimal.Zero
	if l == nil {
		return total
	}
	for _, id := range l.order {
		total = total.Add(l.entries[id].UnitsCompleted)
	}
	return total
}

// Equal compares order and content.
func (l *Ledger) Equal(o *Ledger) bool {
	if l.Len() != o.Len() {
		return false
	}
	for i, id := range l.order {
		if o.order[i] != id {
			return false
		}
		a, b := l.entries[id], o.entries[id]
		if !a.UnitsRequired.Equal(b.UnitsRequired) || !a.UnitsCompleted.Equal(b.UnitsCompleted) {
			return false
		}
		if len(a.Courses) != len(b.Courses) {
			return false
		}
		for j := range a.Courses {
			if a.Courses[j] != b.Courses[j] {
				return false
			}
		}
	}
	return true
}
