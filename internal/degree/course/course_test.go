package course

import (
	"testing"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
)

func TestNewExcess(t *testing.T) {
	e := NewExcess("MATH110", "CoreA", units.New(1))
	if e.Title != "Excess from CoreA" || !e.IsExcess {
		t.Fatalf("NewExcess: got %+v", e)
	}
	if len(e.Assignment) != 1 || !e.Assignment[0].IsUnassigned() {
		t.Fatalf("excess must route to the unassigned bucket, got %s", e.Assignment.Join())
	}
	if e.Resolvable() {
		t.Fatalf("excess records are never resolvable")
	}
}

func TestListHelpers(t *testing.T) {
	id := reqid.Requirement(0, "major1-", "Core", "A")
	l := List{
		{Code: "A", Units: units.New(3), Assignment: reqid.Set{id}},
		{Code: "A", Units: units.New(3)},
		NewExcess("B", "CoreA", units.New(1)),
	}
	if !l.HasCode("A") || l.HasCode("B") {
		t.Fatalf("HasCode: excess records must not count")
	}
	if !l.HasExcess(NewExcess("B", "CoreA", units.New(1))) || l.HasExcess(NewExcess("B", "CoreA", units.New(2))) {
		t.Fatalf("HasExcess: dedup must compare code, title and units")
	}
	if got := l.FindInstance("A", id, -1); got != 1 {
		t.Fatalf("FindInstance: want=1 got=%d", got)
	}
	if got := l.FindInstance("A", id, 0); got != 1 {
		t.Fatalf("FindInstance prefer already carrying id: want=1 got=%d", got)
	}
	taken, excess := l.Split()
	if len(taken) != 2 || len(excess) != 1 {
		t.Fatalf("Split: got %d/%d", len(taken), len(excess))
	}
	if !l.TotalUnits().Equal(units.New(7)) {
		t.Fatalf("TotalUnits: got %s", l.TotalUnits())
	}
}

func TestCloneIsDeep(t *testing.T) {
	id := reqid.Requirement(0, "major1-", "Core", "A")
	l := List{{Code: "A", Assignment: reqid.Set{id}}}
	c := l.Clone()
	c[0].Assignment[0] = reqid.Unassigned()
	if l[0].Assignment[0] != id {
		t.Fatalf("Clone shares assignment storage")
	}
}
