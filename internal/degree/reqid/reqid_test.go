package reqid

import (
	"encoding/json"
	"testing"
)

func TestPrefixTable(t *testing.T) {
	cases := []struct {
		slot int
		c    Combination
		want string
	}{
		{0, Major, "major1-"},
		{1, DoubleMajor, "major2-"},
		{1, MajorMinor, "minor-"},
		{0, Specialization, "specialization-"},
		{1, JointMajor, "joint2-"},
		{2, MajorMinor, "plan3-"},
		{0, Combination("unknown"), "plan1-"},
	}
	for _, tc := range cases {
		if got := Prefix(tc.slot, tc.c); got != tc.want {
			t.Fatalf("Prefix(%d, %s): want=%q got=%q", tc.slot, tc.c, tc.want, got)
		}
	}
	if DoubleMajor.Slots() != 2 || Combination("x").Slots() != 0 {
		t.Fatalf("Slots: unexpected counts")
	}
}

func TestStructuredKeysDoNotCollide(t *testing.T) {
	a := Requirement(0, "major1-", "Core", "A1")
	b := Requirement(0, "major1-", "CoreA", "1")
	if a == b {
		t.Fatalf("ids with equal canonical strings must stay distinct")
	}
	if a.String() != b.String() {
		t.Fatalf("canonical strings: want equal got %q vs %q", a.String(), b.String())
	}
}

func TestLabelAndString(t *testing.T) {
	id := NestedRequirement(0, "major1-", "Core", "B", "theory", "T")
	if id.String() != "major1-CoreB-theoryT" {
		t.Fatalf("String: got %q", id.String())
	}
	if id.Label() != "CoreB-theoryT" {
		t.Fatalf("Label: got %q", id.Label())
	}
	if Unassigned().String() != "Unassigned/Electives" {
		t.Fatalf("Unassigned: got %q", Unassigned().String())
	}
	if Electives(0, "").String() != "Electives" || Electives(1, "minor-").String() != "minor-Electives" {
		t.Fatalf("Electives: got %q / %q", Electives(0, "").String(), Electives(1, "minor-").String())
	}
	if !Requirement(1, "minor-", "Supporting Courses", "A").IsSupporting() {
		t.Fatalf("IsSupporting: want true")
	}
}

func TestSetAddIsOrderedAndDeduplicated(t *testing.T) {
	a := Requirement(0, "major1-", "Core", "A")
	b := Requirement(1, "major2-", "Supporting", "A")
	var s Set
	s2 := s.Add(a, b, a)
	if len(s) != 0 {
		t.Fatalf("Add mutated receiver")
	}
	if len(s2) != 2 || s2[0] != a || s2[1] != b {
		t.Fatalf("Add: got %v", s2.Join())
	}
	if s2.Join() != "major1-CoreA,major2-SupportingA" {
		t.Fatalf("Join: got %q", s2.Join())
	}
	if !s2.HasSupporting() {
		t.Fatalf("HasSupporting: want true")
	}
	if got := s2.Slots(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("Slots: got %v", got)
	}
}

func TestIDJSONRoundTripKeepsStructure(t *testing.T) {
	id := NestedRequirement(1, "minor-", "Core", "B", "x", "Y")
	raw, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back ID
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != id {
		t.Fatalf("round trip: want=%#v got=%#v", id, back)
	}
}
