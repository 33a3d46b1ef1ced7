package reqid

import "strings"

// Set is an insertion-ordered, duplicate-free list of requirement ids. A nil
// or empty Set means "unassigned".
type Set []ID

func (s Set) Empty() bool { return len(s) == 0 }

func (s Set) Contains(id ID) bool {
	for _, x := range s {
		if x == id {
			return true
		}
	}
	return false
}

// Add returns s with id appended unless already present. s is not modified.
func (s Set) Add(ids ...ID) Set {
	out := s.Clone()
	for _, id := range ids {
		if id.IsZero() || out.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

func (s Set) HasSupporting() bool {
	for _, id := range s {
		if id.IsSupporting() {
			return true
		}
	}
	return false
}

// Slots lists the distinct plan slots the set touches.
func (s Set) Slots() []int {
	var out []int
	seen := map[int]bool{}
	for _, id := range s {
		if id.IsUnassigned() || seen[id.Slot] {
			continue
		}
		seen[id.Slot] = true
		out = append(out, id.Slot)
	}
	return out
}

// Join renders the comma-joined canonical form.
func (s Set) Join() string {
	parts := make([]string, 0, len(s))
	for _, id := range s {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}
