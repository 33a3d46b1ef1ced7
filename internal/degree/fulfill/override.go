package fulfill

import (
	"fmt"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

// Override is a manual assignment the user forced onto one course. Course is
// the snapshot taken when the override was made, with the forced assignment.
type Override struct {
	CourseIndex int           `json:"course_index"`
	Course      course.Course `json:"course"`
}

// AddOverride records a forced assignment for courses[index]. An earlier
// override of the same index is replaced and the new one goes last.
func AddOverride(overrides []Override, courses course.List, index int, ids ...reqid.ID) ([]Override, error) {
	if index < 0 || index >= len(courses) {
		return overrides, fmt.Errorf("course index %d out of range: %w", index, ErrInvalidOverride)
	}
	target := courses[index]
	if target.IsExcess {
		return overrides, fmt.Errorf("course %d is an excess record: %w", index, ErrInvalidOverride)
	}
	var set reqid.Set
	set = set.Add(ids...)
	if set.Empty() {
		return overrides, fmt.Errorf("no requirement given: %w", ErrInvalidOverride)
	}
	snap := target.Clone()
	snap.Assignment = set

	out := make([]Override, 0, len(overrides)+1)
	for _, o := range overrides {
		if o.CourseIndex != index {
			out = append(out, o)
		}
	}
	return append(out, Override{CourseIndex: index, Course: snap}), nil
}

// ShiftOverrides adjusts overrides after the course at removed was deleted
// from the list: its own override goes away and later indices move down.
func ShiftOverrides(overrides []Override, removed int) []Override {
	out := make([]Override, 0, len(overrides))
	for _, o := range overrides {
		switch {
		case o.CourseIndex == removed:
			continue
		case o.CourseIndex > removed:
			o.CourseIndex--
		}
		out = append(out, o)
	}
	return out
}

// SkippedOverride reports an override that no longer fits the course list.
type SkippedOverride struct {
	Override Override
	Reason   string
}

// validOverride checks an override against the list it is replayed on.
func validOverride(o Override, courses course.List) (string, bool) {
	switch {
	case o.CourseIndex < 0 || o.CourseIndex >= len(courses):
		return "course index out of range", false
	case courses[o.CourseIndex].IsExcess:
		return "course is an excess record", false
	case courses[o.CourseIndex].Code != o.Course.Code:
		return fmt.Sprintf("course code changed from %s to %s", o.Course.Code, courses[o.CourseIndex].Code), false
	case o.Course.Assignment.Empty():
		return "no requirement recorded", false
	}
	return "", true
}
