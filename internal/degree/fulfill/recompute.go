package fulfill

import (
	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/ledger"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

type RecomputeInput struct {
	Courses     course.List
	Plans       []LockedPlan
	Combination reqid.Combination
	Overrides   []Override
}

type RecomputeResult struct {
	Courses course.List
	Ledger  *ledger.Ledger
	// Skipped lists overrides that no longer matched the course list.
	Skipped []SkippedOverride
	// Stale lists input excess records the run no longer derives.
	Stale course.List
}

// Recompute rebuilds every assignment and the ledger from the plans, the raw
// course list and the overrides. The steps run strictly in order:
//
//  1. fresh ledger for every locked plan plus the elective buckets
//  2. real courses lose their assignment, excess records are set aside
//  3. overrides are replayed in order and seed the ledger
//  4. every unassigned course is resolved in list order, then the
//     supporting cross-reference pass runs
//  5. the run's excess splits are appended and credited to the catch-all
//     bucket; a set-aside record survives only if the run derived it again
//
// Output depends only on the inputs, so running it twice is a no-op.
func Recompute(in RecomputeInput) RecomputeResult {
	l := BuildLedger(in.Plans, in.Combination)

	working := make(course.List, 0, len(in.Courses))
	var setAside course.List
	position := make(map[int]int, len(in.Courses))
	for i, c := range in.Courses {
		if c.IsExcess {
			setAside = append(setAside, c.Clone())
			continue
		}
		c = c.Clone()
		c.Assignment = nil
		position[i] = len(working)
		working = append(working, c)
	}

	pinned, skipped := replayOverrides(in.Overrides, in.Courses, position, working, l)

	r := newResolver(working, in.Plans, l, in.Combination, nil, true)
	for i := range r.courses {
		r.resolve(i)
	}
	crossReference(r.courses, in.Plans, l, in.Combination, pinned)

	excess, stale := reconcileExcess(setAside, r.newExcess)
	out := make(course.List, 0, len(r.courses)+len(excess))
	out = append(out, r.courses...)
	for _, x := range excess {
		out = append(out, x)
		l.Credit(reqid.Unassigned(), x.Code, x.Units)
	}
	return RecomputeResult{Courses: out, Ledger: l, Skipped: skipped, Stale: stale}
}

// reconcileExcess matches each derived split against at most one set-aside
// record. Matched splits take the record's input position and the others
// follow in the order they were made. Unmatched set-aside records are stale.
func reconcileExcess(setAside, derived course.List) (excess, stale course.List) {
	used := make([]bool, len(derived))
	for _, old := range setAside {
		match := -1
		for j, d := range derived {
			if !used[j] && d.SameExcess(old) {
				match = j
				break
			}
		}
		if match < 0 {
			stale = append(stale, old)
			continue
		}
		used[match] = true
		excess = append(excess, derived[match])
	}
	for j, d := range derived {
		if !used[j] {
			excess = append(excess, d)
		}
	}
	return excess, stale
}

// replayOverrides forces each override's assignment onto its course. When an
// index is overridden more than once the last one wins.
func replayOverrides(overrides []Override, original course.List, position map[int]int, working course.List, l *ledger.Ledger) (map[int]bool, []SkippedOverride) {
	last := map[int]int{}
	for i, o := range overrides {
		last[o.CourseIndex] = i
	}
	pinned := map[int]bool{}
	var skipped []SkippedOverride
	for i, o := range overrides {
		if last[o.CourseIndex] != i {
			skipped = append(skipped, SkippedOverride{Override: o, Reason: "superseded by a later override"})
			continue
		}
		if reason, ok := validOverride(o, original); !ok {
			skipped = append(skipped, SkippedOverride{Override: o, Reason: reason})
			continue
		}
		w := position[o.CourseIndex]
		c := working[w]
		for _, id := range o.Course.Assignment {
			// Unknown ids get an uncapped entry.
			l.Credit(id, c.Code, c.Units)
		}
		working[w].Assignment = o.Course.Assignment.Clone()
		pinned[w] = true
	}
	return pinned, skipped
}
