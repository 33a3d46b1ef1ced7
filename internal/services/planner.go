package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/degreeplan-backend/internal/catalog"
	"github.com/yungbote/degreeplan-backend/internal/data/repos"
	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/fulfill"
	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/observability"
	"github.com/yungbote/degreeplan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/degreeplan-backend/internal/pkg/errors"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
	"github.com/yungbote/degreeplan-backend/internal/realtime"
	"github.com/yungbote/degreeplan-backend/internal/realtime/bus"
)

// ErrSuperseded is returned when another edit of the same planner landed
// while this one was being computed. The newer state is kept.
var ErrSuperseded = fmt.Errorf("superseded by a newer edit: %w", pkgerrors.ErrConflict)

// CourseCatalog hydrates raw course codes into course records.
type CourseCatalog interface {
	Hydrate(codes ...string) (course.List, error)
}

type PlannerService interface {
	Load(ctx context.Context, studentID string) (*PlannerSnapshot, error)
	LockPlans(ctx context.Context, studentID string, combination reqid.Combination, identifiers []string) (*PlannerSnapshot, error)
	AddCourses(ctx context.Context, studentID string, codes ...string) (*PlannerSnapshot, error)
	RemoveCourse(ctx context.Context, studentID string, index int) (*PlannerSnapshot, error)
	SelectSubPlan(ctx context.Context, studentID string, slot int, sel *fulfill.Selection) (*PlannerSnapshot, error)
	Override(ctx context.Context, studentID string, index int, ids ...reqid.ID) (*PlannerSnapshot, error)
	Recompute(ctx context.Context, studentID string) (*PlannerSnapshot, error)
	// Save hands the current snapshot to the save queue.
	Save(ctx context.Context, studentID string) error
	// Persist writes the current snapshot synchronously.
	Persist(ctx context.Context, studentID string) error
	// Queue is the background save queue, nil when saves are synchronous.
	Queue() *SaveQueue
	// Listen subscribes to other instances' saves and reloads sessions
	// they made stale.
	Listen(ctx context.Context) error
}

type plannerSession struct {
	snap *PlannerSnapshot
	gen  uint64
	// stale is set when another instance saved a newer version; the next
	// checkout reloads from storage.
	stale bool
}

type plannerService struct {
	log     *logger.Logger
	states  repos.PlannerStateRepo
	plans   catalog.Source
	courses CourseCatalog
	queue   *SaveQueue
	events  bus.Bus
	// instance tags this process's events.
	instance string

	mu       sync.Mutex
	sessions map[string]*plannerSession
}

// NewPlannerService wires the planner. events may be nil for a single
// instance. queueSize bounds the number of students with a pending save; 0
// disables the queue and Save persists inline.
func NewPlannerService(baseLog *logger.Logger, states repos.PlannerStateRepo, plans catalog.Source, courses CourseCatalog, events bus.Bus, queueSize int) PlannerService {
	s := &plannerService{
		log:      baseLog.With("service", "PlannerService"),
		states:   states,
		plans:    plans,
		courses:  courses,
		events:   events,
		instance: uuid.New().String(),
		sessions: map[string]*plannerSession{},
	}
	if queueSize > 0 {
		s.queue = NewSaveQueue(baseLog, queueSize, s.persistSnapshot)
	}
	return s
}

func (s *plannerService) Queue() *SaveQueue { return s.queue }

func (s *plannerService) Listen(ctx context.Context) error {
	if s.events == nil {
		return nil
	}
	return s.events.StartForwarder(ctx, s.onEvent)
}

func (s *plannerService) onEvent(ev realtime.PlannerEvent) {
	if ev.Origin == s.instance {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[ev.StudentID]
	if !ok || sess.stale || sess.snap.Version >= ev.Version {
		return
	}
	sess.stale = true
	sess.gen++
	s.log.Debug("marked planner session stale", "student_id", ev.StudentID, "local_version", sess.snap.Version, "version", ev.Version)
}

func (s *plannerService) Load(ctx context.Context, studentID string) (*PlannerSnapshot, error) {
	snap, _, err := s.checkout(ctx, studentID)
	return snap, err
}

func (s *plannerService) LockPlans(ctx context.Context, studentID string, combination reqid.Combination, identifiers []string) (*PlannerSnapshot, error) {
	return s.mutate(ctx, "lock_plans", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		schemas, err := s.fetchPlans(ctx, identifiers)
		if err != nil {
			return nil, err
		}
		locked, err := fulfill.LockPlans(combination, schemas)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err)
		}
		snap.Combination = combination
		snap.FieldLinks = append([]string(nil), identifiers...)
		snap.Plans = locked
		snap.SubPlans = make([]*fulfill.Selection, len(locked))
		snap.SectionNames = make([][]string, len(locked))
		for i, lp := range locked {
			snap.SectionNames[i] = sectionNames(lp.Plan)
		}
		// Requirement ids change with the plans, so old overrides are void.
		snap.Overrides = nil
		return s.recompute(snap), nil
	})
}

// AddCourses hydrates codes from the catalog and resolves each new course
// against the current ledger. Unknown codes fail the whole call.
func (s *plannerService) AddCourses(ctx context.Context, studentID string, codes ...string) (*PlannerSnapshot, error) {
	added, err := s.courses.Hydrate(codes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err)
	}
	return s.mutate(ctx, "add_courses", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		res := fulfill.Result{Courses: snap.Courses, Ledger: snap.Ledger}
		for _, c := range added {
			res.Courses = append(res.Courses.Clone(), c)
			res = fulfill.Resolve(fulfill.ResolveInput{
				Index:       len(res.Courses) - 1,
				Courses:     res.Courses,
				Plans:       snap.Plans,
				Ledger:      res.Ledger,
				Combination: snap.Combination,
			})
		}
		snap.Courses, snap.Ledger = res.Courses, res.Ledger
		return snap, nil
	})
}

func (s *plannerService) RemoveCourse(ctx context.Context, studentID string, index int) (*PlannerSnapshot, error) {
	return s.mutate(ctx, "remove_course", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		if index < 0 || index >= len(snap.Courses) {
			return nil, fmt.Errorf("course index %d: %w", index, pkgerrors.ErrInvalidArgument)
		}
		for _, i := range removalSet(snap.Courses, index) {
			snap.Courses = append(snap.Courses[:i:i], snap.Courses[i+1:]...)
			snap.Overrides = fulfill.ShiftOverrides(snap.Overrides, i)
		}
		return s.recompute(snap), nil
	})
}

// removalSet lists, highest first, the indices dropped with the course at
// index: the course itself and, once no other record of the code is left,
// the excess records split off it.
func removalSet(courses course.List, index int) []int {
	out := []int{index}
	target := courses[index]
	if !target.IsExcess {
		for i, c := range courses {
			if i != index && !c.IsExcess && c.Code == target.Code {
				return out
			}
		}
		for i, c := range courses {
			if c.IsExcess && c.Code == target.Code {
				out = append(out, i)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func (s *plannerService) SelectSubPlan(ctx context.Context, studentID string, slot int, sel *fulfill.Selection) (*PlannerSnapshot, error) {
	return s.mutate(ctx, "select_sub_plan", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		res, err := fulfill.SelectSubPlan(fulfill.SubPlanInput{
			Plans:       snap.Plans,
			Combination: snap.Combination,
			Slot:        slot,
			Selection:   sel,
			Ledger:      snap.Ledger,
			Courses:     snap.Courses,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err)
		}
		snap.Plans, snap.Ledger, snap.Courses = res.Plans, res.Ledger, res.Courses
		for i, lp := range snap.Plans {
			if i < len(snap.SubPlans) {
				snap.SubPlans[i] = lp.Selection
			}
		}
		return s.recompute(snap), nil
	})
}

func (s *plannerService) Override(ctx context.Context, studentID string, index int, ids ...reqid.ID) (*PlannerSnapshot, error) {
	return s.mutate(ctx, "override", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		next, err := fulfill.AddOverride(snap.Overrides, snap.Courses, index, ids...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err)
		}
		snap.Overrides = next
		return s.recompute(snap), nil
	})
}

func (s *plannerService) Recompute(ctx context.Context, studentID string) (*PlannerSnapshot, error) {
	return s.mutate(ctx, "recompute", studentID, func(ctx context.Context, snap *PlannerSnapshot) (*PlannerSnapshot, error) {
		return s.recompute(snap), nil
	})
}

func (s *plannerService) recompute(snap *PlannerSnapshot) *PlannerSnapshot {
	res := fulfill.Recompute(fulfill.RecomputeInput{
		Courses:     snap.Courses,
		Plans:       snap.Plans,
		Combination: snap.Combination,
		Overrides:   snap.Overrides,
	})

	// Recompute moves real courses ahead of excess records, so surviving
	// overrides are re-pointed. Skipped ones come back in override order.
	position := make(map[int]int, len(snap.Courses))
	n := 0
	for i, c := range snap.Courses {
		if !c.IsExcess {
			position[i] = n
			n++
		}
	}
	kept := make([]fulfill.Override, 0, len(snap.Overrides))
	j := 0
	for _, o := range snap.Overrides {
		if j < len(res.Skipped) && sameOverride(res.Skipped[j].Override, o) {
			s.log.Warn("override dropped", "student_id", snap.StudentID, "course_index", o.CourseIndex, "code", o.Course.Code, "reason", res.Skipped[j].Reason)
			observability.Current().IncOverrideDropped()
			j++
			continue
		}
		o.CourseIndex = position[o.CourseIndex]
		kept = append(kept, o)
	}
	snap.Overrides = kept
	for _, x := range res.Stale {
		s.log.Debug("stale excess record dropped", "student_id", snap.StudentID, "code", x.Code, "title", x.Title, "units", x.Units.String())
	}
	snap.Courses, snap.Ledger = res.Courses, res.Ledger
	return snap
}

func sameOverride(a, b fulfill.Override) bool {
	return a.CourseIndex == b.CourseIndex && a.Course.Code == b.Course.Code && a.Course.Assignment.Equal(b.Course.Assignment)
}

func (s *plannerService) Save(ctx context.Context, studentID string) error {
	if s.queue == nil {
		return s.Persist(ctx, studentID)
	}
	snap, _, err := s.checkout(ctx, studentID)
	if err != nil {
		return err
	}
	return s.queue.Enqueue(snap)
}

func (s *plannerService) Persist(ctx context.Context, studentID string) error {
	snap, _, err := s.checkout(ctx, studentID)
	if err != nil {
		return err
	}
	return s.persistSnapshot(ctx, snap)
}

// persistSnapshot writes snap with the session's current version, so a
// queued snapshot taken before an earlier save still lands.
func (s *plannerService) persistSnapshot(ctx context.Context, snap *PlannerSnapshot) error {
	s.mu.Lock()
	version := snap.Version
	if sess, ok := s.sessions[snap.StudentID]; ok {
		version = sess.snap.Version
	}
	s.mu.Unlock()

	st, err := toState(snap, version)
	if err != nil {
		return err
	}
	saved, err := s.states.Upsert(dbctx.Context{Ctx: ctx}, st)
	if err != nil {
		observability.Current().IncSave("error")
		return fmt.Errorf("save planner state: %w", err)
	}
	observability.Current().IncSave("ok")

	s.mu.Lock()
	if sess, ok := s.sessions[snap.StudentID]; ok && saved.Version > sess.snap.Version {
		sess.snap.Version = saved.Version
	}
	s.mu.Unlock()
	s.log.Debug("planner state saved", "student_id", snap.StudentID, "version", saved.Version)

	if s.events != nil {
		ev := realtime.PlannerEvent{StudentID: snap.StudentID, Version: saved.Version, Origin: s.instance}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("publish planner event failed", "student_id", snap.StudentID, "error", err)
		}
	}
	return nil
}

// checkout returns a private copy of the student's session and the
// generation it was taken at, loading the session on first use.
func (s *plannerService) checkout(ctx context.Context, studentID string) (*PlannerSnapshot, uint64, error) {
	if studentID == "" {
		return nil, 0, fmt.Errorf("student id required: %w", pkgerrors.ErrInvalidArgument)
	}
	s.mu.Lock()
	if sess, ok := s.sessions[studentID]; ok && !sess.stale {
		defer s.mu.Unlock()
		return sess.snap.Clone(), sess.gen, nil
	}
	s.mu.Unlock()

	loaded, err := s.loadSnapshot(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	switch {
	case !ok:
		sess = &plannerSession{snap: loaded}
		s.sessions[studentID] = sess
	case sess.stale:
		// gen was bumped when the session went stale, so edits checked out
		// before the reload cannot commit over it.
		sess.snap = loaded
		sess.snap.Generation = sess.gen
		sess.stale = false
	}
	return sess.snap.Clone(), sess.gen, nil
}

// mutate runs fn on a private copy and installs the result unless the
// session moved on in the meantime.
func (s *plannerService) mutate(ctx context.Context, op, studentID string, fn func(context.Context, *PlannerSnapshot) (*PlannerSnapshot, error)) (out *PlannerSnapshot, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		switch {
		case errors.Is(err, ErrSuperseded):
			status = "superseded"
		case err != nil:
			status = "error"
		}
		observability.Current().ObservePlannerOp(op, time.Since(start), status)
	}()

	snap, gen, err := s.checkout(ctx, studentID)
	if err != nil {
		return nil, err
	}
	next, err := fn(ctx, snap)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || sess.gen != gen {
		s.log.Debug("discarding stale planner result", "student_id", studentID, "op", op, "generation", gen)
		return nil, ErrSuperseded
	}
	sess.gen++
	next.Generation = sess.gen
	next.Version = sess.snap.Version
	sess.snap = next
	return next.Clone(), nil
}

func (s *plannerService) loadSnapshot(ctx context.Context, studentID string) (*PlannerSnapshot, error) {
	st, err := s.states.GetByStudentID(dbctx.Context{Ctx: ctx}, studentID)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return emptySnapshot(studentID), nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := fromState(st)
	if err != nil {
		return nil, fmt.Errorf("planner state for %s: %w", studentID, err)
	}
	if len(snap.FieldLinks) == 0 {
		return snap, nil
	}

	schemas, err := s.fetchPlans(ctx, snap.FieldLinks)
	if err != nil {
		return nil, err
	}
	locked, err := fulfill.LockPlans(snap.Combination, schemas)
	if err != nil {
		return nil, fmt.Errorf("stored plans no longer lock: %w", err)
	}
	for i := range locked {
		if i < len(snap.SubPlans) {
			locked[i].Selection = snap.SubPlans[i]
		}
	}
	snap.Plans = locked
	return snap, nil
}

// fetchPlans loads every slot's schema concurrently, keeping slot order.
func (s *plannerService) fetchPlans(ctx context.Context, identifiers []string) ([]*schema.Plan, error) {
	out := make([]*schema.Plan, len(identifiers))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range identifiers {
		i, id := i, id
		g.Go(func() error {
			p, err := s.plans.Plan(gctx, id)
			if err != nil {
				return fmt.Errorf("slot %d (%s): %w", i, id, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
