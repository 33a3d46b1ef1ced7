package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yungbote/degreeplan-backend/internal/observability"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

var (
	ErrQueueFull   = errors.New("save queue full")
	ErrQueueClosed = errors.New("save queue closed")
)

type SaveFunc func(ctx context.Context, snap *PlannerSnapshot) error

// SaveQueue persists planner snapshots off the request path. Snapshots for
// the same student coalesce: only the newest pending one is written. One
// worker drains the queue in arrival order.
type SaveQueue struct {
	log      *logger.Logger
	save     SaveFunc
	capacity int

	maxAttempts int
	retryDelay  time.Duration

	mu       sync.Mutex
	pending  map[string]*PlannerSnapshot
	order    []string
	inflight int
	closed   bool
	started  bool
	waiters  []chan struct{}

	wake chan struct{}
	done chan struct{}
}

func NewSaveQueue(baseLog *logger.Logger, capacity int, save SaveFunc) *SaveQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &SaveQueue{
		log:         baseLog.With("component", "SaveQueue"),
		save:        save,
		capacity:    capacity,
		maxAttempts: 3,
		retryDelay:  250 * time.Millisecond,
		pending:     map[string]*PlannerSnapshot{},
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start launches the worker. It stops when ctx ends or after Close once the
// queue is empty.
func (q *SaveQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	q.log.Info("Starting save queue", "capacity", q.capacity)
	go q.run(ctx)
}

func (q *SaveQueue) Enqueue(snap *PlannerSnapshot) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if _, ok := q.pending[snap.StudentID]; !ok {
		if len(q.order) >= q.capacity {
			return ErrQueueFull
		}
		q.order = append(q.order, snap.StudentID)
	}
	q.pending[snap.StudentID] = snap.Clone()
	observability.Current().SetSaveQueueDepth(len(q.order))
	q.signal()
	return nil
}

// Pending reports how many students have a save waiting.
func (q *SaveQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Drain blocks until every queued snapshot has been handled.
func (q *SaveQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.idleLocked() {
		q.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and waits for the worker to write what is left.
func (q *SaveQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	started := q.started
	left := len(q.order)
	q.signal()
	q.mu.Unlock()

	if !started {
		if left > 0 {
			q.log.Warn("save queue closed before start", "dropped", left)
		}
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *SaveQueue) run(ctx context.Context) {
	defer close(q.done)
	for {
		snap, closed := q.next()
		if snap == nil {
			if closed {
				q.log.Info("Save queue stopped")
				return
			}
			select {
			case <-ctx.Done():
				q.log.Info("Save queue stopped", "pending", q.Pending())
				return
			case <-q.wake:
			}
			continue
		}
		q.write(ctx, snap)
		q.finish()
	}
}

func (q *SaveQueue) write(ctx context.Context, snap *PlannerSnapshot) {
	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if err = q.save(ctx, snap); err == nil {
			return
		}
		q.log.Warn("planner save failed", "student_id", snap.StudentID, "attempt", attempt, "error", err)
		if attempt == q.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
	q.log.Error("planner save abandoned", "student_id", snap.StudentID, "error", err)
}

func (q *SaveQueue) next() (*PlannerSnapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return nil, q.closed
	}
	id := q.order[0]
	q.order = q.order[1:]
	snap := q.pending[id]
	delete(q.pending, id)
	q.inflight++
	observability.Current().SetSaveQueueDepth(len(q.order))
	return snap, false
}

func (q *SaveQueue) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.idleLocked() {
		for _, w := range q.waiters {
			close(w)
		}
		q.waiters = nil
	}
}

func (q *SaveQueue) idleLocked() bool {
	return len(q.order) == 0 && q.inflight == 0
}

func (q *SaveQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
