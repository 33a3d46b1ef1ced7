package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type recordingSaver struct {
	mu    sync.Mutex
	saved []string
	gens  map[string]uint64
	fails int
	gate  chan struct{}
}

func (r *recordingSaver) save(ctx context.Context, snap *PlannerSnapshot) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("database unavailable")
	}
	r.saved = append(r.saved, snap.StudentID)
	if r.gens == nil {
		r.gens = map[string]uint64{}
	}
	r.gens[snap.StudentID] = snap.Generation
	return nil
}

func TestSaveQueueCoalescesPerStudent(t *testing.T) {
	r := &recordingSaver{}
	q := NewSaveQueue(logger.Nop(), 2, r.save)
	for gen := uint64(1); gen <= 3; gen++ {
		if err := q.Enqueue(&PlannerSnapshot{StudentID: "a", Generation: gen}); err != nil {
			t.Fatalf("Enqueue a/%d: %v", gen, err)
		}
	}
	if err := q.Enqueue(&PlannerSnapshot{StudentID: "b", Generation: 1}); err != nil {
		t.Fatalf("Enqueue b: %v", err)
	}
	if err := q.Enqueue(&PlannerSnapshot{StudentID: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Enqueue c: want ErrQueueFull got=%v", err)
	}
	if q.Pending() != 2 {
		t.Fatalf("Pending: want=2 got=%d", q.Pending())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Start(ctx)
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) != 2 || r.saved[0] != "a" || r.saved[1] != "b" {
		t.Fatalf("saved: got %v", r.saved)
	}
	if r.gens["a"] != 3 {
		t.Fatalf("a: want newest generation 3 got=%d", r.gens["a"])
	}
}

func TestSaveQueueRetries(t *testing.T) {
	r := &recordingSaver{fails: 2}
	q := NewSaveQueue(logger.Nop(), 4, r.save)
	q.retryDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Start(ctx)
	if err := q.Enqueue(&PlannerSnapshot{StudentID: "a"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) != 1 || r.fails != 0 {
		t.Fatalf("retry: saved=%v fails left=%d", r.saved, r.fails)
	}
}

func TestSaveQueueGivesUp(t *testing.T) {
	r := &recordingSaver{fails: 10}
	q := NewSaveQueue(logger.Nop(), 4, r.save)
	q.retryDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Start(ctx)
	_ = q.Enqueue(&PlannerSnapshot{StudentID: "a"})
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) != 0 || r.fails != 10-q.maxAttempts {
		t.Fatalf("give up: saved=%v fails left=%d", r.saved, r.fails)
	}
}

func TestSaveQueueCloseFlushes(t *testing.T) {
	r := &recordingSaver{gate: make(chan struct{})}
	q := NewSaveQueue(logger.Nop(), 4, r.save)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Start(ctx)
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(&PlannerSnapshot{StudentID: id}); err != nil {
			t.Fatalf("Enqueue %s: %v", id, err)
		}
	}

	closed := make(chan error, 1)
	go func() { closed <- q.Close(ctx) }()
	close(r.gate)
	if err := <-closed; err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := q.Enqueue(&PlannerSnapshot{StudentID: "d"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after close: want ErrQueueClosed got=%v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) != 3 {
		t.Fatalf("saved: got %v", r.saved)
	}
}

func TestSaveQueueDrainHonorsContext(t *testing.T) {
	r := &recordingSaver{gate: make(chan struct{})}
	defer close(r.gate)
	q := NewSaveQueue(logger.Nop(), 4, r.save)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	q.Start(runCtx)
	_ = q.Enqueue(&PlannerSnapshot{StudentID: "a"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Drain: want DeadlineExceeded got=%v", err)
	}
}
