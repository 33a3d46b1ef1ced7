package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/degreeplan-backend/internal/realtime"
)

// memoryBus fans events out to forwarders in the same process. It is the
// single-instance fallback when no Redis address is configured.
type memoryBus struct {
	mu       sync.RWMutex
	handlers map[int]func(realtime.PlannerEvent)
	next     int
	closed   bool
}

func NewMemoryBus() Bus {
	return &memoryBus{handlers: map[int]func(realtime.PlannerEvent){}}
}

func (b *memoryBus) Publish(ctx context.Context, ev realtime.PlannerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory planner bus closed")
	}
	for _, h := range b.handlers {
		h(ev)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(ev realtime.PlannerEvent)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory planner bus closed")
	}
	id := b.next
	b.next++
	b.handlers[id] = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = map[int]func(realtime.PlannerEvent){}
	return nil
}
