package bus

import (
	"context"

	"github.com/yungbote/degreeplan-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, ev realtime.PlannerEvent) error
	StartForwarder(ctx context.Context, onMsg func(ev realtime.PlannerEvent)) error
	Close() error
}
