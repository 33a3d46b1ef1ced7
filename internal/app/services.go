package app

import (
	"fmt"

	"github.com/yungbote/degreeplan-backend/internal/catalog"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
	"github.com/yungbote/degreeplan-backend/internal/platform/rediscache"
	"github.com/yungbote/degreeplan-backend/internal/realtime/bus"
	"github.com/yungbote/degreeplan-backend/internal/services"
)

type Services struct {
	Catalog *catalog.Bundle
	Plans   catalog.Source
	Planner services.PlannerService
	// SaveQueue is nil when PLANNER_SAVE_QUEUE_SIZE is 0.
	SaveQueue *services.SaveQueue
	Events    bus.Bus

	schemaCache *rediscache.Cache
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	bundle, err := catalog.Default(log)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}

	var (
		cache       catalog.Cache
		schemaCache *rediscache.Cache
	)
	if cfg.RedisAddr != "" {
		schemaCache, err = rediscache.New(cfg.RedisAddr, cfg.SchemaCacheTTL, log)
		if err != nil {
			log.Warn("Redis schema cache unavailable, using in-process cache", "error", err)
		} else {
			cache = schemaCache
		}
	}
	if cache == nil {
		cache = catalog.NewMemoryCache(cfg.SchemaCacheTTL)
	}
	plans := catalog.NewCachedSource(bundle, cache, log)

	var events bus.Bus
	if cfg.RedisAddr != "" {
		events, err = bus.NewRedisBus(cfg.RedisAddr, cfg.EventsChannel, log)
		if err != nil {
			log.Warn("Redis planner bus unavailable, events stay in process", "error", err)
			events = nil
		}
	}
	if events == nil {
		events = bus.NewMemoryBus()
	}

	planner := services.NewPlannerService(log, reposet.PlannerState, plans, bundle, events, cfg.SaveQueueSize)

	return Services{
		Catalog:     bundle,
		Plans:       plans,
		Planner:     planner,
		SaveQueue:   planner.Queue(),
		Events:      events,
		schemaCache: schemaCache,
	}, nil
}
