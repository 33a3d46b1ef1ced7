package app

import (
	"time"

	"github.com/yungbote/degreeplan-backend/internal/platform/envutil"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type Config struct {
	DBDriver       string
	DBDSN          string
	RedisAddr      string
	EventsChannel  string
	SchemaCacheTTL time.Duration
	SaveQueueSize  int
	AutoMigrate    bool
	MetricsAddr    string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		DBDriver:       envutil.String("PLANNER_DB_DRIVER", "sqlite", log),
		DBDSN:          envutil.String("PLANNER_DB_DSN", "", log),
		RedisAddr:      envutil.String("REDIS_ADDR", "", log),
		EventsChannel:  envutil.String("PLANNER_EVENTS_CHANNEL", "planner:events", log),
		SchemaCacheTTL: envutil.Duration("PLANNER_SCHEMA_CACHE_TTL", time.Hour, log),
		SaveQueueSize:  envutil.Int("PLANNER_SAVE_QUEUE_SIZE", 256, log),
		AutoMigrate:    envutil.Bool("PLANNER_DB_AUTOMIGRATE", true, log),
		MetricsAddr:    envutil.String("METRICS_ADDR", "", log),
	}
}
