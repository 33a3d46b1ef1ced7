package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/degreeplan-backend/internal/data/db"
	"github.com/yungbote/degreeplan-backend/internal/observability"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services

	dbService *db.Service
	cancel    context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	observability.Init(log)

	dbs, err := db.NewService(db.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := dbs.AutoMigrateAll(); err != nil {
			_ = dbs.Close()
			log.Sync()
			return nil, fmt.Errorf("database automigrate: %w", err)
		}
	}
	theDB := dbs.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:       log,
		DB:        theDB,
		Cfg:       cfg,
		Repos:     reposet,
		Services:  serviceset,
		dbService: dbs,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.SaveQueue != nil {
		a.Services.SaveQueue.Start(ctx)
	}
	if err := a.Services.Planner.Listen(ctx); err != nil {
		a.Log.Warn("Planner event listener not started", "error", err)
	}
	observability.Current().StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
}

// Close flushes pending saves, then releases the database and cache.
func (a *App) Close() {
	if a == nil {
		return
	}
	if q := a.Services.SaveQueue; q != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := q.Close(ctx); err != nil {
			a.Log.Warn("Save queue did not drain", "error", err)
		}
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if e := a.Services.Events; e != nil {
		_ = e.Close()
	}
	if c := a.Services.schemaCache; c != nil {
		if err := c.Close(); err != nil {
			a.Log.Warn("Closing schema cache failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
