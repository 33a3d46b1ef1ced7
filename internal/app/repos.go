package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/degreeplan-backend/internal/data/repos"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type Repos struct {
	PlannerState repos.PlannerStateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		PlannerState: repos.NewPlannerStateRepo(db, log),
	}
}
