package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/degreeplan-backend/internal/data/repos/planner"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type PlannerStateRepo = planner.PlannerStateRepo

func NewPlannerStateRepo(db *gorm.DB, baseLog *logger.Logger) PlannerStateRepo {
	return planner.NewPlannerStateRepo(db, baseLog)
}
