package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/degreeplan-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.PlannerState{},
	)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating planner tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
