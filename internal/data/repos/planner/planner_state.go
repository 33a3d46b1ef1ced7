package planner

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/degreeplan-backend/internal/domain"
	"github.com/yungbote/degreeplan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/degreeplan-backend/internal/pkg/errors"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type PlannerStateRepo interface {
	GetByStudentID(dbc dbctx.Context, studentID string) (*types.PlannerState, error)
	// Upsert writes state if its Version matches the stored one (0 for a new
	// record) and returns the saved row with the bumped Version.
	Upsert(dbc dbctx.Context, state *types.PlannerState) (*types.PlannerState, error)
	DeleteByStudentID(dbc dbctx.Context, studentID string) error
}

type plannerStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlannerStateRepo(db *gorm.DB, baseLog *logger.Logger) PlannerStateRepo {
	return &plannerStateRepo{
		db:  db,
		log: baseLog.With("repo", "PlannerStateRepo"),
	}
}

func (r *plannerStateRepo) GetByStudentID(dbc dbctx.Context, studentID string) (*types.PlannerState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == "" {
		return nil, fmt.Errorf("student id required: %w", pkgerrors.ErrInvalidArgument)
	}
	var out []*types.PlannerState
	if err := transaction.WithContext(dbc.Context()).
		Where("student_id = ?", studentID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("planner state for %s: %w", studentID, pkgerrors.ErrNotFound)
	}
	return out[0], nil
}

func (r *plannerStateRepo) Upsert(dbc dbctx.Context, state *types.PlannerState) (*types.PlannerState, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if state == nil || state.StudentID == "" {
		return nil, fmt.Errorf("planner state needs a student id: %w", pkgerrors.ErrInvalidArgument)
	}

	var saved types.PlannerState
	err := transaction.WithContext(dbc.Context()).Transaction(func(txx *gorm.DB) error {
		var current []types.PlannerState
		if err := txx.Where("student_id = ?", state.StudentID).Limit(1).Find(&current).Error; err != nil {
			return err
		}
		if len(current) == 0 {
			if state.Version != 0 {
				return fmt.Errorf("record is gone, expected version %d: %w", state.Version, pkgerrors.ErrConflict)
			}
			saved = *state
			saved.Version = 1
			return txx.Create(&saved).Error
		}

		cur := current[0]
		if cur.Version != state.Version {
			return fmt.Errorf("stored version %d, expected %d: %w", cur.Version, state.Version, pkgerrors.ErrConflict)
		}
		res := txx.Model(&types.PlannerState{}).
			Where("id = ? AND version = ?", cur.ID, cur.Version).
			Updates(map[string]interface{}{
				"combination":   state.Combination,
				"field_links":   state.FieldLinks,
				"ledger":        state.Ledger,
				"sub_plans":     state.SubPlans,
				"section_names": state.SectionNames,
				"overrides":     state.Overrides,
				"courses_taken": state.CoursesTaken,
				"version":       cur.Version + 1,
				"updated_at":    time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("concurrent save: %w", pkgerrors.ErrConflict)
		}
		return txx.Where("id = ?", cur.ID).First(&saved).Error
	})
	if err != nil {
		r.log.Debug("planner state save rejected", "student_id", state.StudentID, "version", state.Version, "error", err)
		return nil, err
	}
	return &saved, nil
}

// DeleteByStudentID removes the record for good so the student can start over
// under the same unique key.
func (r *plannerStateRepo) DeleteByStudentID(dbc dbctx.Context, studentID string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == "" {
		return nil
	}
	return transaction.WithContext(dbc.Context()).
		Unscoped().
		Where("student_id = ?", studentID).
		Delete(&types.PlannerState{}).Error
}
