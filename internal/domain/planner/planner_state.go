package planner

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlannerState is the per-student planner record. It is loaded and saved
// wholesale; Ledger is a derived cache that Recompute can always rebuild
// from Plans, CoursesTaken and Overrides.
type PlannerState struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   string    `gorm:"column:student_id;not null;uniqueIndex" json:"student_id"`
	Combination string    `gorm:"column:combination;not null" json:"combination"`
	// Plan identifiers per slot, "title@year" or a catalog id.
	FieldLinks   datatypes.JSON `gorm:"column:field_links;type:jsonb" json:"field_links"`
	Ledger       datatypes.JSON `gorm:"column:ledger;type:jsonb" json:"ledger"`
	SubPlans     datatypes.JSON `gorm:"column:sub_plans;type:jsonb" json:"sub_plans"`
	SectionNames datatypes.JSON `gorm:"column:section_names;type:jsonb" json:"section_names"`
	Overrides    datatypes.JSON `gorm:"column:overrides;type:jsonb" json:"overrides"`
	CoursesTaken datatypes.JSON `gorm:"column:courses_taken;type:jsonb" json:"courses_taken"`
	// Version is bumped on every save and checked by Upsert.
	Version   int            `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlannerState) TableName() string { return "planner_state" }

func (s *PlannerState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
