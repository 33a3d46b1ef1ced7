package domain

import "github.com/yungbote/degreeplan-backend/internal/domain/planner"

type PlannerState = planner.PlannerState
