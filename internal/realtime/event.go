// Package realtime carries planner change notifications between instances.
package realtime

// PlannerEvent announces that a student's planner state was written.
// Instances holding an older copy drop it and reload on next use.
type PlannerEvent struct {
	StudentID string `json:"student_id"`
	Version   int    `json:"version"`
	// Origin identifies the publishing instance so it can skip its own events.
	Origin string `json:"origin"`
}
