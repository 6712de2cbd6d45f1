package models

import "time"

// ApplicationPlan is a planner decision: attempt this posting with this
// resume variant at this priority. Plans are ephemeral, produced fresh
// each planning cycle and never mutated after handoff to the coordinator.
type ApplicationPlan struct {
	Posting         JobPosting
	ProfileID       string
	ResumeVariantID string
	ResumePath      string
	PriorityScore   float64
	PlannedAt       time.Time
}
