// internal/models/plan.go
package models

import "time"

// Plan is the assembled result handed back to the caller and to persistence.
type Plan struct {
	Classification Classification  `json:"classification"`
	Pathway        []ResourceEntry `json:"pathway"`
	Exercises      []Exercise      `json:"exercises"`
}

// AssessmentRecord is the persistence handoff for one request.
type AssessmentRecord struct {
	ID        string       `json:"id"`
	SubjectID string       `json:"subjectId,omitempty"`
	Intake    IntakeRecord `json:"intake"`
	Plan      Plan         `json:"plan"`
	CreatedAt time.Time    `json:"createdAt"`

	// DegradedStages names the stages that fell back while building Plan.
	DegradedStages []string `json:"degradedStages,omitempty"`
}
