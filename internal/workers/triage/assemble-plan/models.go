package assembleplan

import "careplan-workers/internal/models"

type Input struct {
	SubjectID        string                 `json:"subjectId,omitempty"`
	Intake           models.IntakeRecord    `json:"intake"`
	Classification   models.Classification  `json:"classification"`
	CatalogResources []models.ResourceEntry `json:"catalogResources"`
	LocalResources   []models.ResourceEntry `json:"localResources"`
	Exercises        []models.Exercise      `json:"exercises"`
	DegradedStages   []string               `json:"degradedStages,omitempty"`
}

type Output struct {
	AssessmentID string      `json:"assessmentId"`
	Plan         models.Plan `json:"plan"`
	Persisted    bool        `json:"persisted"`
}
