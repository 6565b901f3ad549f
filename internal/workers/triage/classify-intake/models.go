package classifyintake

import "careplan-workers/internal/models"

type Input struct {
	Intake models.IntakeRecord `json:"intake"`
}

type Output struct {
	Classification        models.Classification `json:"classification"`
	ClassificationOutcome models.Outcome        `json:"classificationOutcome"`
}
