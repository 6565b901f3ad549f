package generateexercises

import "careplan-workers/internal/models"

type Input struct {
	Classification models.Classification `json:"classification"`
}

type Output struct {
	Exercises        []models.Exercise `json:"exercises"`
	ExercisesOutcome models.Outcome    `json:"exercisesOutcome"`
}

type exerciseRequest struct {
	IssueType      models.IssueType `json:"issue_type"`
	SeverityScore  int              `json:"severity_score"`
	Reasoning      string           `json:"reasoning"`
	Focus          string           `json:"focus"`
	Count          int              `json:"count"`
	MinutesPerItem int              `json:"max_minutes_each"`
}
