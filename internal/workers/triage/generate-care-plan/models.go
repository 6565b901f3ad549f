package generatecareplan

import (
	"careplan-workers/internal/models"
	classifyintake "careplan-workers/internal/workers/triage/classify-intake"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generateexercises "careplan-workers/internal/workers/triage/generate-exercises"
	rerankresources "careplan-workers/internal/workers/triage/rerank-resources"
)

type Input struct {
	SubjectID string              `json:"subjectId,omitempty"`
	Intake    models.IntakeRecord `json:"intake"`
}

// StageOutcomes reports how each stage produced its part of the plan.
type StageOutcomes struct {
	Classification models.Outcome `json:"classification"`
	Geo            models.Outcome `json:"geo"`
	Rerank         models.Outcome `json:"rerank"`
	Exercises      models.Outcome `json:"exercises"`
}

// DegradedStages lists the task types that fell back, in pipeline order.
func (s StageOutcomes) DegradedStages() []string {
	var stages []string
	for _, st := range []struct {
		name    string
		outcome models.Outcome
	}{
		{classifyintake.TaskType, s.Classification},
		{fetchnearbyresources.TaskType, s.Geo},
		{rerankresources.TaskType, s.Rerank},
		{generateexercises.TaskType, s.Exercises},
	} {
		if st.outcome.IsDegraded() {
			stages = append(stages, st.name)
		}
	}
	return stages
}

type Output struct {
	AssessmentID string        `json:"assessmentId"`
	Plan         models.Plan   `json:"plan"`
	Outcomes     StageOutcomes `json:"outcomes"`
	Degraded     bool          `json:"degraded"`
	Persisted    bool          `json:"persisted"`
}
