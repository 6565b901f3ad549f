package rerankresources

import "careplan-workers/internal/models"

type Input struct {
	Intake         models.IntakeRecord   `json:"intake"`
	Classification models.Classification `json:"classification"`
	GeoCandidates  []models.GeoCandidate `json:"geoCandidates"`
}

type Output struct {
	LocalResources []models.ResourceEntry `json:"localResources"`
	RerankOutcome  models.Outcome         `json:"rerankOutcome"`
}

// Selection is one pick returned by the reasoning service.
type Selection struct {
	Index     int    `json:"index"`
	Rationale string `json:"rationale"`
}

type classificationSummary struct {
	IssueType     models.IssueType `json:"issue_type"`
	Urgency       models.Urgency   `json:"urgency"`
	SeverityScore int              `json:"severity_score"`
	Reasoning     string           `json:"reasoning"`
}

// selectionRequest is everything the reasoning service sees. Candidates are
// summaries only.
type selectionRequest struct {
	Candidates     []models.CandidateSummary `json:"candidates"`
	Constraints    string                    `json:"constraints"`
	Classification classificationSummary     `json:"classification"`
}
