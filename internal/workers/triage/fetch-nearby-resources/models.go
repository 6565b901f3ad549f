package fetchnearbyresources

import "careplan-workers/internal/models"

type Input struct {
	Intake         models.IntakeRecord   `json:"intake"`
	Classification models.Classification `json:"classification"`
}

type Output struct {
	GeoCandidates []models.GeoCandidate `json:"geoCandidates"`
	SearchTerm    string                `json:"searchTerm,omitempty"`
	GeoOutcome    models.Outcome        `json:"geoOutcome"`
}
