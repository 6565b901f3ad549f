// internal/models/intake.go
package models

import (
	"fmt"
	"strings"
)

// IntakeRecord is one user's answers for a single assessment. It is built once
// per request and never mutated by the pipeline.
type IntakeRecord struct {
	PrimaryConcern    string   `json:"primary_concern"`
	AnswerDistress    string   `json:"answer_distress"`
	AnswerFunctioning string   `json:"answer_functioning"`
	AnswerUrgency     string   `json:"answer_urgency"`
	AnswerSafety      string   `json:"answer_safety"`
	AnswerConstraints string   `json:"answer_constraints"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates were supplied.
func (r IntakeRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Validate checks the caller contract. A failure here is the only condition that
// fails a plan request outright.
func (r IntakeRecord) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"primary_concern", r.PrimaryConcern},
		{"answer_distress", r.AnswerDistress},
		{"answer_functioning", r.AnswerFunctioning},
		{"answer_urgency", r.AnswerUrgency},
		{"answer_safety", r.AnswerSafety},
		{"answer_constraints", r.AnswerConstraints},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be supplied together")
	}
	if r.HasCoordinates() {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			return fmt.Errorf("latitude %f out of range", *r.Latitude)
		}
		if *r.Longitude < -180 || *r.Longitude > 180 {
			return fmt.Errorf("longitude %f out of range", *r.Longitude)
		}
	}
	return nil
}

// ClassifierView is the subset of the intake sent to the reasoning service.
// Coordinates and anything outside the six answers are left out.
func (r IntakeRecord) ClassifierView() map[string]string {
	return map[string]string{
		"primary_concern":    r.PrimaryConcern,
		"answer_distress":    r.AnswerDistress,
		"answer_functioning": r.AnswerFunctioning,
		"answer_urgency":     r.AnswerUrgency,
		"answer_safety":      r.AnswerSafety,
		"answer_constraints": r.AnswerConstraints,
	}
}
