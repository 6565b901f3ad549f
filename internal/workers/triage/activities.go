// Package triage describes the care plan job workers for the activity registry.
package triage

import (
	"encoding/json"
	"fmt"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/validation"
	assembleplan "careplan-workers/internal/workers/triage/assemble-plan"
	buildcatalogresources "careplan-workers/internal/workers/triage/build-catalog-resources"
	classifyintake "careplan-workers/internal/workers/triage/classify-intake"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generatecareplan "careplan-workers/internal/workers/triage/generate-care-plan"
	generateexercises "careplan-workers/internal/workers/triage/generate-exercises"
	rerankresources "careplan-workers/internal/workers/triage/rerank-resources"
	"careplan-workers/pkg/registry"
)

const (
	Category        = "triage"
	Workflow        = "care-plan"
	ActivityVersion = "1.0.0"
)

// TaskTypes lists every worker in pipeline order.
var TaskTypes = []string{
	classifyintake.TaskType,
	buildcatalogresources.TaskType,
	fetchnearbyresources.TaskType,
	rerankresources.TaskType,
	generateexercises.TaskType,
	assembleplan.TaskType,
	generatecareplan.TaskType,
}

var (
	degradable = []string{
		string(apperrors.ErrCodeTransportFailure),
		string(apperrors.ErrCodeSchemaViolation),
		string(apperrors.ErrCodeParseFailure),
	}
	invalidInput = []string{string(apperrors.ErrCodeInvalidInput)}
)

// Activities builds the registry entries with schemas reflected from each
// worker's job variable types.
func Activities() ([]registry.Activity, error) {
	specs := []struct {
		taskType    string
		displayName string
		description string
		timeout     string
		input       func() (map[string]interface{}, error)
		output      func() (map[string]interface{}, error)
		errorCodes  []string
		tags        []string
	}{
		{
			taskType:    classifyintake.TaskType,
			displayName: "Classify Intake",
			description: "Classifies an intake by issue type, urgency and severity; falls back to a fixed conservative classification.",
			timeout:     "20s",
			input:       schemaOf[classifyintake.Input],
			output:      schemaOf[classifyintake.Output],
			errorCodes:  append([]string{string(apperrors.ErrCodeInvalidIntake)}, degradable...),
			tags:        []string{"llm"},
		},
		{
			taskType:    buildcatalogresources.TaskType,
			displayName: "Build Catalog Resources",
			description: "Maps a classification to the static resource catalog, crisis entries first.",
			timeout:     "1s",
			input:       schemaOf[buildcatalogresources.Input],
			output:      schemaOf[buildcatalogresources.Output],
			errorCodes:  invalidInput,
			tags:        []string{"deterministic"},
		},
		{
			taskType:    fetchnearbyresources.TaskType,
			displayName: "Fetch Nearby Resources",
			description: "Searches the places directory near the intake coordinates with keyword fallbacks.",
			timeout:     "10s",
			input:       schemaOf[fetchnearbyresources.Input],
			output:      schemaOf[fetchnearbyresources.Output],
			errorCodes:  []string{string(apperrors.ErrCodeTransportFailure)},
			tags:        []string{"geo", "cache"},
		},
		{
			taskType:    rerankresources.TaskType,
			displayName: "Rerank Resources",
			description: "Selects up to three nearby candidates against the person's constraints.",
			timeout:     "20s",
			input:       schemaOf[rerankresources.Input],
			output:      schemaOf[rerankresources.Output],
			errorCodes:  append(append([]string{}, degradable...), string(apperrors.ErrCodeOutOfRangeSelection)),
			tags:        []string{"llm", "geo"},
		},
		{
			taskType:    generateexercises.TaskType,
			displayName: "Generate Exercises",
			description: "Suggests short coping exercises tuned to severity; empty on failure.",
			timeout:     "20s",
			input:       schemaOf[generateexercises.Input],
			output:      schemaOf[generateexercises.Output],
			errorCodes:  degradable,
			tags:        []string{"llm"},
		},
		{
			taskType:    assembleplan.TaskType,
			displayName: "Assemble Plan",
			description: "Concatenates catalog and local resources into the plan and hands it to persistence.",
			timeout:     "5s",
			input:       schemaOf[assembleplan.Input],
			output:      schemaOf[assembleplan.Output],
			errorCodes: []string{
				string(apperrors.ErrCodePersistenceFailed),
				string(apperrors.ErrCodeNotificationFailed),
			},
			tags: []string{"persistence"},
		},
		{
			taskType:    generatecareplan.TaskType,
			displayName: "Generate Care Plan",
			description: "Runs the whole triage pipeline in one job.",
			timeout:     "90s",
			input:       schemaOf[generatecareplan.Input],
			output:      schemaOf[generatecareplan.Output],
			errorCodes:  []string{string(apperrors.ErrCodeInvalidIntake)},
			tags:        []string{"composite"},
		},
	}

	activities := make([]registry.Activity, 0, len(specs))
	for _, s := range specs {
		in, err := s.input()
		if err != nil {
			return nil, fmt.Errorf("%s input schema: %w", s.taskType, err)
		}
		out, err := s.output()
		if err != nil {
			return nil, fmt.Errorf("%s output schema: %w", s.taskType, err)
		}
		activities = append(activities, registry.Activity{
			ID:                   s.taskType,
			DisplayName:          s.displayName,
			Description:          s.description,
			Category:             Category,
			Version:              ActivityVersion,
			TaskType:             s.taskType,
			ImplementationStatus: registry.StatusCompleted,
			InputSchema:          in,
			OutputSchema:         out,
			ErrorCodes:           s.errorCodes,
			Timeout:              s.timeout,
			Retries:              0,
			Workflows:            []string{Workflow},
			Tags:                 s.tags,
		})
	}
	return activities, nil
}

func schemaOf[T any]() (map[string]interface{}, error) {
	c, err := validation.NewContract[T]("activity", validation.AllowAdditionalProperties())
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(c.Schema(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
