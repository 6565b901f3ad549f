package rerankresources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"careplan-workers/internal/common/camunda"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/llm"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/metrics"
	"careplan-workers/internal/common/validation"
	"careplan-workers/internal/models"
)

const (
	TaskType = "rerank-resources"

	LocalFacilityType = "Local Facility"
)

// Unknown keys are tolerated; indices are range-checked after decoding. The
// array contract is sent to the model, elements are checked one at a time.
var (
	selectionContract = validation.MustContract[[]Selection]("resource_selection", validation.AllowAdditionalProperties())
	elementContract   = validation.MustContract[Selection]("resource_selection_item", validation.AllowAdditionalProperties())
)

type Handler struct {
	config *Config
	llm    llm.Client
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		llm:    client,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		camunda.FailJob(client, job, TaskType, err, h.logger)
		return
	}

	output, err := h.Execute(context.Background(), &input)
	if err != nil {
		camunda.FailJob(client, job, TaskType, err, h.logger)
		return
	}
	camunda.CompleteJob(client, job, TaskType, output, h.logger)
}

// Execute selects at most MaxSelections candidates. It never fails; an empty
// candidate list returns an empty result without calling the reasoning service.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.GeoCandidates) == 0 {
		return &Output{LocalResources: []models.ResourceEntry{}, RerankOutcome: models.OK()}, nil
	}

	resources, outcome := h.rerank(ctx, input)
	metrics.RecordStage(TaskType, string(outcome.Status), outcome.ErrorCode)
	return &Output{LocalResources: resources, RerankOutcome: outcome}, nil
}

func (h *Handler) rerank(ctx context.Context, input *Input) ([]models.ResourceEntry, models.Outcome) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := h.llm.GenerateJSON(ctx, llm.Request{
		Stage:          TaskType,
		Instruction:    instruction,
		Input:          buildRequest(input),
		ResponseSchema: selectionContract.Schema(),
	})
	if err != nil {
		return h.fallback(input, err, start)
	}

	selections, rejected, err := validation.DecodeElements(elementContract, raw)
	if err != nil {
		return h.fallback(input, err, start)
	}
	if len(rejected) > 0 {
		h.logger.Warn("discarding malformed selections", map[string]interface{}{
			"errorCode": apperrors.ErrCodeSchemaViolation,
			"rejected":  len(rejected),
			"error":     rejected[0].Error(),
		})
	}

	picked, dropped := Select(selections, len(input.GeoCandidates), h.config.MaxSelections)
	if len(dropped) > 0 {
		h.logger.Warn("discarding out-of-range selections", map[string]interface{}{
			"errorCode":  apperrors.ErrCodeOutOfRangeSelection,
			"dropped":    dropped,
			"candidates": len(input.GeoCandidates),
		})
	}
	if len(picked) == 0 {
		var cause error
		switch {
		case len(dropped) > 0:
			cause = apperrors.NewOutOfRangeSelectionError(dropped, len(input.GeoCandidates))
		case len(rejected) > 0:
			cause = rejected[0]
		default:
			cause = apperrors.NewSchemaViolationError(selectionContract.Name(), []string{"no selections returned"})
		}
		return h.fallback(input, cause, start)
	}

	resources := make([]models.ResourceEntry, len(picked))
	for i, s := range picked {
		resources[i] = LocalResource(input.GeoCandidates[s.Index], s.Rationale)
	}

	h.logger.Info("local resources selected", map[string]interface{}{
		"candidates": len(input.GeoCandidates),
		"selected":   len(resources),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resources, models.OK()
}

func (h *Handler) fallback(input *Input, err error, start time.Time) ([]models.ResourceEntry, models.Outcome) {
	code := string(apperrors.CodeOf(err))
	h.logger.Warn("rerank degraded, using directory order", map[string]interface{}{
		"errorCode":  code,
		"error":      err.Error(),
		"candidates": len(input.GeoCandidates),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return Fallback(input.GeoCandidates, input.Classification.IssueType, h.config.MaxSelections), models.Degraded(code, err)
}

func buildRequest(input *Input) selectionRequest {
	summaries := make([]models.CandidateSummary, len(input.GeoCandidates))
	for i, c := range input.GeoCandidates {
		s := c.Summary()
		s.Index = i
		summaries[i] = s
	}
	return selectionRequest{
		Candidates:  summaries,
		Constraints: input.Intake.AnswerConstraints,
		Classification: classificationSummary{
			IssueType:     input.Classification.IssueType,
			Urgency:       input.Classification.Urgency,
			SeverityScore: input.Classification.SeverityScore,
			Reasoning:     input.Classification.Reasoning,
		},
	}
}

// Select keeps in-range, first-seen indices in response order up to max. It
// also returns the out-of-range indices it discarded.
func Select(selections []Selection, n, max int) ([]Selection, []int) {
	var (
		picked  []Selection
		dropped []int
		seen    = make(map[int]bool, len(selections))
	)
	for _, s := range selections {
		if s.Index < 0 || s.Index >= n {
			dropped = append(dropped, s.Index)
			continue
		}
		if seen[s.Index] || len(picked) >= max {
			continue
		}
		seen[s.Index] = true
		picked = append(picked, s)
	}
	return picked, dropped
}

// Fallback takes the first min(max, len(candidates)) candidates in directory
// order with a generic rationale naming the issue type.
func Fallback(candidates []models.GeoCandidate, issue models.IssueType, max int) []models.ResourceEntry {
	n := len(candidates)
	if n > max {
		n = max
	}
	rationale := GenericRationale(issue)
	out := make([]models.ResourceEntry, n)
	for i := 0; i < n; i++ {
		out[i] = LocalResource(candidates[i], rationale)
	}
	return out
}

func GenericRationale(issue models.IssueType) string {
	return fmt.Sprintf("Nearby service that may offer support for %s.", strings.ReplaceAll(string(issue), "_", " "))
}

// LocalResource renders a selected candidate as a pathway entry.
func LocalResource(c models.GeoCandidate, rationale string) models.ResourceEntry {
	return models.ResourceEntry{
		Name:        c.Name,
		Type:        LocalFacilityType,
		Description: rationale,
		Data:        c.Address,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		Provenance:  models.ProvenanceGeo,
	}
}
