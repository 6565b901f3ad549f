package fetchnearbyresources

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"careplan-workers/internal/common/camunda"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/metrics"
	"careplan-workers/internal/models"
)

const (
	TaskType = "fetch-nearby-resources"
)

type Handler struct {
	config    *Config
	directory Directory
	cache     *Cache
	logger    logger.Logger
}

// NewHandler builds the fetcher. cache may be nil.
func NewHandler(config *Config, directory Directory, cache *Cache, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		directory: directory,
		cache:     cache,
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

// Execute never fails: transport errors become an empty, degraded result and an
// intake without coordinates yields an empty result without any call.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Intake.HasCoordinates() {
		return &Output{
			GeoCandidates: []models.GeoCandidate{},
			GeoOutcome:    models.Outcome{Status: models.StatusOK, Reason: "no coordinates supplied"},
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	candidates, term, err := h.search(ctx, input)
	if err != nil {
		code := string(apperrors.CodeOf(err))
		h.logger.Warn("nearby search failed, continuing without local resources", map[string]interface{}{
			"errorCode":  code,
			"error":      err.Error(),
			"searchTerm": term,
			"durationMs": time.Since(start).Milliseconds(),
		})
		metrics.RecordStage(TaskType, string(models.StatusDegraded), code)
		return &Output{
			GeoCandidates: []models.GeoCandidate{},
			SearchTerm:    term,
			GeoOutcome:    models.Degraded(code, err),
		}, nil
	}

	h.logger.Info("nearby resources fetched", map[string]interface{}{
		"issueType":  input.Classification.IssueType,
		"searchTerm": term,
		"count":      len(candidates),
		"durationMs": time.Since(start).Milliseconds(),
	})
	metrics.RecordStage(TaskType, string(models.StatusOK), "")
	return &Output{
		GeoCandidates: candidates,
		SearchTerm:    term,
		GeoOutcome:    models.OK(),
	}, nil
}

// search walks the search terms until one returns results. It returns the term
// that produced the final answer.
func (h *Handler) search(ctx context.Context, input *Input) ([]models.GeoCandidate, string, error) {
	var term string
	for _, term = range SearchTerms(input.Classification.IssueType) {
		q := Query{
			Latitude:     *input.Intake.Latitude,
			Longitude:    *input.Intake.Longitude,
			Keyword:      term,
			RadiusMeters: h.config.RadiusMeters,
			Limit:        h.config.MaxResults,
		}

		candidates, err := h.lookup(ctx, q)
		if err != nil {
			return nil, term, err
		}
		if len(candidates) > 0 {
			return index(candidates, h.config.MaxResults), term, nil
		}
	}
	return []models.GeoCandidate{}, term, nil
}

func (h *Handler) lookup(ctx context.Context, q Query) ([]models.GeoCandidate, error) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, q); ok {
			return cached, nil
		}
	}

	candidates, err := h.directory.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, q, candidates); err != nil {
			h.logger.Debug("nearby cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return candidates, nil
}

// index truncates to max and numbers candidates in directory order.
func index(candidates []models.GeoCandidate, max int) []models.GeoCandidate {
	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]models.GeoCandidate, len(candidates))
	for i, c := range candidates {
		c.Index = i
		out[i] = c
	}
	return out
}
