package generateexercises

import (
	"context"
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
	TaskType = "generate-exercises"
)

var exerciseContract = validation.MustContract[[]models.Exercise]("exercises")

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

// Execute never fails. Any problem with the reasoning service yields an empty,
// degraded list.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	exercises, err := h.generate(ctx, input.Classification)
	if err != nil {
		code := string(apperrors.CodeOf(err))
		h.logger.Warn("exercise generation degraded, returning none", map[string]interface{}{
			"errorCode":  code,
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		metrics.RecordStage(TaskType, string(models.StatusDegraded), code)
		return &Output{Exercises: []models.Exercise{}, ExercisesOutcome: models.Degraded(code, err)}, nil
	}

	h.logger.Info("exercises generated", map[string]interface{}{
		"severityScore": input.Classification.SeverityScore,
		"count":         len(exercises),
		"durationMs":    time.Since(start).Milliseconds(),
	})
	metrics.RecordStage(TaskType, string(models.StatusOK), "")
	return &Output{Exercises: exercises, ExercisesOutcome: models.OK()}, nil
}

func (h *Handler) generate(ctx context.Context, c models.Classification) ([]models.Exercise, error) {
	raw, err := h.llm.GenerateJSON(ctx, llm.Request{
		Stage:       TaskType,
		Instruction: instruction,
		Input: exerciseRequest{
			IssueType:      c.IssueType,
			SeverityScore:  c.SeverityScore,
			Reasoning:      c.Reasoning,
			Focus:          Focus(c.SeverityScore),
			Count:          h.config.Count,
			MinutesPerItem: h.config.MinutesPerItem,
		},
		ResponseSchema: exerciseContract.Schema(),
	})
	if err != nil {
		return nil, err
	}

	decoded, err := exerciseContract.Decode(raw)
	if err != nil {
		return nil, err
	}

	exercises := usable(decoded)
	if len(exercises) == 0 {
		return nil, apperrors.NewSchemaViolationError(exerciseContract.Name(), []string{"no usable exercises returned"})
	}
	return exercises, nil
}

// usable drops exercises without a title or without any non-blank step.
func usable(in []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, 0, len(in))
	for _, e := range in {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		steps := make([]string, 0, len(e.Steps))
		for _, s := range e.Steps {
			if s = strings.TrimSpace(s); s != "" {
				steps = append(steps, s)
			}
		}
		if len(steps) == 0 {
			continue
		}
		e.Steps = steps
		out = append(out, e)
	}
	return out
}
