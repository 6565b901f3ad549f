package classifyintake

import (
	"context"
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
	TaskType = "classify-intake"
)

var classificationContract = validation.MustContract[models.Classification]("classification")

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
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

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

// Execute validates the intake and classifies it. The only error it returns is
// INVALID_INTAKE; every other failure yields the fallback classification.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := input.Intake.Validate(); err != nil {
		return nil, apperrors.NewInvalidIntakeError(err)
	}

	classification, outcome := h.classify(ctx, input.Intake)
	metrics.RecordStage(TaskType, string(outcome.Status), outcome.ErrorCode)

	return &Output{
		Classification:        classification,
		ClassificationOutcome: outcome,
	}, nil
}

func (h *Handler) classify(ctx context.Context, intake models.IntakeRecord) (models.Classification, models.Outcome) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := h.llm.GenerateJSON(ctx, llm.Request{
		Stage:          TaskType,
		Instruction:    instruction,
		Input:          intake.ClassifierView(),
		ResponseSchema: classificationContract.Schema(),
	})
	if err != nil {
		return h.fallback(err, start)
	}

	classification, err := classificationContract.Decode(raw)
	if err != nil {
		return h.fallback(err, start)
	}

	h.logger.Info("intake classified", map[string]interface{}{
		"issueType":     classification.IssueType,
		"urgency":       classification.Urgency,
		"severityScore": classification.SeverityScore,
		"crisis":        classification.RequiresCrisisResources(),
		"confidence":    classification.Confidence,
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return classification, models.OK()
}

func (h *Handler) fallback(err error, start time.Time) (models.Classification, models.Outcome) {
	code := string(apperrors.CodeOf(err))
	h.logger.Warn("classification degraded, using fallback", map[string]interface{}{
		"errorCode":  code,
		"error":      err.Error(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return models.FallbackClassification(), models.Degraded(code, err)
}
