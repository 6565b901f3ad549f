package buildcatalogresources

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"careplan-workers/internal/common/camunda"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/metrics"
	"careplan-workers/internal/common/validation"
	"careplan-workers/internal/models"
)

const (
	TaskType = "build-catalog-resources"
)

var classificationContract = validation.MustContract[models.Classification]("classification")

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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

// Execute rejects a classification outside its contract; anything valid maps
// deterministically.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if err := classificationContract.Validate(input.Classification); err != nil {
		return nil, apperrors.NewInvalidInputError("classification", err)
	}

	resources := Build(input.Classification)
	metrics.RecordStage(TaskType, string(models.StatusOK), "")

	h.logger.Debug("catalog resources built", map[string]interface{}{
		"issueType": input.Classification.IssueType,
		"count":     len(resources),
		"crisis":    IsCrisisPrefix(resources),
	})
	return &Output{CatalogResources: resources}, nil
}
