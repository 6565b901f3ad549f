package assembleplan

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"careplan-workers/internal/common/camunda"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/metrics"
	"careplan-workers/internal/models"
	buildcatalogresources "careplan-workers/internal/workers/triage/build-catalog-resources"
)

const (
	TaskType = "assemble-plan"
)

// Store receives finished assessments. It is never read back.
type Store interface {
	SaveAssessment(ctx context.Context, rec models.AssessmentRecord) error
}

// Notifier escalates plans that lead with crisis resources.
type Notifier interface {
	NotifyCrisis(ctx context.Context, rec models.AssessmentRecord) error
}

type Handler struct {
	config   *Config
	store    Store
	notifier Notifier
	logger   logger.Logger
}

// NewHandler builds the assembler. store and notifier may be nil.
func NewHandler(config *Config, store Store, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		notifier: notifier,
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

// Execute assembles the plan and hands it to the store and notifier. Their
// failures are logged and never returned. Nothing is handed off once ctx is done.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := Assemble(input.Classification, input.CatalogResources, input.LocalResources, input.Exercises)
	rec := models.AssessmentRecord{
		ID:        uuid.NewString(),
		SubjectID: input.SubjectID,
		Intake:    input.Intake,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),

		DegradedStages: input.DegradedStages,
	}

	crisis := plan.Classification.RequiresCrisisResources()
	if crisis {
		metrics.CrisisPlans.Inc()
	}
	metrics.RecordStage(TaskType, string(models.StatusOK), "")

	h.logger.Info("plan assembled", map[string]interface{}{
		"assessmentId":  rec.ID,
		"issueType":     plan.Classification.IssueType,
		"urgency":       plan.Classification.Urgency,
		"severityScore": plan.Classification.SeverityScore,
		"crisis":        crisis,
		"catalogCount":  len(input.CatalogResources),
		"localCount":    len(input.LocalResources),
		"pathwayCount":  len(plan.Pathway),
		"exerciseCount": len(plan.Exercises),
	})

	persisted := h.persist(ctx, rec)
	if crisis {
		h.notify(ctx, rec)
	}

	return &Output{AssessmentID: rec.ID, Plan: plan, Persisted: persisted}, nil
}

func (h *Handler) persist(ctx context.Context, rec models.AssessmentRecord) bool {
	if h.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.PersistTimeout)
	defer cancel()

	if err := h.store.SaveAssessment(ctx, rec); err != nil {
		h.logger.Error("failed to persist assessment", map[string]interface{}{
			"assessmentId": rec.ID,
			"errorCode":    apperrors.CodeOf(err),
			"error":        err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) notify(ctx context.Context, rec models.AssessmentRecord) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.NotifyTimeout)
	defer cancel()

	if err := h.notifier.NotifyCrisis(ctx, rec); err != nil {
		h.logger.Error("failed to send crisis notice", map[string]interface{}{
			"assessmentId": rec.ID,
			"errorCode":    apperrors.CodeOf(err),
			"error":        err.Error(),
		})
	}
}

// Assemble concatenates catalog then local entries without re-sorting or
// de-duplication. A crisis classification always gets the two crisis entries
// first, even when the catalog input lacks them.
func Assemble(c models.Classification, catalog, local []models.ResourceEntry, exercises []models.Exercise) models.Plan {
	pathway := make([]models.ResourceEntry, 0, len(catalog)+len(local)+2)
	if c.RequiresCrisisResources() && !buildcatalogresources.IsCrisisPrefix(catalog) {
		pathway = append(pathway, buildcatalogresources.CrisisEntries()...)
	}
	pathway = append(pathway, catalog...)
	pathway = append(pathway, local...)

	if exercises == nil {
		exercises = []models.Exercise{}
	}
	return models.Plan{
		Classification: c,
		Pathway:        pathway,
		Exercises:      exercises,
	}
}
