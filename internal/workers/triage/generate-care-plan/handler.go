package generatecareplan

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"careplan-workers/internal/common/camunda"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/llm"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/observability"
	"careplan-workers/internal/models"
	assembleplan "careplan-workers/internal/workers/triage/assemble-plan"
	buildcatalogresources "careplan-workers/internal/workers/triage/build-catalog-resources"
	classifyintake "careplan-workers/internal/workers/triage/classify-intake"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generateexercises "careplan-workers/internal/workers/triage/generate-exercises"
	rerankresources "careplan-workers/internal/workers/triage/rerank-resources"
)

const (
	TaskType = "generate-care-plan"
)

// Dependencies are the collaborators built once by the composition root.
// Cache, Store, Notifier and Observability may be nil.
type Dependencies struct {
	LLM           llm.Client
	Directory     fetchnearbyresources.Directory
	Cache         *fetchnearbyresources.Cache
	Store         assembleplan.Store
	Notifier      assembleplan.Notifier
	Observability *observability.Observability
}

// Handler runs the whole pipeline in-process.
type Handler struct {
	classifier *classifyintake.Handler
	catalog    *buildcatalogresources.Handler
	fetcher    *fetchnearbyresources.Handler
	reranker   *rerankresources.Handler
	exercises  *generateexercises.Handler
	assembler  *assembleplan.Handler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	return &Handler{
		classifier: classifyintake.NewHandler(config.Classify, deps.LLM, log),
		catalog:    buildcatalogresources.NewHandler(config.Catalog, log),
		fetcher:    fetchnearbyresources.NewHandler(config.Fetch, deps.Directory, deps.Cache, log),
		reranker:   rerankresources.NewHandler(config.Rerank, deps.LLM, log),
		exercises:  generateexercises.NewHandler(config.Exercises, deps.LLM, log),
		assembler:  assembleplan.NewHandler(config.Assemble, deps.Store, deps.Notifier, log),
		obs:        deps.Observability,
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

// GeneratePlan runs the pipeline for an anonymous intake and returns the plan.
func (h *Handler) GeneratePlan(ctx context.Context, intake models.IntakeRecord) (models.Plan, error) {
	out, err := h.Execute(ctx, &Input{Intake: intake})
	if err != nil {
		return models.Plan{}, err
	}
	return out.Plan, nil
}

// Execute returns INVALID_INTAKE for a malformed intake and ctx.Err() when the
// caller cancels; nothing is persisted in either case. Every other failure is
// absorbed by the stage that hit it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := input.Intake.Validate(); err != nil {
		return nil, apperrors.NewInvalidIntakeError(err)
	}

	start := time.Now()
	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	var outcomes StageOutcomes

	classified, err := h.classify(ctx, input.Intake)
	if err != nil {
		return nil, err
	}
	classification := classified.Classification
	outcomes.Classification = classified.ClassificationOutcome

	catalog, err := h.catalog.Execute(ctx, &buildcatalogresources.Input{Classification: classification})
	if err != nil {
		return nil, err
	}

	var (
		local     = []models.ResourceEntry{}
		exercises = []models.Exercise{}
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resources, geo, rerank, err := h.localResources(gctx, input.Intake, classification)
		if err != nil {
			return err
		}
		local, outcomes.Geo, outcomes.Rerank = resources, geo, rerank
		return nil
	})

	g.Go(func() error {
		stageStart := time.Now()
		sctx, span := h.obs.StartSpan(gctx, generateexercises.TaskType)
		defer span.End()

		out, err := h.exercises.Execute(sctx, &generateexercises.Input{Classification: classification})
		if err != nil {
			return err
		}
		h.obs.RecordStage(sctx, generateexercises.TaskType, string(out.ExercisesOutcome.Status), time.Since(stageStart))
		exercises, outcomes.Exercises = out.Exercises, out.ExercisesOutcome
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		h.logger.Warn("plan generation cancelled, nothing persisted", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	degradedStages := outcomes.DegradedStages()
	assembled, err := h.assembler.Execute(ctx, &assembleplan.Input{
		SubjectID:        input.SubjectID,
		Intake:           input.Intake,
		Classification:   classification,
		CatalogResources: catalog.CatalogResources,
		LocalResources:   local,
		Exercises:        exercises,
		DegradedStages:   degradedStages,
	})
	if err != nil {
		return nil, err
	}

	crisis := classification.RequiresCrisisResources()
	degraded := len(degradedStages) > 0
	span.SetAttributes(
		attribute.String("issue_type", string(classification.IssueType)),
		attribute.Bool("crisis", crisis),
		attribute.Bool("degraded", degraded),
	)
	h.obs.RecordPlan(ctx, time.Since(start), crisis)

	h.logger.Info("care plan generated", map[string]interface{}{
		"assessmentId": assembled.AssessmentID,
		"crisis":       crisis,
		"degraded":     degraded,
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return &Output{
		AssessmentID: assembled.AssessmentID,
		Plan:         assembled.Plan,
		Outcomes:     outcomes,
		Degraded:     degraded,
		Persisted:    assembled.Persisted,
	}, nil
}

func (h *Handler) classify(ctx context.Context, intake models.IntakeRecord) (*classifyintake.Output, error) {
	start := time.Now()
	ctx, span := h.obs.StartSpan(ctx, classifyintake.TaskType)
	defer span.End()

	out, err := h.classifier.Execute(ctx, &classifyintake.Input{Intake: intake})
	if err != nil {
		return nil, err
	}
	h.obs.RecordStage(ctx, classifyintake.TaskType, string(out.ClassificationOutcome.Status), time.Since(start))
	return out, nil
}

// localResources runs fetch then rerank. Without coordinates neither stage runs
// and the result is empty.
func (h *Handler) localResources(ctx context.Context, intake models.IntakeRecord, c models.Classification) ([]models.ResourceEntry, models.Outcome, models.Outcome, error) {
	skipped := models.Outcome{Status: models.StatusOK, Reason: "no coordinates supplied"}
	if !intake.HasCoordinates() {
		return []models.ResourceEntry{}, skipped, skipped, nil
	}

	start := time.Now()
	fctx, fspan := h.obs.StartSpan(ctx, fetchnearbyresources.TaskType)
	fetched, err := h.fetcher.Execute(fctx, &fetchnearbyresources.Input{Intake: intake, Classification: c})
	fspan.End()
	if err != nil {
		return nil, models.Outcome{}, models.Outcome{}, err
	}
	h.obs.RecordStage(ctx, fetchnearbyresources.TaskType, string(fetched.GeoOutcome.Status), time.Since(start))

	if len(fetched.GeoCandidates) == 0 {
		return []models.ResourceEntry{}, fetched.GeoOutcome, models.Outcome{Status: models.StatusOK, Reason: "no candidates"}, nil
	}

	start = time.Now()
	rctx, rspan := h.obs.StartSpan(ctx, rerankresources.TaskType)
	defer rspan.End()
	reranked, err := h.reranker.Execute(rctx, &rerankresources.Input{
		Intake:         intake,
		Classification: c,
		GeoCandidates:  fetched.GeoCandidates,
	})
	if err != nil {
		return nil, models.Outcome{}, models.Outcome{}, err
	}
	h.obs.RecordStage(ctx, rerankresources.TaskType, string(reranked.RerankOutcome.Status), time.Since(start))
	return reranked.LocalResources, fetched.GeoOutcome, reranked.RerankOutcome, nil
}
