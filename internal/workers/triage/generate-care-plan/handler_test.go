package generatecareplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/llm"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/observability"
	"careplan-workers/internal/models"
	buildcatalogresources "careplan-workers/internal/workers/triage/build-catalog-resources"
	classifyintake "careplan-workers/internal/workers/triage/classify-intake"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generateexercises "careplan-workers/internal/workers/triage/generate-exercises"
	rerankresources "careplan-workers/internal/workers/triage/rerank-resources"
)

// ==========================
// Test Helpers
// ==========================

// stubLLM answers per stage and counts calls. A stage without a response fails
// with a transport error.
type stubLLM struct {
	mu        sync.Mutex
	responses map[string]func(req llm.Request) string
	calls     map[string]int
}

func newStubLLM() *stubLLM {
	return &stubLLM{responses: map[string]func(llm.Request) string{}, calls: map[string]int{}}
}

func (s *stubLLM) on(stage string, body string) *stubLLM {
	s.responses[stage] = func(llm.Request) string { return body }
	return s
}

func (s *stubLLM) GenerateJSON(ctx context.Context, req llm.Request) ([]byte, error) {
	s.mu.Lock()
	s.calls[req.Stage]++
	respond, ok := s.responses[req.Stage]
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.NewTransportFailureError("genai", errors.New("service unavailable"))
	}
	return []byte(respond(req)), nil
}

func (s *stubLLM) count(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

type stubDirectory struct {
	mu         sync.Mutex
	candidates []models.GeoCandidate
	err        error
	calls      int
}

func (d *stubDirectory) Nearby(context.Context, fetchnearbyresources.Query) ([]models.GeoCandidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	out := make([]models.GeoCandidate, len(d.candidates))
	copy(out, d.candidates)
	return out, nil
}

type countingStore struct {
	mu    sync.Mutex
	saved []models.AssessmentRecord
}

func (s *countingStore) SaveAssessment(_ context.Context, rec models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, rec)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []models.AssessmentRecord
}

func (n *recordingNotifier) NotifyCrisis(_ context.Context, rec models.AssessmentRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, rec)
	return nil
}

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Classify.Timeout = time.Second
	cfg.Fetch.Timeout = time.Second
	cfg.Rerank.Timeout = time.Second
	cfg.Exercises.Timeout = time.Second
	return cfg
}

func kingstonCandidates() []models.GeoCandidate {
	out := make([]models.GeoCandidate, 4)
	for i := range out {
		lat, lng := 44.23+float64(i)/1000, -76.49
		out[i] = models.GeoCandidate{
			Name:      fmt.Sprintf("Kingston Clinic %d", i),
			Address:   fmt.Sprintf("%d Princess St", 200+i),
			Latitude:  &lat,
			Longitude: &lng,
		}
	}
	return out
}

func createIntake(safety string, withCoordinates bool) models.IntakeRecord {
	in := models.IntakeRecord{
		PrimaryConcern:    "I feel overwhelmed",
		AnswerDistress:    "high",
		AnswerFunctioning: "missing classes",
		AnswerUrgency:     "soon",
		AnswerSafety:      safety,
		AnswerConstraints: "no car, limited budget",
	}
	if withCoordinates {
		lat, lng := 44.2262, -76.4916
		in.Latitude, in.Longitude = &lat, &lng
	}
	return in
}

const crisisClassification = `{
	"issue_type": "crisis_safety",
	"urgency": "immediate_crisis",
	"severity_score": 4,
	"needs_immediate_resources": true,
	"confidence": 0.97,
	"reasoning": "Explicit mention of self-harm thoughts.",
	"personalized_note": "You reached out, and that matters. Help is available right now."
}`

const routineClassification = `{
	"issue_type": "general_support",
	"urgency": "routine",
	"severity_score": 1,
	"needs_immediate_resources": false,
	"confidence": 0.8,
	"reasoning": "Everyday stress with good functioning.",
	"personalized_note": "It sounds like a busy stretch. Small routines can help."
}`

const exercisesBody = `[
	{"title":"Paced breathing","steps":["Inhale for 4","Exhale for 6"],"benefit":"Calms the body."},
	{"title":"Name it","steps":["Write down the feeling"],"benefit":"Builds awareness."},
	{"title":"One small step","steps":["Pick one task","Do it for 5 minutes"],"benefit":"Restores momentum."}
]`

// classifyBySafety mimics the classifier rule: a self-harm statement in
// answer_safety forces the crisis classification.
func classifyBySafety(req llm.Request) string {
	view, _ := req.Input.(map[string]string)
	if strings.Contains(view["answer_safety"], "self-harm") {
		return crisisClassification
	}
	return routineClassification
}

func names(entries []models.ResourceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// ==========================
// Degraded paths
// ==========================

func TestGeneratePlan_TotalFailureYieldsFallback(t *testing.T) {
	client := newStubLLM()
	dir := &stubDirectory{err: apperrors.NewTransportFailureError("places", errors.New("timeout"))}
	h := NewHandler(createTestConfig(), Dependencies{LLM: client, Directory: dir}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Intake: createIntake("not sure", true)})
	require.NoError(t, err)

	assert.Equal(t, models.FallbackClassification(), out.Plan.Classification)
	assert.Equal(t, buildcatalogresources.Build(models.FallbackClassification()), out.Plan.Pathway)
	assert.NotNil(t, out.Plan.Exercises)
	assert.Empty(t, out.Plan.Exercises)
	assert.True(t, out.Degraded)
	assert.True(t, out.Outcomes.Classification.IsDegraded())
	assert.True(t, out.Outcomes.Geo.IsDegraded())
	assert.True(t, out.Outcomes.Exercises.IsDegraded())
	assert.Zero(t, client.count(rerankresources.TaskType), "no candidates means no rerank call")
}

func TestGeneratePlan_CrisisFirstUnderExternalFailure(t *testing.T) {
	tests := []struct {
		name string
		dir  *stubDirectory
	}{
		{name: "directory down", dir: &stubDirectory{err: apperrors.NewTransportFailureError("places", errors.New("refused"))}},
		{name: "reranker down", dir: &stubDirectory{candidates: kingstonCandidates()}},
		{name: "no results", dir: &stubDirectory{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newStubLLM().on(classifyintake.TaskType, crisisClassification)
			h := NewHandler(createTestConfig(), Dependencies{LLM: client, Directory: tt.dir}, logger.NewNoOpLogger())

			plan, err := h.GeneratePlan(context.Background(), createIntake("I've had thoughts of self-harm", true))
			require.NoError(t, err)

			require.GreaterOrEqual(t, len(plan.Pathway), 2)
			assert.Equal(t, buildcatalogresources.EmergencyServicesName, plan.Pathway[0].Name)
			assert.Equal(t, buildcatalogresources.CrisisLifelineName, plan.Pathway[1].Name)
		})
	}
}

func TestGeneratePlan_RerankFailureKeepsDirectoryPrefix(t *testing.T) {
	client := newStubLLM().
		on(classifyintake.TaskType, routineClassification).
		on(generateexercises.TaskType, exercisesBody)
	dir := &stubDirectory{candidates: kingstonCandidates()}
	h := NewHandler(createTestConfig(), Dependencies{LLM: client, Directory: dir}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Intake: createIntake("no", true)})
	require.NoError(t, err)

	catalog := buildcatalogresources.Build(out.Plan.Classification)
	local := out.Plan.Pathway[len(catalog):]
	assert.Equal(t, []string{"Kingston Clinic 0", "Kingston Clinic 1", "Kingston Clinic 2"}, names(local))
	assert.True(t, out.Outcomes.Rerank.IsDegraded())
	assert.False(t, out.Outcomes.Exercises.IsDegraded())
}

func TestExecute_CrisisNoticeNamesDegradedStages(t *testing.T) {
	client := newStubLLM().on(classifyintake.TaskType, crisisClassification)
	notifier := &recordingNotifier{}
	h := NewHandler(createTestConfig(), Dependencies{
		LLM:       client,
		Directory: &stubDirectory{candidates: kingstonCandidates()},
		Notifier:  notifier,
	}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Intake: createIntake("I've had thoughts of self-harm", true)})
	require.NoError(t, err)
	assert.True(t, out.Degraded)

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, []string{rerankresources.TaskType, generateexercises.TaskType}, notifier.notices[0].DegradedStages)
	assert.Equal(t, out.AssessmentID, notifier.notices[0].ID)
}

func TestStageOutcomes_DegradedStages(t *testing.T) {
	assert.Empty(t, StageOutcomes{}.DegradedStages())

	outcomes := StageOutcomes{
		Classification: models.Degraded(string(apperrors.ErrCodeParseFailure), errors.New("free text")),
		Geo:            models.OK(),
		Rerank:         models.OK(),
		Exercises:      models.Degraded(string(apperrors.ErrCodeTransportFailure), errors.New("timeout")),
	}
	assert.Equal(t, []string{classifyintake.TaskType, generateexercises.TaskType}, outcomes.DegradedStages())
}

// ==========================
// Scenarios
// ==========================

func TestGeneratePlan_SelfHarmScenario(t *testing.T) {
	client := newStubLLM().
		on(rerankresources.TaskType, `[{"index":2,"rationale":"Open late and free."}]`).
		on(generateexercises.TaskType, exercisesBody)
	client.responses[classifyintake.TaskType] = classifyBySafety
	dir := &stubDirectory{candidates: kingstonCandidates()}
	store := &countingStore{}

	h := NewHandler(createTestConfig(), Dependencies{
		LLM:           client,
		Directory:     dir,
		Store:         store,
		Observability: observability.NewNoop(),
	}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		SubjectID: "user-7",
		Intake:    createIntake("I've had thoughts of self-harm", true),
	})
	require.NoError(t, err)

	c := out.Plan.Classification
	assert.Equal(t, models.IssueCrisisSafety, c.IssueType)
	assert.Equal(t, models.UrgencyImmediateCrisis, c.Urgency)
	assert.True(t, buildcatalogresources.IsCrisisPrefix(out.Plan.Pathway))

	last := out.Plan.Pathway[len(out.Plan.Pathway)-1]
	assert.Equal(t, "Kingston Clinic 2", last.Name)
	assert.Equal(t, models.ProvenanceGeo, last.Provenance)
	assert.Len(t, out.Plan.Exercises, 3)
	assert.False(t, out.Degraded)

	assert.True(t, out.Persisted)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "user-7", store.saved[0].SubjectID)
	assert.Equal(t, out.AssessmentID, store.saved[0].ID)
	assert.Empty(t, store.saved[0].DegradedStages)
}

func TestGeneratePlan_LowSeverityWithoutCoordinates(t *testing.T) {
	client := newStubLLM().
		on(classifyintake.TaskType, routineClassification).
		on(generateexercises.TaskType, exercisesBody)
	dir := &stubDirectory{candidates: kingstonCandidates()}
	h := NewHandler(createTestConfig(), Dependencies{LLM: client, Directory: dir}, logger.NewNoOpLogger())

	plan, err := h.GeneratePlan(context.Background(), createIntake("no", false))
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Classification.SeverityScore)
	assert.Equal(t, buildcatalogresources.Build(plan.Classification), plan.Pathway)
	assert.Contains(t, names(plan.Pathway), "BounceBack Ontario")
	assert.NotContains(t, names(plan.Pathway), buildcatalogresources.EmergencyServicesName)
	assert.NotContains(t, names(plan.Pathway), buildcatalogresources.CrisisLifelineName)

	assert.Zero(t, dir.calls)
	assert.Zero(t, client.count(rerankresources.TaskType))
}

func TestGeneratePlan_Idempotent(t *testing.T) {
	newHandler := func() *Handler {
		client := newStubLLM().
			on(rerankresources.TaskType, `[{"index":1,"rationale":"Near transit."},{"index":0,"rationale":"Sliding scale."}]`).
			on(generateexercises.TaskType, exercisesBody)
		client.responses[classifyintake.TaskType] = classifyBySafety
		return NewHandler(createTestConfig(), Dependencies{
			LLM:       client,
			Directory: &stubDirectory{candidates: kingstonCandidates()},
		}, logger.NewNoOpLogger())
	}

	intake := createIntake("no", true)
	h := newHandler()
	first, err := h.GeneratePlan(context.Background(), intake)
	require.NoError(t, err)
	second, err := h.GeneratePlan(context.Background(), intake)
	require.NoError(t, err)
	third, err := newHandler().GeneratePlan(context.Background(), intake)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

// ==========================
// Caller contract
// ==========================

func TestExecute_InvalidIntake(t *testing.T) {
	client := newStubLLM()
	store := &countingStore{}
	h := NewHandler(createTestConfig(), Dependencies{LLM: client, Directory: &stubDirectory{}, Store: store}, logger.NewNoOpLogger())

	intake := createIntake("no", false)
	intake.AnswerSafety = ""

	_, err := h.Execute(context.Background(), &Input{Intake: intake})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidIntake)
	assert.Zero(t, client.count(classifyintake.TaskType))
	assert.Empty(t, store.saved)
}

func TestExecute_CancelledSkipsPersistence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newStubLLM().on(generateexercises.TaskType, exercisesBody)
	client.responses[classifyintake.TaskType] = func(llm.Request) string {
		cancel()
		return routineClassification
	}
	store := &countingStore{}
	h := NewHandler(createTestConfig(), Dependencies{
		LLM:       client,
		Directory: &stubDirectory{candidates: kingstonCandidates()},
		Store:     store,
	}, logger.NewNoOpLogger())

	_, err := h.Execute(ctx, &Input{Intake: createIntake("no", true)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.saved)
}

func TestExecute_SlowExercisesDoNotBlockLocalResources(t *testing.T) {
	client := newStubLLM().
		on(classifyintake.TaskType, routineClassification).
		on(rerankresources.TaskType, `[{"index":0,"rationale":"Closest."}]`)
	slow := llm.ClientFunc(func(ctx context.Context, req llm.Request) ([]byte, error) {
		if req.Stage == generateexercises.TaskType {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return client.GenerateJSON(ctx, req)
	})

	cfg := createTestConfig()
	cfg.Exercises.Timeout = 50 * time.Millisecond
	h := NewHandler(cfg, Dependencies{LLM: slow, Directory: &stubDirectory{candidates: kingstonCandidates()}}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Intake: createIntake("no", true)})
	require.NoError(t, err)

	assert.Empty(t, out.Plan.Exercises)
	assert.Equal(t, string(apperrors.ErrCodeTransportFailure), out.Outcomes.Exercises.ErrorCode)
	assert.Equal(t, "Kingston Clinic 0", out.Plan.Pathway[len(out.Plan.Pathway)-1].Name)
	assert.False(t, out.Outcomes.Rerank.IsDegraded())
}
