package buildcatalogresources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/models"
)

func classification(issue models.IssueType, urgency models.Urgency, severity int) models.Classification {
	return models.Classification{
		IssueType:     issue,
		Urgency:       urgency,
		SeverityScore: severity,
		Confidence:    0.8,
		Reasoning:     "r",
	}
}

func names(entries []models.ResourceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		in   models.Classification
		want []string
	}{
		{
			name: "crisis safety at top severity",
			in:   classification(models.IssueCrisisSafety, models.UrgencyImmediateCrisis, 4),
			want: []string{EmergencyServicesName, CrisisLifelineName, "Talk Suicide Canada", "Kids Help Phone"},
		},
		{
			name: "severity 4 alone forces crisis entries",
			in:   classification(models.IssueGriefLoss, models.UrgencyUrgent, 4),
			want: []string{EmergencyServicesName, CrisisLifelineName, "MyGrief.ca", "Kids Help Phone"},
		},
		{
			name: "immediate crisis urgency alone forces crisis entries",
			in:   classification(models.IssueLoneliness, models.UrgencyImmediateCrisis, 1),
			want: []string{EmergencyServicesName, CrisisLifelineName, "Good2Talk Student Helpline", "BounceBack Ontario"},
		},
		{
			name: "routine mental health, low severity",
			in:   classification(models.IssueMentalHealth, models.UrgencyRoutine, 1),
			want: []string{"Wellness Together Canada", "Good2Talk Student Helpline", "BounceBack Ontario"},
		},
		{
			name: "severity 2 gets both youth line and self-help",
			in:   classification(models.IssueGeneralSupport, models.UrgencySoon, 2),
			want: []string{"Good2Talk Student Helpline", "Kids Help Phone", "BounceBack Ontario"},
		},
		{
			name: "gambling maps to ConnexOntario",
			in:   classification(models.IssueGambling, models.UrgencySoon, 3),
			want: []string{"ConnexOntario", "Kids Help Phone"},
		},
		{
			name: "unknown has no issue entries",
			in:   classification(models.IssueUnknown, models.UrgencyRoutine, 3),
			want: []string{"Kids Help Phone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Build(tt.in)))
		})
	}
}

func TestBuild_NeedsImmediateResourcesForcesCrisisEntries(t *testing.T) {
	c := classification(models.IssueFinancialStress, models.UrgencySoon, 3)
	c.NeedsImmediateResources = true

	got := Build(c)
	assert.True(t, IsCrisisPrefix(got))
	assert.Equal(t, models.PriorityCritical, got[0].Priority)
	assert.Equal(t, "9-1-1", got[0].Data)
	assert.Equal(t, "9-8-8", got[1].Data)
}

func TestBuild_FallbackClassification(t *testing.T) {
	got := Build(models.FallbackClassification())

	assert.False(t, IsCrisisPrefix(got))
	assert.Equal(t, []string{"Good2Talk Student Helpline", "Kids Help Phone", "BounceBack Ontario"}, names(got))
}

func TestBuild_EveryIssueTypeIsTotal(t *testing.T) {
	for _, issue := range models.AllIssueTypes {
		for severity := models.MinSeverity; severity <= models.MaxSeverity; severity++ {
			got := Build(classification(issue, models.UrgencySoon, severity))
			for _, e := range got {
				assert.Equal(t, models.ProvenanceCatalog, e.Provenance)
				assert.NotEmpty(t, e.Data)
			}
			assert.Equal(t, severity == models.MaxSeverity, IsCrisisPrefix(got), "issue %s severity %d", issue, severity)
		}
	}
}

func TestBuild_ReturnsFreshEntries(t *testing.T) {
	c := classification(models.IssueCrisisSafety, models.UrgencyImmediateCrisis, 4)

	first := Build(c)
	first[0].Name = "mutated"

	assert.Equal(t, EmergencyServicesName, Build(c)[0].Name)
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Classification: classification(models.IssueAlcohol, models.UrgencyUrgent, 3)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ConnexOntario", "Kids Help Phone"}, names(out.CatalogResources))
}

func TestHandler_Execute_InvalidClassification(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Classification: classification("astrology", models.UrgencySoon, 2)})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}
