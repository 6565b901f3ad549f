package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/models"
)

type selection struct {
	Index     int    `json:"index"`
	Rationale string `json:"rationale"`
}

func TestContract_Classification(t *testing.T) {
	contract, err := NewContract[models.Classification]("classification")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		raw := []byte(`{
			"issue_type": "crisis_safety",
			"urgency": "immediate_crisis",
			"severity_score": 4,
			"needs_immediate_resources": true,
			"confidence": 0.92,
			"reasoning": "explicit self-harm statement",
			"personalized_note": "You are not alone."
		}`)
		got, err := contract.Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, models.IssueCrisisSafety, got.IssueType)
		assert.Equal(t, models.UrgencyImmediateCrisis, got.Urgency)
		assert.Equal(t, 4, got.SeverityScore)
	})

	tests := []struct {
		name     string
		raw      string
		wantCode apperrors.ErrorCode
	}{
		{"not json", `I think the user is sad`, apperrors.ErrCodeParseFailure},
		{"truncated", `{"issue_type": "mental_health"`, apperrors.ErrCodeParseFailure},
		{"unknown enum", `{"issue_type":"astrology","urgency":"soon","severity_score":2,"needs_immediate_resources":false,"confidence":0.5,"reasoning":"r","personalized_note":"n"}`, apperrors.ErrCodeSchemaViolation},
		{"missing key", `{"issue_type":"mental_health","urgency":"soon","severity_score":2,"confidence":0.5,"reasoning":"r","personalized_note":"n"}`, apperrors.ErrCodeSchemaViolation},
		{"wrong type", `{"issue_type":"mental_health","urgency":"soon","severity_score":"high","needs_immediate_resources":false,"confidence":0.5,"reasoning":"r","personalized_note":"n"}`, apperrors.ErrCodeSchemaViolation},
		{"severity out of scale", `{"issue_type":"mental_health","urgency":"soon","severity_score":7,"needs_immediate_resources":false,"confidence":0.5,"reasoning":"r","personalized_note":"n"}`, apperrors.ErrCodeSchemaViolation},
		{"extra key", `{"issue_type":"mental_health","urgency":"soon","severity_score":2,"needs_immediate_resources":false,"confidence":0.5,"reasoning":"r","personalized_note":"n","diagnosis":"x"}`, apperrors.ErrCodeSchemaViolation},
		{"array instead of object", `[]`, apperrors.ErrCodeSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := contract.Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestContract_ArrayPermissive(t *testing.T) {
	contract, err := NewContract[[]selection]("selection", AllowAdditionalProperties())
	require.NoError(t, err)

	got, err := contract.Decode([]byte(`[{"index": 1, "rationale": "close by", "score": 0.8}, {"index": 0, "rationale": "free"}]`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "free", got[1].Rationale)

	_, err = contract.Decode([]byte(`[{"index": "first"}]`))
	assert.True(t, errors.Is(err, apperrors.ErrSchemaViolation))
}

func TestContract_StripsCodeFence(t *testing.T) {
	contract, err := NewContract[[]selection]("selection", AllowAdditionalProperties())
	require.NoError(t, err)

	got, err := contract.Decode([]byte("```json\n[{\"index\": 2, \"rationale\": \"open late\"}]\n```"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Index)
}

func TestContract_Schema(t *testing.T) {
	contract := MustContract[models.Classification]("classification")
	schema := string(contract.Schema())

	assert.Contains(t, schema, `"issue_type"`)
	assert.Contains(t, schema, `"immediate_crisis"`)
	assert.NotContains(t, schema, "2020-12")
}

func TestContract_Validate(t *testing.T) {
	contract := MustContract[models.Classification]("classification")

	assert.NoError(t, contract.Validate(models.FallbackClassification()))

	bad := models.FallbackClassification()
	bad.SeverityScore = 0
	assert.Error(t, contract.Validate(bad))
}

func TestContract_IntegralFloats(t *testing.T) {
	t.Run("severity written as 4.0", func(t *testing.T) {
		contract := MustContract[models.Classification]("classification")
		got, err := contract.Decode([]byte(`{"issue_type":"crisis_safety","urgency":"immediate_crisis","severity_score":4.0,"needs_immediate_resources":true,"confidence":1.0,"reasoning":"r","personalized_note":"n"}`))
		require.NoError(t, err)
		assert.Equal(t, 4, got.SeverityScore)
		assert.Equal(t, 1.0, got.Confidence)
		assert.True(t, got.RequiresCrisisResources())
	})

	t.Run("index written as 3.0", func(t *testing.T) {
		contract := MustContract[[]selection]("selection", AllowAdditionalProperties())
		got, err := contract.Decode([]byte(`[{"index":3.0,"rationale":"x"},{"index":2e0,"rationale":"y"}]`))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 3, got[0].Index)
		assert.Equal(t, 2, got[1].Index)
	})

	t.Run("fractional index still rejected", func(t *testing.T) {
		contract := MustContract[[]selection]("selection", AllowAdditionalProperties())
		_, err := contract.Decode([]byte(`[{"index":2.5,"rationale":"x"}]`))
		assert.Equal(t, apperrors.ErrCodeSchemaViolation, apperrors.CodeOf(err))
	})
}

func TestDecodeElements(t *testing.T) {
	contract := MustContract[selection]("selection", AllowAdditionalProperties())

	t.Run("bad elements skipped", func(t *testing.T) {
		got, rejected, err := DecodeElements(contract, []byte(`[{"index":3,"rationale":"x"},{"index":2},{"index":"one","rationale":"z"},{"index":1.0,"rationale":"y"}]`))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 3, got[0].Index)
		assert.Equal(t, 1, got[1].Index)
		require.Len(t, rejected, 2)
		assert.Equal(t, apperrors.ErrCodeSchemaViolation, apperrors.CodeOf(rejected[0]))
	})

	tests := []struct {
		name     string
		raw      string
		wantCode apperrors.ErrorCode
	}{
		{"not json", `pick the first one`, apperrors.ErrCodeParseFailure},
		{"object", `{"index":0,"rationale":"x"}`, apperrors.ErrCodeSchemaViolation},
		{"null", `null`, apperrors.ErrCodeSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeElements(contract, []byte(tt.raw))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}

	t.Run("empty array", func(t *testing.T) {
		got, rejected, err := DecodeElements(contract, []byte("```json\n[]\n```"))
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, rejected)
	})
}
