package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"standard", NewTransportFailureError("genai", stderrors.New("dial tcp")), ErrCodeTransportFailure},
		{"wrapped standard", fmt.Errorf("classify: %w", NewSchemaViolationError("classification", []string{"urgency: invalid"})), ErrCodeSchemaViolation},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrCodeTransportFailure},
		{"cancelled", context.Canceled, ErrCodeTransportFailure},
		{"plain", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestStandardError_IsMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("rerank: %w", NewParseFailureError("selection", stderrors.New("unexpected EOF")))

	assert.True(t, stderrors.Is(err, ErrParseFailure))
	assert.False(t, stderrors.Is(err, ErrSchemaViolation))
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewTransportFailureError("places", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "places request failed")
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewInvalidIntakeError(stderrors.New("missing required fields: answer_safety")))

	assert.Equal(t, "INVALID_INTAKE", bpmn.Code)
	assert.False(t, bpmn.Retryable)
	assert.Equal(t, 0, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "INVALID_INTAKE", vars["errorCode"])
	assert.Equal(t, "INVALID_INTAKE", vars["originalErrorCode"])
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodePersistenceFailed))
	assert.Equal(t, 1, GetRetryCount(ErrCodeTransportFailure))
	assert.Equal(t, 0, GetRetryCount(ErrCodeInvalidIntake))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationFailed))
	assert.Equal(t, "CONTRACT", GetErrorCategory(ErrCodeOutOfRangeSelection))
}
