package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilObservability_IsSafe(t *testing.T) {
	var o *Observability
	ctx, span := o.StartSpan(context.Background(), "stage")
	span.End()

	assert.NotNil(t, ctx)
	o.RecordStage(ctx, "classify", "ok", time.Millisecond)
	o.RecordPlan(ctx, time.Millisecond, true)
	assert.NoError(t, o.Shutdown(ctx))
}

func TestNoop(t *testing.T) {
	o := NewNoop()
	ctx, span := o.StartSpan(context.Background(), "generate-care-plan")
	defer span.End()

	o.RecordStage(ctx, "rerank", "degraded", 5*time.Millisecond)
	assert.NoError(t, o.Shutdown(context.Background()))
}
