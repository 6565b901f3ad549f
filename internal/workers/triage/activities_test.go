package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careplan-workers/pkg/registry"
)

func TestActivities(t *testing.T) {
	activities, err := Activities()
	require.NoError(t, err)
	require.Len(t, activities, len(TaskTypes))

	for i, a := range activities {
		assert.Equal(t, TaskTypes[i], a.TaskType)
		assert.Equal(t, "object", a.InputSchema["type"], a.ID)
		assert.Contains(t, a.OutputSchema, "properties", a.ID)
		assert.NotEmpty(t, a.ErrorCodes, a.ID)
	}

	reg := registry.New(ActivityVersion, activities)
	assert.NoError(t, reg.Validate())
}

func TestActivities_ClassifyInputSchema(t *testing.T) {
	activities, err := Activities()
	require.NoError(t, err)

	props, ok := activities[0].InputSchema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "intake")
}
