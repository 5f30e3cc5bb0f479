package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/internal/domain"
)

func TestTask_UnmarshalKnownAndExtraFields(t *testing.T) {
	payload := []byte(`{
		"name": "Design sprint",
		"description": "Two-week sprint",
		"category": "design",
		"amount": 1000,
		"estimated_hours": 40,
		"hourly_rate": "25",
		"source_page": 3,
		"internal_note": "check with client"
	}`)

	var task domain.Task
	require.NoError(t, json.Unmarshal(payload, &task))

	assert.Equal(t, "Design sprint", task.Name)
	assert.Equal(t, "design", task.Category)
	assert.True(t, task.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, task.EstimatedHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, task.HourlyRate.Equal(decimal.NewFromInt(25)))
	assert.True(t, task.ActualHours.IsZero())

	require.Len(t, task.Extra, 2)
	assert.Equal(t, json.RawMessage(`3`), task.Extra["source_page"])
}

func TestTask_RoundTripPreservesExtra(t *testing.T) {
	in := []byte(`{"name":"Logo refresh","amount":400,"milestone":"phase-1"}`)

	var task domain.Task
	require.NoError(t, json.Unmarshal(in, &task))

	out, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, json.RawMessage(`"phase-1"`), decoded["milestone"])
	assert.NotContains(t, decoded, "merge")
}

func TestTask_KnownFieldsWinOverExtra(t *testing.T) {
	task := domain.Task{
		Name:  "Design sprint",
		Extra: map[string]json.RawMessage{"name": json.RawMessage(`"stale"`)},
	}

	out, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, json.RawMessage(`"Design sprint"`), decoded["name"])
}

func TestTask_CloneIsDeep(t *testing.T) {
	task := domain.Task{
		Name:  "Design sprint",
		Merge: &domain.TaskMergeInfo{MatchScore: 93},
		Extra: map[string]json.RawMessage{"source_page": json.RawMessage(`3`)},
	}

	clone := task.Clone()
	clone.Merge.MatchScore = 10
	clone.Extra["source_page"] = json.RawMessage(`9`)

	assert.Equal(t, 93, task.Merge.MatchScore)
	assert.Equal(t, json.RawMessage(`3`), task.Extra["source_page"])
}
