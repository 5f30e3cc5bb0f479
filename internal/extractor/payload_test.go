package extractor_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/internal/extractor"
)

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestParseTaskPayload_PlainJSON(t *testing.T) {
	text := `{"tasks":[{"name":"Backend API","description":"REST endpoints","amount":1500,"estimated_hours":40}]}`

	tasks, err := extractor.ParseTaskPayload(text)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Backend API", tasks[0].Name)
	assert.Equal(t, "REST endpoints", tasks[0].Description)
	assert.True(t, tasks[0].Amount.Equal(decimalFromInt(1500)))
	assert.True(t, tasks[0].EstimatedHours.Equal(decimalFromInt(40)))
}

func TestParseTaskPayload_StripsMarkdownFences(t *testing.T) {
	text := "```json\n{\"tasks\":[{\"name\":\"Design\",\"amount\":300}]}\n```"

	tasks, err := extractor.ParseTaskPayload(text)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Design", tasks[0].Name)
}

func TestParseTaskPayload_EmptyTaskList(t *testing.T) {
	tasks, err := extractor.ParseTaskPayload(`{"tasks":[]}`)

	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestParseTaskPayload_InvalidJSON(t *testing.T) {
	_, err := extractor.ParseTaskPayload("I could not find any tasks in this document.")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding task payload")
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, extractor.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader("Wed, 21 Oct 2025 07:28:00 GMT"))
}

func TestNewRateLimitError_DefaultsToSixtySeconds(t *testing.T) {
	err := extractor.NewRateLimitError("claude", assert.AnError, 0)

	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.Equal(t, "claude", err.Provider)
	assert.ErrorIs(t, err, assert.AnError)
}
