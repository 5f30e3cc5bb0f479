package extractor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"worklane/internal/domain"
	"worklane/internal/extractor"
	"worklane/internal/port"
	"worklane/mocks"
)

func extractOutput(names ...string) *port.ExtractOutput {
	tasks := make([]domain.Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, domain.Task{Name: name})
	}
	return &port.ExtractOutput{Tasks: tasks, ModelUsed: "test-model"}
}

func TestFallbackExtractor_PrimarySucceeds(t *testing.T) {
	primary := new(mocks.MockTaskExtractor)
	secondary := new(mocks.MockTaskExtractor)

	primary.On("Extract", mock.Anything, mock.Anything).Return(extractOutput("Design"), nil).Once()

	f, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{
		"claude": primary,
		"openai": secondary,
	}, []string{"claude", "openai"})
	require.NoError(t, err)

	out, err := f.Extract(context.Background(), port.ExtractInput{ContentType: "application/pdf"})

	require.NoError(t, err)
	assert.Equal(t, "Design", out.Tasks[0].Name)
	secondary.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_RateLimitedPrimaryFallsThrough(t *testing.T) {
	primary := new(mocks.MockTaskExtractor)
	secondary := new(mocks.MockTaskExtractor)

	rlErr := extractor.NewRateLimitError("claude", assert.AnError, 120)
	primary.On("Extract", mock.Anything, mock.Anything).Return(nil, rlErr).Once()
	secondary.On("Extract", mock.Anything, mock.Anything).Return(extractOutput("Backend"), nil).Twice()

	f, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{
		"claude": primary,
		"openai": secondary,
	}, []string{"claude", "openai"})
	require.NoError(t, err)

	out, err := f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, "Backend", out.Tasks[0].Name)

	// Circuit is now open for claude; the next call must skip it entirely.
	out, err = f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, "Backend", out.Tasks[0].Name)
	primary.AssertNumberOfCalls(t, "Extract", 1)
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	primary := new(mocks.MockTaskExtractor)
	secondary := new(mocks.MockTaskExtractor)

	primary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("claude", assert.AnError, 120)).Once()
	secondary.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("openai", assert.AnError, 60)).Once()

	f, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{
		"claude": primary,
		"openai": secondary,
	}, []string{"claude", "openai"})
	require.NoError(t, err)

	_, err = f.Extract(context.Background(), port.ExtractInput{})

	var rlErr *extractor.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all providers", rlErr.Provider)
}

func TestFallbackExtractor_NonRateLimitErrorFallsThrough(t *testing.T) {
	primary := new(mocks.MockTaskExtractor)
	secondary := new(mocks.MockTaskExtractor)

	primary.On("Extract", mock.Anything, mock.Anything).Return(nil, assert.AnError).Twice()
	secondary.On("Extract", mock.Anything, mock.Anything).Return(extractOutput("QA"), nil).Twice()

	f, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{
		"claude": primary,
		"openai": secondary,
	}, []string{"claude", "openai"})
	require.NoError(t, err)

	out, err := f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, "QA", out.Tasks[0].Name)

	// Plain failures do not open the circuit; primary is tried again.
	_, err = f.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	primary.AssertNumberOfCalls(t, "Extract", 2)
}

func TestNewFallbackExtractor_UnknownProvider(t *testing.T) {
	_, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{}, []string{"claude"})
	assert.Error(t, err)
}

func TestNewFallbackExtractor_EmptyOrder(t *testing.T) {
	_, err := extractor.NewFallbackExtractor(map[string]port.TaskExtractor{}, nil)
	assert.Error(t, err)
}
