package port

import (
	"context"

	"worklane/internal/domain"
)

// ExtractInput carries the data needed for task extraction.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
}

// ExtractOutput contains the structured result from an LLM extractor.
type ExtractOutput struct {
	Tasks      []domain.Task
	ModelUsed  string
	PromptUsed string
}

// TaskExtractor abstracts LLM-based task-list extraction from a source document.
type TaskExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
