package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"worklane/internal/domain"
)

type taskPayload struct {
	Tasks []domain.Task `json:"tasks"`
}

// ParseTaskPayload decodes the JSON task list returned by an extraction model.
// Models occasionally wrap the JSON in markdown fences despite instructions,
// so fences are stripped before decoding.
func ParseTaskPayload(text string) ([]domain.Task, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload taskPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decoding task payload: %w (response: %s)", err, truncate(cleaned, 200))
	}
	return payload.Tasks, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
