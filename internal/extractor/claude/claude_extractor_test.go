package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklane/internal/config"
	"worklane/internal/extractor"
	"worklane/internal/extractor/claude"
	"worklane/internal/port"
)

func newTestExtractor(serverURL string) *claude.Extractor {
	cfg := config.ExtractorProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  30,
	}
	return claude.NewExtractorWithEndpoint(cfg, serverURL)
}

func TestClaudeExtractor_Extract_PDF_Success(t *testing.T) {
	responseBody := map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": `{"tasks":[{"name":"Backend API development","description":"REST endpoints","category":"Development","amount":1500,"estimated_hours":40,"hourly_rate":37.5}]}`,
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request headers
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// Verify request body
		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		content := msg["content"].([]interface{})
		assert.Len(t, content, 2)

		// First block: document
		docBlock := content[0].(map[string]interface{})
		assert.Equal(t, "document", docBlock["type"])

		// Second block: text prompt
		textBlock := content[1].(map[string]interface{})
		assert.Equal(t, "text", textBlock["type"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	ext := newTestExtractor(server.URL)

	result, err := ext.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4 test content"),
		ContentType: "application/pdf",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "claude-sonnet-4-20250514", result.ModelUsed)
	assert.NotEmpty(t, result.PromptUsed)

	require.Len(t, result.Tasks, 1)
	task := result.Tasks[0]
	assert.Equal(t, "Backend API development", task.Name)
	assert.Equal(t, "REST endpoints", task.Description)
	assert.Equal(t, "Development", task.Category)
	assert.Equal(t, "1500", task.Amount.String())
	assert.Equal(t, "40", task.EstimatedHours.String())
	assert.Equal(t, "37.5", task.HourlyRate.String())
}

func TestClaudeExtractor_Extract_ImageUsesImageBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		messages := reqBody["messages"].([]interface{})
		content := messages[0].(map[string]interface{})["content"].([]interface{})
		imgBlock := content[0].(map[string]interface{})
		assert.Equal(t, "image", imgBlock["type"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": `{"tasks":[{"name":"Scan review"}]}`},
			},
		})
	}))
	defer server.Close()

	ext := newTestExtractor(server.URL)

	result, err := ext.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte{0xFF, 0xD8, 0xFF},
		ContentType: "image/jpeg",
	})

	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
}

func TestClaudeExtractor_Extract_UnsupportedContentType(t *testing.T) {
	ext := newTestExtractor("http://unused")

	_, err := ext.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("hello"),
		ContentType: "text/plain",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestClaudeExtractor_Extract_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "90")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	ext := newTestExtractor(server.URL)

	_, err := ext.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	})

	var rlErr *extractor.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, 90*time.Second, rlErr.RetryAfter)
}

func TestClaudeExtractor_Extract_TruncatedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": `{"tasks":[{"name":"Cut off`},
			},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	ext := newTestExtractor(server.URL)

	_, err := ext.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
}
