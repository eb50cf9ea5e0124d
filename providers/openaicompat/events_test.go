//go:build events

package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/corvidai/llmbridge"
)

func TestExecuteEmitsRequestAndResponseEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl_1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "hi there"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     4,
				"completion_tokens": 2,
				"total_tokens":      6,
			},
		})
	}))
	defer server.Close()

	a := NewOpenAI(llm.OpenAIConfig{APIKey: "k", Model: "gpt-4o", BaseURL: server.URL})

	req := llm.Request{Messages: []llm.Message{llm.UserText("hi")}}
	resp, err := a.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Events)

	var sawRequest, sawResponse bool
	for _, ev := range resp.Events {
		switch ev.Type {
		case llm.EventLLMRequest:
			sawRequest = true
		case llm.EventLLMResponse:
			sawResponse = true
		}
	}
	assert.True(t, sawRequest, "expected an llm_request event")
	assert.True(t, sawResponse, "expected an llm_response event")
}

func TestExecuteAttachesErrorEventOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"429 rate limited"}}`))
	}))
	defer server.Close()

	a := NewOpenAI(llm.OpenAIConfig{APIKey: "k", Model: "gpt-4o", BaseURL: server.URL})

	req := llm.Request{Messages: []llm.Message{llm.UserText("hi")}}
	resp, err := a.Execute(context.Background(), req)
	require.Error(t, err)

	var sawError bool
	for _, ev := range resp.Events {
		if ev.Type == llm.EventLLMError {
			sawError = true
		}
	}
	assert.True(t, sawError, "expected an llm_error event attached to the zero-value Response")
}
