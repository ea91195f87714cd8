package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExplainParsesFencedJSON(t *testing.T) {
	content := "```json\n" + `{"summary":"Flag A means diver down.","distractors":[{"answer":"wrong one","reason":"no"}]}` + "\n```"
	srv := fakeChatServer(t, content)
	ai := NewAIService("test-key", "test-model", srv.URL)

	got, err := ai.Explain(context.Background(), sampleRecord(1))
	require.NoError(t, err)
	assert.Equal(t, "Flag A means diver down.", got.Summary)
	require.Len(t, got.Distractors, 1)
	assert.Equal(t, "wrong one", got.Distractors[0].Answer)
}

func TestExplainRejectsEmptySummary(t *testing.T) {
	srv := fakeChatServer(t, `{"summary":"  "}`)
	ai := NewAIService("test-key", "test-model", srv.URL)

	_, err := ai.Explain(context.Background(), sampleRecord(1))
	assert.Error(t, err)
}

func TestExplainWithoutKey(t *testing.T) {
	ai := NewAIService("", "test-model", "")

	assert.False(t, ai.Enabled())
	_, err := ai.Explain(context.Background(), sampleRecord(1))
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated fence", "```\n{\"a\":1}", `{"a":1}`},
		{"prose around", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestSanitizeForPrompt(t *testing.T) {
	assert.Equal(t, "a b c", sanitizeForPrompt("  a \n b\t c ", 0))
	assert.Equal(t, "abc...", sanitizeForPrompt(strings.Repeat("abc", 5), 6))
}
