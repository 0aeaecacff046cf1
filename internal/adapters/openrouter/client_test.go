package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("sk-test")
	cfg.BaseURL = server.URL
	cfg.RetryDelay = time.Millisecond
	return NewClient(cfg, nil)
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestSolveReturnsGeneratedAnswer(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(completionBody("A quiet tide returns."))
	})

	answer := client.Solve(context.Background(), "Write something about the sea", "poetic and lyrical")

	assert.Equal(t, "A quiet tide returns.", answer)
	assert.Equal(t, int64(1), client.RequestCount())
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "poetic and lyrical")
}

func TestSolveRepairsWordCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionBody("one two three four"))
	})

	answer := client.Solve(context.Background(), "Write exactly 3 words", "simple and direct")
	assert.Equal(t, "one two three", answer)
}

func TestSolveRetriesOnceThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(completionBody("second try"))
	})

	answer := client.Solve(context.Background(), "Write something", "simple and direct")

	assert.Equal(t, 2, calls)
	assert.Equal(t, "second try", answer)
}

func TestSolveFallsBackAfterRepeatedFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	answer := client.Solve(context.Background(), "Write something", "simple and direct")

	assert.Contains(t, fallbackAnswers, answer)
	assert.Zero(t, client.RequestCount())
}

func TestSolveFallsBackOnAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded"},
		})
	})

	answer := client.Solve(context.Background(), "Write something", "simple and direct")
	assert.Contains(t, fallbackAnswers, answer)
}

func TestBuildPromptClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		prompt     string
		wantSystem string
	}{
		{
			name:       "paraphrase",
			prompt:     "Say this in different words: the sun is warm",
			wantSystem: "Rewrite the given sentence",
		},
		{
			name:       "word count",
			prompt:     "Write exactly 7 words about rain",
			wantSystem: "word-count challenges",
		},
		{
			name:       "generic",
			prompt:     "Write a question about stars",
			wantSystem: "Follow ALL constraints EXACTLY",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			system, user := buildPrompt(tc.prompt, "simple and direct")
			assert.Contains(t, system, tc.wantSystem)
			assert.True(t, strings.HasPrefix(user, tc.prompt))
		})
	}
}

func TestStyleFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Styles[0], StyleFor(0))
	assert.Equal(t, Styles[1], StyleFor(1))
	assert.Equal(t, Styles[0], StyleFor(len(Styles)))
	assert.NotEmpty(t, StyleFor(-3))
}
