package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionJSON(content string) string {
	resp := completionResponse{
		Usage: Usage{PromptTokens: 12, CompletionTokens: 34},
	}
	resp.Choices = []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	}{
		{Message: message{Role: "assistant", Content: content}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestChat(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq completionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(completionJSON("  [\"hello\"]  ")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL, Model: "test/model", Temperature: 0.3})

	resp, err := c.Chat(context.Background(), ChatRequest{SystemPrompt: "sys", UserPrompt: "user"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "test/model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)

	assert.Equal(t, `["hello"]`, resp.Content, "content must be trimmed")
	assert.Equal(t, 12, resp.Usage.PromptTokens)
}

func TestChatRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(completionJSON("[]")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})

	resp, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})

	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatWithoutKey(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.IsConfigured())

	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[],"usage":{}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})

	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("API request failed with status 429: slow down"), true},
		{errors.New("API request failed with status 503: maintenance"), true},
		{errors.New("API request failed with status 401: bad key"), false},
		{errors.New("unmarshal response: unexpected end of JSON input"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryable(tt.err), tt.err.Error())
	}
}
