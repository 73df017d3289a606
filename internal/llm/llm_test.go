package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIWithConfig(cfg, "", 2*time.Second, zap.NewNop())
}

func TestOpenAI_Generate(t *testing.T) {
	var got openai.ChatCompletionRequest
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  gm!  "}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	})

	out, err := o.Generate(context.Background(), Request{
		Model: "gpt-4o",
		Messages: []Message{
			{Role: "assistant", Content: "earlier"},
			{Role: RoleDeveloper, Content: "be nice"},
			{Role: "user", Content: "gm"},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	require.NoError(t, err)
	assert.Equal(t, "gm!", out)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "developer", got.Messages[1].Role)
	assert.Equal(t, "gm", got.Messages[2].Content)
}

func TestOpenAI_GenerateNoChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := o.Generate(context.Background(), Request{Model: "gpt-4"})
	assert.True(t, errors.Is(err, ErrNoChoices))
}

func TestOpenAI_GenerateUpstreamError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := o.Generate(context.Background(), Request{Model: "gpt-4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpt-4")
}

func TestOpenAI_Embed(t *testing.T) {
	var got openai.EmbeddingRequest
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})

	vec, err := o.Embed(context.Background(), "who is dwr?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, openai.AdaEmbeddingV2, got.Model)
}

func TestTokenCounter_Count(t *testing.T) {
	tc, err := NewTokenCounter()
	require.NoError(t, err)

	n, err := tc.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	short, err := tc.Count("gm farcaster")
	require.NoError(t, err)
	long, err := tc.Count("gm farcaster gm farcaster gm farcaster gm farcaster")
	require.NoError(t, err)
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}
