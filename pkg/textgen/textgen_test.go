package textgen_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

func TestOpenAI_Generate(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Do 20 squats."}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := textgen.NewOpenAI("test-key", textgen.WithOpenAIBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), textgen.Request{
		Messages: []textgen.Message{
			{Role: textgen.RoleSystem, Content: "coach"},
			{Role: textgen.RoleUser, Content: "plan"},
		},
		MaxTokens:        1500,
		Temperature:      0.7,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Do 20 squats.", out.Text)
	assert.Equal(t, 15, out.TokensUsed)

	assert.Equal(t, textgen.OpenAIDefaultModel, got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 0.0001)
	assert.InDelta(t, 1500, got["max_tokens"], 0.0001)
	assert.Len(t, got["messages"], 2)
}

func TestOpenAI_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	gen, err := textgen.NewOpenAI("k", textgen.WithOpenAIBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), textgen.Request{
		Messages: []textgen.Message{{Role: textgen.RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, textgen.ErrGenerationFailed)
}

func TestGenerate_EmptyRequest(t *testing.T) {
	t.Parallel()

	gen, err := textgen.NewOpenAI("k")
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), textgen.Request{})
	assert.ErrorIs(t, err, textgen.ErrEmptyRequest)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := textgen.NewFromConfig(ctx, textgen.Config{Provider: textgen.ProviderOpenAI})
	assert.ErrorIs(t, err, textgen.ErrInvalidAPIKey)

	_, err = textgen.NewFromConfig(ctx, textgen.Config{Provider: textgen.ProviderGoogle})
	assert.ErrorIs(t, err, textgen.ErrInvalidAPIKey)

	_, err = textgen.NewFromConfig(ctx, textgen.Config{Provider: "llama"})
	assert.ErrorIs(t, err, textgen.ErrUnknownProvider)

	gen, err := textgen.NewFromConfig(ctx, textgen.Config{Provider: textgen.ProviderOpenAI, OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &textgen.OpenAI{}, gen)
}

func TestGeneratorFunc(t *testing.T) {
	t.Parallel()

	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (textgen.Completion, error) {
		return textgen.Completion{Text: req.Messages[0].Content, TokensUsed: 1}, nil
	})

	out, err := gen.Generate(context.Background(), textgen.Request{
		Messages: []textgen.Message{{Role: textgen.RoleUser, Content: "echo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", out.Text)
}
