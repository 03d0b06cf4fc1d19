package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.AIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		MaxTokens:   2000,
		Temperature: 0.7,
	}, zaptest.NewLogger(t))
}

func completionBody(content string) string {
	return `{
		"choices": [{"message": {"role": "assistant", "content": ` + content + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 400, "completion_tokens": 600, "total_tokens": 1000}
	}`
}

const recipeJSON = `"{\"title\":\"Veggie Bowl\",\"description\":\"Quick.\",\"ingredients\":[\"rice\"],\"instructions\":[\"Cook.\"],\"prep_time_minutes\":10,\"cook_time_minutes\":20,\"servings\":4,\"difficulty\":\"easy\"}"`

func TestGenerateParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(completionBody(recipeJSON)))
	}))
	defer srv.Close()

	payload, err := testClient(t, srv.URL).Generate(context.Background(), outbound.GenerationPrompt{
		System: "system", User: "user", MaxTokens: 2000, Temperature: 0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "Veggie Bowl", payload.Title)
	assert.Equal(t, []string{"rice"}, payload.Ingredients)
	assert.Equal(t, 1000, payload.TokensUsed)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	fenced := `"Here is your recipe:\n` + "```json" + `\n{\"title\":\"Bowl\",\"ingredients\":[\"rice\"],\"instructions\":[\"Cook.\"]}\n` + "```" + `"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(fenced)))
	}))
	defer srv.Close()

	payload, err := testClient(t, srv.URL).Generate(context.Background(), outbound.GenerationPrompt{})

	require.NoError(t, err)
	assert.Equal(t, "Bowl", payload.Title)
}

func TestGenerateClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{http.StatusTooManyRequests, outbound.ErrProviderQuota},
		{http.StatusUnauthorized, outbound.ErrProviderConfig},
		{http.StatusInternalServerError, outbound.ErrProviderUnavailable},
		{http.StatusNotFound, outbound.ErrProviderBadResponse},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := testClient(t, srv.URL).Generate(context.Background(), outbound.GenerationPrompt{})
		assert.ErrorIs(t, err, tc.sentinel, "status %d", tc.status)
		srv.Close()
	}
}

func TestGenerateRejectsIncompletePayload(t *testing.T) {
	incomplete := `"{\"title\":\"\",\"ingredients\":[],\"instructions\":[]}"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(incomplete)))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Generate(context.Background(), outbound.GenerationPrompt{})
	assert.ErrorIs(t, err, outbound.ErrProviderBadResponse)
}

func TestGenerateRejectsNonJSONReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(`"Sorry, I cannot help with that."`)))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Generate(context.Background(), outbound.GenerationPrompt{})
	assert.ErrorIs(t, err, outbound.ErrProviderBadResponse)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	client := NewClient(config.AIConfig{BaseURL: "http://localhost:1"}, zaptest.NewLogger(t))

	_, err := client.Generate(context.Background(), outbound.GenerationPrompt{})
	assert.ErrorIs(t, err, outbound.ErrProviderConfig)
}

func TestGenerateHonorsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody(recipeJSON)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := testClient(t, srv.URL).Generate(ctx, outbound.GenerationPrompt{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
