package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractiveKeepsLeadingSentences(t *testing.T) {
	s := NewExtractive()
	text := "The database went down. Users saw errors. Ops restarted it. All good now."

	got, err := s.Summarize(context.Background(), text, Params{MinLength: 6, MaxLength: 20})

	require.NoError(t, err)
	assert.Equal(t, "The database went down. Users saw errors.", got)
}

func TestExtractiveCapsAtMaxLength(t *testing.T) {
	s := NewExtractive()
	text := strings.Repeat("word ", 40) + "."

	got, err := s.Summarize(context.Background(), text, Params{MinLength: 30, MaxLength: 10})

	require.NoError(t, err)
	assert.Len(t, strings.Fields(got), 10)
}

func TestExtractiveIsDeterministic(t *testing.T) {
	s := NewExtractive()
	text := "Primera frase del incidente. Segunda frase con más detalle. Tercera."
	p := Params{MinLength: 5, MaxLength: 50}

	a, err := s.Summarize(context.Background(), text, p)
	require.NoError(t, err)
	b, err := s.Summarize(context.Background(), text, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractiveHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractive().Summarize(ctx, "text", Params{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateRespectsRuneBoundary(t *testing.T) {
	assert.Equal(t, "caf", truncate("café", 4))
	assert.Equal(t, "café", truncate("café", 0))
	assert.Equal(t, "ab", truncate("abc", 2))
}

func TestNewSelectsProvider(t *testing.T) {
	s, tr, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "extractive-lead", s.Name())
	assert.Nil(t, tr)

	_, _, err = New(Config{Provider: "anthropic"})
	assert.Error(t, err, "api key is required")

	_, _, err = New(Config{Provider: "bart"})
	assert.Error(t, err)

	_, _, err = New(Config{Provider: "extractive", Translate: true, APIKey: "k"})
	assert.Error(t, err, "target language is required")
}

func TestAnthropicSummarizeUsesMessagesAPI(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [{"type": "text", "text": "  La base de datos se recuperó.  "}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic("key", "test-model", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	got, err := a.Summarize(context.Background(), "texto", Params{MinLength: 5, MaxLength: 10})
	require.NoError(t, err)
	assert.Equal(t, "La base de datos se recuperó.", got)
	assert.Equal(t, "test-model", gotModel)
	assert.Equal(t, "test-model", a.Name())
}

func TestAnthropicSummarizeReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = a.Summarize(context.Background(), "texto", Params{})
	assert.Error(t, err)
}

func TestLengthHint(t *testing.T) {
	assert.Equal(t, "between 50 and 150 words", lengthHint(Params{MinLength: 50, MaxLength: 150}))
	assert.Equal(t, "at most 30 words", lengthHint(Params{MaxLength: 30}))
	assert.Equal(t, "a few sentences", lengthHint(Params{}))
}
