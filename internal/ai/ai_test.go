package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insighthub/internal/config"
)

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestGroupGeneratorFallsBack(t *testing.T) {
	first := &stubGenerator{err: errors.New("quota")}
	second := &stubGenerator{text: "ok"}
	g := NewGroupGenerator([]GeneratorEntry{{Name: "a", Generator: first}, {Name: "b", Generator: second}})

	res, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)
}

func TestGroupGeneratorReturnsLastError(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &stubGenerator{err: errors.New("a down")}},
		{Name: "b", Generator: &stubGenerator{err: errors.New("b down")}},
	})
	_, err := g.Generate(context.Background(), "p")
	require.EqualError(t, err, "b down")
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "m", req.Model)
		require.Equal(t, "hello", req.Messages[0].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" answer "}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider("openai", map[string]interface{}{"api_key": "key", "base_url": srv.URL})
	require.NoError(t, err)
	res, err := NewGenerator(p, "m").Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "answer", res)
}

func TestOpenAIProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := NewProvider("openai", map[string]interface{}{"api_key": "key", "base_url": srv.URL})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "m", "hello")
	require.ErrorContains(t, err, "boom")
}

func TestProvidersWithoutKeyAreUnavailable(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "openrouter"} {
		p, err := NewProvider(name, map[string]interface{}{})
		require.NoError(t, err)
		_, err = p.Generate(context.Background(), "m", "hello")
		require.ErrorIs(t, err, ErrUnavailable, name)
	}
}

func TestNewGeneratorFromConfig(t *testing.T) {
	g, err := NewGeneratorFromConfig(config.AIConfig{Provider: "gemini", Model: "gemini-2.5-pro", APIKey: "k"})
	require.NoError(t, err)
	require.NotNil(t, g)

	g, err = NewGeneratorFromConfig(config.AIConfig{
		Provider:  "gemini",
		Model:     "gemini-2.5-pro",
		Fallbacks: []config.AIProviderConfig{{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}},
	})
	require.NoError(t, err)
	_, ok := g.(*groupGenerator)
	require.True(t, ok)

	_, err = NewGeneratorFromConfig(config.AIConfig{Provider: "nope"})
	require.Error(t, err)
}

func TestGeminiProviderKeepsTextVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  two departments\n"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider("gemini", map[string]interface{}{"api_key": "k", "base_url": srv.URL + "/"})
	require.NoError(t, err)
	out, err := p.Generate(context.Background(), "gemini-2.5-pro", "q")
	require.NoError(t, err)
	require.Equal(t, "  two departments\n", out)
}
