package ai

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	Temperature float32 `json:"temperature"`
}

type geminiProvider struct {
	apiKey      string
	baseURL     string
	temperature float32

	mu     sync.Mutex
	client *genai.Client
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      p.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.baseURL},
	})
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}
	var config *genai.GenerateContentConfig
	if p.temperature > 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(p.temperature)}
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func createGeminiFactory(args interface{}) (IProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimSpace(cfg.BaseURL),
		temperature: cfg.Temperature,
	}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
