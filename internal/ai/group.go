package ai

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/config"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type groupGenerator struct {
	items []GeneratorEntry
}

// NewGroupGenerator tries each generator in order until one answers.
func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Generator
	}
	return &groupGenerator{items: items}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := item.Generator.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("generator failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}

// NewGeneratorFromConfig builds the primary provider followed by any fallbacks.
func NewGeneratorFromConfig(cfg config.AIConfig) (IGenerator, error) {
	providers := append([]config.AIProviderConfig{{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
	}}, cfg.Fallbacks...)
	entries := make([]GeneratorEntry, 0, len(providers))
	for _, pc := range providers {
		p, err := NewProvider(pc.Provider, pc)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		model := pc.Model
		if model == "" {
			model = cfg.Model
		}
		entries = append(entries, GeneratorEntry{
			Name:      p.Name() + ":" + model,
			Generator: NewGenerator(p, model),
		})
	}
	return NewGroupGenerator(entries), nil
}
