package enrich

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// NewGoogleModel builds a Gemini-backed model client. An empty API key
// returns nil with no error; the adapter treats a nil model as
// fallback-only operation.
func NewGoogleModel(ctx context.Context, apiKey, model string) (llms.Model, error) {
	if apiKey == "" {
		return nil, nil
	}

	opts := []googleai.Option{googleai.WithAPIKey(apiKey)}
	if model != "" {
		opts = append(opts, googleai.WithDefaultModel(model))
	}

	client, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create enrichment client: %w", err)
	}
	return client, nil
}
