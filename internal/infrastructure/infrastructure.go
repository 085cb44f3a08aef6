// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, storage, enrichment) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lehen20/dpr-auto/internal/config"
	"github.com/lehen20/dpr-auto/internal/enrich"
	"github.com/lehen20/dpr-auto/pkg/jsonstore"
	"github.com/lehen20/dpr-auto/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, the JSON store, and the enrichment adapter.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Store     jsonstore.System
	Enricher  *enrich.Adapter
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store := jsonstore.New(&cfg.Store, logger)

	model, err := enrich.NewGoogleModel(context.Background(), cfg.Enrich.APIKey, cfg.Enrich.Model)
	if err != nil {
		return nil, fmt.Errorf("enrichment model init failed: %w", err)
	}
	if model == nil {
		logger.Warn("no enrichment API key configured, using deterministic fallbacks")
	}

	enricher := enrich.NewAdapter(model, logger,
		enrich.WithTemperature(cfg.Enrich.Temperature),
		enrich.WithMaxTokens(cfg.Enrich.MaxTokens),
	)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Store:     store,
		Enricher:  enricher,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Store.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("store start failed: %w", err)
	}
	return nil
}
