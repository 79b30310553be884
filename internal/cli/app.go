package cli

import (
	"context"
	"errors"

	"bumdes/internal/advice"
	"bumdes/internal/advice/gemini"
	"bumdes/internal/backend"
	"bumdes/internal/config"
	"bumdes/internal/log"
	"bumdes/internal/store"
)

// App is the initialized ledger together with its advisor.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   *store.Store
	Advisor *advice.Advisor
	Source  store.Source

	backend *backend.BackendResult
}

// NewApp opens the configured mirror, initializes the store from it and
// prepares the advisor. A missing API key yields an unconfigured advisor.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{store.WithLogger(logger)}
	if be.Notifier != nil {
		opts = append(opts, store.WithNotifier(be.Notifier))
	}
	st := store.New(be.Mirror, opts...)
	source := st.Initialize(ctx)

	advisor, err := NewAdvisor(ctx, cfg, logger)
	if err != nil {
		_ = be.Close()
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Advisor: advisor,
		Source:  source,
		backend: be,
	}, nil
}

// NewAdvisor builds the advisor for cfg, falling back to an unconfigured one without a key.
func NewAdvisor(ctx context.Context, cfg *config.Config, logger *log.Logger) (*advice.Advisor, error) {
	opts := []advice.Option{advice.WithLogger(logger), advice.WithTimeout(cfg.AdviceTimeout)}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	})
	switch {
	case errors.Is(err, advice.ErrUnconfigured):
		logger.Warn("No API key configured, financial advice is disabled")
		return advice.NewAdvisor(nil, opts...), nil
	case err != nil:
		return nil, err
	}
	return advice.NewAdvisor(client, opts...), nil
}

func (a *App) Close() error {
	return a.backend.Close()
}
