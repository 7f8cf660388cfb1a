package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"OpportunityRadar/internal/api"
	"OpportunityRadar/internal/config"
	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/fetcher"
	"OpportunityRadar/internal/infrastructure/ai"
	"OpportunityRadar/internal/infrastructure/feed"
	"OpportunityRadar/internal/infrastructure/storage"
	"OpportunityRadar/internal/logging"
	"OpportunityRadar/internal/registry"
	"OpportunityRadar/internal/report"
	"OpportunityRadar/internal/scanner"
	"OpportunityRadar/internal/scoring"
)

// Application wires configuration to storage, services and the HTTP server,
// and owns their lifecycle.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *storage.DB
	reg     *registry.Service
	manager *fetcher.Manager
	server  *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	fetchClient := &http.Client{Timeout: time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second}

	adapters := scanner.NewRegistry()
	adapters.Register(feed.NewRSSAdapter(fetchClient))
	adapters.Register(feed.NewHackerNewsAdapter(fetchClient, ""))
	adapters.Register(feed.NewJobBoardAdapter(fetchClient))
	adapters.Register(feed.NewForumAdapter(fetchClient))

	sources := storage.NewSourceRepository(db.DB)
	opportunities := storage.NewOpportunityRepository(db.DB)
	reports := storage.NewReportRepository(db.DB)

	plan := domain.Plan{Pro: cfg.Plan.Pro, MaxRSSSources: cfg.Plan.MaxRSSSources}
	reg := registry.New(sources, adapters, plan, baseLogger.With("component", "registry"))

	manager := fetcher.NewManager(fetcher.Deps{
		Sources:       sources,
		Opportunities: opportunities,
		Adapters:      adapters,
		Scorer:        scoring.New(rulesFromConfig(cfg.Scoring)),
		Logger:        baseLogger.With("component", "fetcher"),
		Concurrency:   cfg.Fetcher.Concurrency,
	})

	summarizer, err := ai.New(cfg.AI.Provider, ai.Settings{
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
	})
	if err != nil {
		baseLogger.Warn("ai provider not configured", "error", err)
	}

	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	reportSvc := report.New(opportunities, reports, summarizer, aiTimeout, baseLogger.With("component", "report"))

	router := api.NewRouter(api.Deps{
		Opportunities: opportunities,
		Registry:      reg,
		Fetcher:       manager,
		Reports:       reportSvc,
		Logger:        baseLogger.With("component", "http"),
	})

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		db:      db,
		reg:     reg,
		manager: manager,
		server:  server,
	}, nil
}

// Run seeds builtin sources, starts the fetch scheduler and serves HTTP
// until ctx is cancelled, then shuts everything down in order.
func (a *Application) Run(ctx context.Context) error {
	if err := a.reg.Seed(ctx); err != nil {
		return fmt.Errorf("seed sources: %w", err)
	}

	interval := time.Duration(a.cfg.Fetcher.IntervalMinutes) * time.Minute
	if err := a.manager.Start(interval); err != nil {
		return fmt.Errorf("start fetcher: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown incomplete", "error", err)
	}

	a.shutdown(shutdownCtx)
	return nil
}

func (a *Application) shutdown(_ context.Context) {
	a.manager.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close failed", "error", err)
	}
	a.logger.Info("application stopped")
}

// rulesFromConfig translates configured signal overrides into scorer rules;
// empty config keeps the built-in taxonomy.
func rulesFromConfig(cfg config.ScoringConfig) []scoring.Rule {
	if len(cfg.Signals) == 0 {
		return nil
	}

	rules := make([]scoring.Rule, 0, len(cfg.Signals))
	for _, sig := range cfg.Signals {
		rules = append(rules, scoring.Rule{
			Name:     sig.Name,
			Weight:   sig.Weight,
			Keywords: sig.Keywords,
		})
	}
	return rules
}
