// Package app wires configuration into the campaign pipeline and the
// dashboard server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/breakoutai/automail/internal/api"
	"github.com/breakoutai/automail/internal/apiclient"
	"github.com/breakoutai/automail/internal/campaign"
	"github.com/breakoutai/automail/internal/config"
	"github.com/breakoutai/automail/internal/content"
	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/enrich"
	"github.com/breakoutai/automail/internal/llm"
	"github.com/breakoutai/automail/internal/metrics"
	"github.com/breakoutai/automail/internal/relay"
	"github.com/breakoutai/automail/internal/scheduler"
	"github.com/breakoutai/automail/internal/search"
	"github.com/breakoutai/automail/internal/sheets"
	"github.com/breakoutai/automail/internal/tracking"
)

// resultsSheetName is where Push writes the delivery log when sheets
// sync is enabled.
const resultsSheetName = "Results"

// App is the main application
type App struct {
	config      *config.Config
	logger      *slog.Logger
	store       *tracking.BoltStore
	runner      *campaign.Runner
	reconciler  *sheets.Reconciler
	apiServer   *api.Server
	metrics     *metrics.Metrics
	scheduler   *scheduler.Scheduler
	enrichAPI   *apiclient.Client
	generateAPI *apiclient.Client
}

// New creates a new application
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := config.NewLogger(cfg.Logging)

	store, err := tracking.NewBoltStore(cfg.Tracking.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking store: %w", err)
	}

	m := metrics.New()

	// Enrichment (search plus field extraction) gets the longer retry
	// budget; content generation gets a shorter one so a dead
	// completion API fails rows faster.
	enrichAPI := apiclient.New(apiclient.DefaultPolicy(cfg.Search.MaxRetries), logger.With("component", "enrich_api"))
	enrichAPI.OnRetry = func() { m.APIRetry("enrich") }

	generateAPI := apiclient.New(apiclient.DefaultPolicy(cfg.LLM.MaxRetries), logger.With("component", "llm_api"))
	generateAPI.OnRetry = func() { m.APIRetry("llm") }

	searcher := search.NewClient(search.Config{
		BaseURL:     cfg.Search.BaseURL,
		APIKey:      cfg.Search.APIKey,
		Engine:      cfg.Search.Engine,
		ResultCount: cfg.Search.ResultCount,
	}, enrichAPI)

	llmCfg := llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}
	extractor := llm.NewClient(llmCfg, enrichAPI)
	completer := llm.NewClient(llmCfg, generateAPI)

	enricher := enrich.New(searcher, extractor, logger)
	generator := content.New(completer, logger)

	builder := relay.NewBuilder(cfg.Relay.FromEmail, cfg.Relay.FromName, cfg.Tracking.TrackingURL)
	sender := relay.NewClient(relay.Config{
		Host:     cfg.Relay.Host,
		Port:     cfg.Relay.Port,
		Username: cfg.Relay.Username,
		Password: cfg.Relay.Password,
		Timeout:  cfg.Relay.Timeout,
	}, builder, logger)

	runner := campaign.NewRunner(enricher, generator, sender, store, m, logger)

	a := &App{
		config:      cfg,
		logger:      logger,
		store:       store,
		runner:      runner,
		metrics:     m,
		enrichAPI:   enrichAPI,
		generateAPI: generateAPI,
	}

	if cfg.Sheets.Enabled {
		a.reconciler, err = sheets.NewReconciler(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create sheets reconciler: %w", err)
		}
	}

	a.apiServer = api.NewServer(store, m, &cfg.API, logger.With("component", "api"))

	if cfg.Scheduler.Enabled {
		a.scheduler = scheduler.New(cfg.Scheduler.Interval, func(ctx context.Context) error {
			ds, err := a.LoadDataset(ctx, "")
			if err != nil {
				return err
			}
			_, err = a.RunCampaign(ctx, ds)
			return err
		}, logger)
	}

	return a, nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Store returns the tracking store.
func (a *App) Store() *tracking.BoltStore {
	return a.store
}

// LoadDataset reads campaign input rows from the given CSV file, or
// from the configured sheet when the path is empty.
func (a *App) LoadDataset(ctx context.Context, csvPath string) (*dataset.Dataset, error) {
	if csvPath != "" {
		return dataset.LoadCSV(csvPath)
	}
	if a.reconciler == nil {
		return nil, fmt.Errorf("no input: provide a CSV file or enable sheets sync")
	}
	return a.reconciler.Read(ctx)
}

// RunCampaign executes one full pass over the dataset and, when sheets
// sync is enabled, pushes the complete delivery log afterwards. A push
// failure does not fail the campaign.
func (a *App) RunCampaign(ctx context.Context, ds *dataset.Dataset) (*campaign.Result, error) {
	tmpl := campaign.Templates{
		Content:     a.config.Campaign.ContentTemplate,
		Subject:     a.config.Campaign.SubjectTemplate,
		SearchQuery: a.config.Campaign.SearchQuery,
	}

	result, err := a.runner.Run(ctx, ds, tmpl)

	a.logger.Info("campaign finished",
		"total", result.Total,
		"sent", result.Sent,
		"failed", result.Failed,
		"enriched", result.Enriched,
	)

	if a.reconciler != nil && result.Total > 0 {
		records, listErr := a.store.List(ctx)
		if listErr != nil {
			a.logger.Error("failed to load delivery log for sheet push", "error", listErr)
		} else if pushErr := a.reconciler.Push(ctx, resultsSheetName, records); pushErr != nil {
			a.logger.Error("failed to push delivery log to sheet", "error", pushErr)
		}
	}

	return result, err
}

// Serve runs the dashboard server, and the campaign scheduler when it
// is enabled, until ctx is cancelled or a signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.apiServer.ListenAndServe()
	}()

	if a.scheduler != nil {
		go a.scheduler.Run(ctx)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.config.API.WriteTimeout)
	defer shutdownCancel()
	return a.apiServer.Shutdown(shutdownCtx)
}

// Close releases application resources.
func (a *App) Close() error {
	return a.store.Close()
}
