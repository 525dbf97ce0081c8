// Package app wires the agent together: the local sample store, the
// aggregator, the meal ledger, the server API client, and the sync
// controller, plus the one-shot operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/aggregator"
	"github.com/healthbridge/healthbridge/internal/healthstore"
	"github.com/healthbridge/healthbridge/internal/ledger"
	"github.com/healthbridge/healthbridge/internal/log"
	"github.com/healthbridge/healthbridge/internal/serverapi"
	healthsync "github.com/healthbridge/healthbridge/internal/sync"
	"github.com/healthbridge/healthbridge/internal/types"
	"github.com/healthbridge/healthbridge/pkg/config"
)

// mealHistoryDays is how far back the launch-time ledger hydration
// asks the server for meal records.
const mealHistoryDays = 30

// App represents the agent application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// components holds the agent's wired building blocks. Records loaded
// from the server carry no local sample identifiers, so their ledger
// deletes use the timestamp-window fallback.
type components struct {
	agentCfg config.AgentData
	store    *healthstore.Store
	agg      *aggregator.HealthAggregator
	client   *serverapi.Client
	meals    *ledger.Reconciler
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the agent and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	comps, err := a.buildComponents()
	if err != nil {
		return err
	}
	defer comps.store.Close()

	// Snapshot the current period once so the log shows what the agent
	// sees on startup.
	snap := comps.agg.Refresh(ctx, currentPeriod())
	if snap.BodyBattery != nil {
		log.Infof("startup snapshot: body battery %d, %d sleep sessions, %d workouts",
			*snap.BodyBattery, len(snap.SleepSessions), len(snap.Workouts))
	} else {
		log.Info("startup snapshot: no samples in the current period yet")
	}

	if comps.agentCfg.IsConfigured() {
		coordinator := healthsync.NewCoordinator(comps.agg, comps.client, comps.agentCfg.DeviceID, a.logger)
		syncController, err := healthsync.NewController(ctx, &wg, a.configProvider, comps.agentCfg, coordinator, a.logger)
		if err != nil {
			return err
		}
		if err := syncController.StartController(); err != nil {
			return err
		}

		a.hydrateLedger(ctx, comps)
	} else {
		log.Warn("api-endpoint/api-key not configured; running with the local store only")
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// SyncOnce performs one immediate sync against the configured server
func (a *App) SyncOnce(ctx context.Context) error {
	comps, err := a.buildComponents()
	if err != nil {
		return err
	}
	defer comps.store.Close()

	if !comps.agentCfg.IsConfigured() {
		return serverapi.ErrNotConfigured
	}

	coordinator := healthsync.NewCoordinator(comps.agg, comps.client, comps.agentCfg.DeviceID, a.logger)
	if err := coordinator.PerformSync(ctx); err != nil {
		return err
	}

	status := coordinator.Status()
	a.logger.Infof("sync complete at %s", status.LastSyncedAt.Format(time.RFC3339))
	return nil
}

// ImportSamples loads exported sample files from dir into the local
// store and returns the number of samples written
func (a *App) ImportSamples(ctx context.Context, dir string) (int, error) {
	comps, err := a.buildComponents()
	if err != nil {
		return 0, err
	}
	defer comps.store.Close()

	return comps.store.ImportDir(ctx, dir)
}

// LogMeal sends a meal description to the server for analysis, records
// the result in the ledger, and writes its nutrient footprint to the
// local store
func (a *App) LogMeal(ctx context.Context, description string) (*types.MealRecord, error) {
	comps, err := a.buildComponents()
	if err != nil {
		return nil, err
	}
	defer comps.store.Close()

	meal, err := comps.client.AnalyzeMeal(ctx, description, "", "")
	if err != nil {
		return nil, err
	}

	if err := comps.meals.Create(ctx, meal); err != nil {
		return nil, err
	}

	return meal, nil
}

func (a *App) buildComponents() (*components, error) {
	agentCfg, err := a.configProvider.GetAgentConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load agent configuration: %w", err)
	}

	var cfg config.AgentData
	if agentCfg != nil {
		cfg = *agentCfg
	}

	if cfg.DeviceID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "healthbridge-agent"
		}
		cfg.DeviceID = hostname
		a.logger.Infof("agent device-id not provided; defaulting to hostname %s", cfg.DeviceID)
	}

	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath()
		a.logger.Infof("agent store-path not provided; defaulting to %s", cfg.StorePath)
	}

	store, err := healthstore.New(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("could not open sample store: %w", err)
	}

	client := serverapi.NewClient(cfg.APIEndpoint, cfg.APIKey, a.logger)

	return &components{
		agentCfg: cfg,
		store:    store,
		agg:      aggregator.New(store, a.logger),
		client:   client,
		meals:    ledger.New(store, a.logger),
	}, nil
}

// hydrateLedger reloads recent meal records from the server so edits
// made through the agent line up with what the server already knows.
func (a *App) hydrateLedger(ctx context.Context, comps *components) {
	hydrateCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	meals, err := comps.client.MealHistory(hydrateCtx, mealHistoryDays)
	if err != nil {
		a.logger.Warnf("could not load meal history from server: %v", err)
		return
	}

	comps.meals.Load(meals)
	a.logger.Infof("loaded %d meal records from server", len(meals))
}

func currentPeriod() types.TimeWindow {
	now := time.Now()
	return types.TimeWindow{
		Start: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		End:   now,
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "healthbridge-samples.db"
	}
	return filepath.Join(home, ".healthbridge", "samples.db")
}
