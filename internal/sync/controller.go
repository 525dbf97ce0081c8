package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/log"
	"github.com/healthbridge/healthbridge/pkg/config"
)

// Controller drives a Coordinator on the configured interval. The timer
// is owned here, not by the Coordinator, so tests can trigger syncs
// directly without wall-clock waits.
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	coordinator    *Coordinator
	logger         *zap.SugaredLogger

	interval    time.Duration
	skipLaunch  bool
	reconfigure chan time.Duration
}

// NewController validates the agent configuration and builds the
// scheduling controller around the given coordinator.
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, agentCfg config.AgentData, coordinator *Coordinator, logger *zap.SugaredLogger) (*Controller, error) {
	if !agentCfg.IsConfigured() {
		return nil, fmt.Errorf("sync controller requires api-endpoint and api-key")
	}

	return &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		coordinator:    coordinator,
		logger:         logger,
		interval:       time.Duration(agentCfg.SyncIntervalMinutes) * time.Minute,
		skipLaunch:     agentCfg.SkipLaunchSync,
		reconfigure:    make(chan time.Duration, 1),
	}, nil
}

// StartController launches the scheduling loop.
func (c *Controller) StartController() error {
	log.Info("Starting sync controller...")
	go c.runScheduler()
	return nil
}

// Reconfigure changes the sync interval at runtime. Zero disables the
// timer, leaving manual triggers only.
func (c *Controller) Reconfigure(interval time.Duration) {
	select {
	case c.reconfigure <- interval:
	case <-c.ctx.Done():
	}
}

// Coordinator exposes the underlying coordinator for manual triggers
// and status display.
func (c *Controller) Coordinator() *Coordinator {
	return c.coordinator
}

func (c *Controller) runScheduler() {
	c.wg.Add(1)
	defer c.wg.Done()

	if !c.skipLaunch {
		c.logger.Debug("Running launch catch-up sync")
		if err := c.coordinator.PerformSync(c.ctx); err != nil {
			c.logger.Errorf("Launch sync failed: %v", err)
		}
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	startTicker := func(interval time.Duration) {
		stopTicker()
		if interval <= 0 {
			c.logger.Info("Periodic sync disabled, manual triggers only")
			return
		}
		c.logger.Infof("Scheduling sync every %v", interval)
		ticker = time.NewTicker(interval)
		tick = ticker.C
	}
	defer stopTicker()

	startTicker(c.interval)

	for {
		select {
		case <-tick:
			if err := c.coordinator.PerformSync(c.ctx); err != nil {
				c.logger.Errorf("Scheduled sync failed: %v", err)
			}
		case interval := <-c.reconfigure:
			startTicker(interval)
		case <-c.ctx.Done():
			return
		}
	}
}
