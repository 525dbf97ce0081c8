// Package sync pushes health snapshots to the remote server. The
// Coordinator owns the sync state machine and its single-flight
// guarantee; the Controller schedules it on the configured interval.
package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/types"
)

// State is the coordinator's position in the Idle -> Syncing ->
// {Success, Error} cycle. Success and Error are display states; a new
// trigger moves straight back through Syncing.
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of sync progress for display.
// LastSyncedAt is zero until the first successful sync.
type Status struct {
	State        State
	LastSyncedAt time.Time
	LastError    string
}

// Collector builds sync payloads. Implemented by the aggregator;
// category failures degrade inside it, so collection cannot fail.
type Collector interface {
	CollectForSync(ctx context.Context, deviceID string, window types.TimeWindow) *types.SyncPayload
}

// Pusher delivers payloads to the server. Implemented by the serverapi
// client.
type Pusher interface {
	PushSync(ctx context.Context, payload *types.SyncPayload) error
}

// Coordinator runs syncs one at a time. Triggers may arrive from the
// scheduler tick, a manual invocation, and the launch catch-up
// concurrently; the in-flight flag makes all but one a no-op.
type Coordinator struct {
	collector Collector
	pusher    Pusher
	deviceID  string
	logger    *zap.SugaredLogger
	now       func() time.Time

	inFlight atomic.Bool

	mu     sync.RWMutex
	status Status
}

// NewCoordinator creates a Coordinator syncing the given device's data.
func NewCoordinator(collector Collector, pusher Pusher, deviceID string, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		collector: collector,
		pusher:    pusher,
		deviceID:  deviceID,
		logger:    logger,
		now:       time.Now,
	}
}

// PerformSync collects the current day's data and pushes it. A trigger
// while another sync is in flight is a no-op. A failed push records the
// error for display and is not retried before the next trigger; the
// following sync re-sends the full current-day totals, so a lost
// payload costs nothing.
func (c *Coordinator) PerformSync(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("Sync already in flight, ignoring trigger")
		return nil
	}
	defer c.inFlight.Store(false)

	c.setStatus(StateSyncing, "")

	now := c.now()
	window := types.TimeWindow{Start: startOfDay(now), End: now}
	c.logger.Debugf("Collecting sync payload for %s covering %s to %s",
		c.deviceID, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	payload := c.collector.CollectForSync(ctx, c.deviceID, window)

	if err := c.pusher.PushSync(ctx, payload); err != nil {
		c.setStatus(StateError, err.Error())
		return fmt.Errorf("sync push failed: %w", err)
	}

	c.mu.Lock()
	c.status = Status{State: StateSuccess, LastSyncedAt: now}
	c.mu.Unlock()

	c.logger.Infof("Synced health data through %s", now.Format(time.RFC3339))
	return nil
}

// Status returns the current sync status snapshot.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Coordinator) setStatus(state State, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = state
	c.status.LastError = errMsg
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
