/*
scheduler.go - Automated scenario recompute scheduler

PURPOSE:
  Periodically recomputes every active scenario so persisted results track
  baseline changes (task edits, new EVM snapshots) without a client having
  to poke each scenario.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Recomputes only active, non-deleted scenarios
  - A failing scenario is logged and skipped; the sweep continues
  - Each recompute goes through the same Compute path as the API, so the
    single-result-row upsert invariant holds

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 15 minutes)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRecomputeScheduler(store, eng, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ComputeScenario endpoint (manual compute)
  - engine/compute.go: The compute contract
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/scenario-engine/engine"
	"github.com/warp/scenario-engine/store/sqlite"
)

// RecomputeScheduler keeps active scenario results fresh.
type RecomputeScheduler struct {
	Store         *sqlite.Store
	Engine        *engine.Engine
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRecomputeScheduler creates a new scheduler.
func NewRecomputeScheduler(store *sqlite.Store, eng *engine.Engine, logger *zap.Logger) *RecomputeScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecomputeScheduler{
		Store:         store,
		Engine:        eng,
		Logger:        logger,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RecomputeScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("recompute scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("recompute scheduler started",
		zap.Duration("check_interval", rs.CheckInterval))
}

// Stop stops the scheduler.
func (rs *RecomputeScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Logger.Info("recompute scheduler stopped")
	}
}

func (rs *RecomputeScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RecomputeScheduler) sweep() {
	ctx := context.Background()

	plans, err := rs.Store.ListActiveScenarios(ctx)
	if err != nil {
		rs.Logger.Error("listing active scenarios failed", zap.Error(err))
		return
	}

	recomputed := 0
	failed := 0

	for _, plan := range plans {
		_, warnings, err := rs.Engine.Compute(ctx, plan.ID, plan.OrganizationID)
		if err != nil {
			failed++
			rs.Logger.Warn("scheduled recompute failed",
				zap.String("scenario_id", string(plan.ID)),
				zap.Error(err))
			continue
		}
		recomputed++
		if len(warnings) > 0 {
			rs.Logger.Debug("scheduled recompute produced warnings",
				zap.String("scenario_id", string(plan.ID)),
				zap.Strings("warnings", warnings))
		}
	}

	if recomputed > 0 || failed > 0 {
		rs.Logger.Info("recompute sweep completed",
			zap.Int("recomputed", recomputed),
			zap.Int("failed", failed))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *RecomputeScheduler) RunNow() {
	rs.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (rs *RecomputeScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}
