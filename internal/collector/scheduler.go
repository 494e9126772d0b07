package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/metrics"
	"bazaar-trading-bot/pkg/models"
)

// State is the scheduler's lifecycle position. Transitions run
// Idle -> Running -> (Collecting <-> Waiting) -> Stopped.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCollecting
	StateWaiting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCollecting:
		return "collecting"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Mode selects what a collection cycle fetches.
type Mode int

const (
	// ModeSnapshot collects the all-items current snapshot, one request per
	// cycle.
	ModeSnapshot Mode = iota
	// ModeBackfill walks the catalog and collects each item's full history,
	// one item at a time.
	ModeBackfill
)

func (m Mode) String() string {
	if m == ModeBackfill {
		return "backfill"
	}
	return "snapshot"
}

type SchedulerConfig struct {
	Mode Mode

	// Interval between cycle starts. Zero or negative means run exactly one
	// cycle and stop.
	Interval time.Duration

	// Pause between per-item history requests in backfill mode.
	ItemDelay time.Duration

	// Optional history window bounds for backfill mode.
	From time.Time
	To   time.Time
}

// recordFetcher and recordProcessor are the slices of the pipeline the
// scheduler drives.
type recordFetcher interface {
	FetchItemIDs(ctx context.Context) ([]string, error)
	FetchSnapshotRecords(ctx context.Context) ([]models.MarketRecord, error)
	FetchItemHistory(ctx context.Context, itemID string, from, to time.Time) ([]models.MarketRecord, error)
}

type recordProcessor interface {
	StoreRecords(ctx context.Context, records []models.MarketRecord) (int, error)
}

// Scheduler drives the collect-then-sleep loop. A shutdown request is only
// honored between cycles: in-flight fetches and transactions always run to
// completion so the store never sees a torn batch.
type Scheduler struct {
	fetcher   recordFetcher
	processor recordProcessor
	config    SchedulerConfig
	metrics   *metrics.Recorder
	logger    *logrus.Logger

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
}

func NewScheduler(fetcher recordFetcher, processor recordProcessor, config SchedulerConfig, recorder *metrics.Recorder, logger *logrus.Logger) *Scheduler {
	s := &Scheduler{
		fetcher:   fetcher,
		processor: processor,
		config:    config,
		metrics:   recorder,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	s.state.Store(int32(StateIdle))
	return s
}

// State reports the scheduler's current lifecycle position.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Done is closed once the scheduler has fully stopped. One-shot invocations
// wait on it instead of a signal.
func (s *Scheduler) Done() <-chan struct{} {
	return s.doneCh
}

// Start launches the collection loop. Starting a scheduler that is not idle
// is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("scheduler is %s, not idle", s.State())
	}

	s.logger.WithFields(logrus.Fields{
		"mode":     s.config.Mode.String(),
		"interval": s.config.Interval,
	}).Info("Starting collection scheduler")

	go s.run(ctx)
	return nil
}

// Stop requests shutdown and blocks until the in-flight cycle, if any, has
// completed. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		// Never started, nothing in flight.
		close(s.doneCh)
		return
	}

	s.logger.Info("Stopping collection scheduler")
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		s.state.Store(int32(StateStopped))
		close(s.doneCh)
		s.logger.Info("Collection scheduler stopped")
	}()

	// Shutdown cancels the waits between cycles, never the cycle itself.
	// Cycle work runs on a context detached from ctx's cancellation; request
	// and statement timeouts bound it instead.
	workCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.state.Store(int32(StateCollecting))
		s.runCycle(workCtx)

		if s.config.Interval <= 0 {
			return
		}

		s.state.Store(int32(StateWaiting))
		s.logger.WithField("interval", s.config.Interval).Info("Waiting until next collection")

		timer := time.NewTimer(s.config.Interval)
		select {
		case <-timer.C:
		case <-s.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	cycleLogger := s.logger.WithFields(logrus.Fields{
		"run_id": uuid.New().String(),
		"mode":   s.config.Mode.String(),
	})

	cycleLogger.Info("Starting collection cycle")

	var stored int
	var err error
	switch s.config.Mode {
	case ModeBackfill:
		stored, err = s.runBackfillCycle(ctx, cycleLogger)
	default:
		stored, err = s.runSnapshotCycle(ctx)
	}

	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCycleFailure(duration)
		cycleLogger.WithError(err).WithField("duration_ms", duration.Milliseconds()).Error("Collection cycle failed")
		return
	}

	s.metrics.RecordCycleSuccess(duration, stored)
	cycleLogger.WithFields(logrus.Fields{
		"stored_count": stored,
		"duration_ms":  duration.Milliseconds(),
	}).Info("Collection cycle completed successfully")
}

func (s *Scheduler) runSnapshotCycle(ctx context.Context) (int, error) {
	records, err := s.fetcher.FetchSnapshotRecords(ctx)
	if err != nil {
		return 0, err
	}
	return s.processor.StoreRecords(ctx, records)
}

// runBackfillCycle walks the whole catalog one item at a time. Each item's
// series is stored as its own batch, and one item's failure never stops the
// walk. Stop requests take effect between items, after the in-flight item
// has been stored.
func (s *Scheduler) runBackfillCycle(ctx context.Context, cycleLogger *logrus.Entry) (int, error) {
	itemIDs, err := s.fetcher.FetchItemIDs(ctx)
	if err != nil {
		return 0, err
	}

	cycleLogger.WithField("item_count", len(itemIDs)).Info("Backfilling item histories")

	totalStored := 0
	failedItems := 0
	doneItems := 0

	for i, itemID := range itemIDs {
		records, err := s.fetcher.FetchItemHistory(ctx, itemID, s.config.From, s.config.To)
		if err != nil {
			cycleLogger.WithError(err).WithField("item_id", itemID).Error("Failed to fetch item history")
			failedItems++
		} else {
			stored, err := s.processor.StoreRecords(ctx, records)
			if err != nil {
				cycleLogger.WithError(err).WithField("item_id", itemID).Error("Failed to store item history")
				failedItems++
			} else {
				totalStored += stored
			}
		}
		doneItems++

		if i == len(itemIDs)-1 {
			break
		}
		if s.stopRequested(s.config.ItemDelay) {
			cycleLogger.WithField("items_done", doneItems).Info("Backfill interrupted, stopping after current item")
			break
		}
	}

	cycleLogger.WithFields(logrus.Fields{
		"items_total":  len(itemIDs),
		"items_done":   doneItems,
		"items_failed": failedItems,
		"stored_count": totalStored,
	}).Info("Backfill pass finished")

	return totalStored, nil
}

// stopRequested pauses for the per-item delay and reports whether a stop
// arrived while waiting.
func (s *Scheduler) stopRequested(delay time.Duration) bool {
	if delay <= 0 {
		select {
		case <-s.stopCh:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-s.stopCh:
		return true
	}
}
