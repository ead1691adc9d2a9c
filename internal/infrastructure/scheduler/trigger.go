package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTrigger queues a job of one kind on a fixed interval
type IntervalTrigger struct {
	kind       JobKind
	interval   time.Duration
	runOnStart bool
	scheduler  *Scheduler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger; runOnStart queues one job immediately
func NewIntervalTrigger(s *Scheduler, kind JobKind, interval time.Duration, runOnStart bool, logger *zap.Logger) (*IntervalTrigger, error) {
	if interval <= 0 {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		kind:       kind,
		interval:   interval,
		runOnStart: runOnStart,
		scheduler:  s,
		logger:     logger,
	}, nil
}

// Start starts the trigger loop
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Interval trigger started",
		zap.String("job_kind", string(t.kind)),
		zap.Duration("interval", t.interval),
	)
	return nil
}

// Stop stops the trigger loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.runOnStart {
		t.fire()
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire()
		}
	}
}

func (t *IntervalTrigger) fire() {
	if _, err := t.scheduler.Schedule(t.kind); err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, ErrJobQueueFull) {
			// a previous run is still queued
			level = zap.WarnLevel
		}
		t.logger.Log(level, "Failed to schedule job", zap.String("job_kind", string(t.kind)), zap.Error(err))
	}
}
