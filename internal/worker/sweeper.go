package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dealmint/pkg/logx"
)

const (
	defaultSweepInterval   = 30 * time.Second
	defaultSweepStaleAfter = 15 * time.Second
	defaultSweepBatch      = 100
)

var ErrSweeperRunning = errors.New("sweeper is already running")

// SettlementSweeper периодически обновляет незавершённые расчёты, чтобы
// каждый дошёл до финального статуса, даже если обновление потерялось.
type SettlementSweeper struct {
	svc SettlementSweeperService

	interval   time.Duration
	staleAfter time.Duration
	batch      int

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewSettlementSweeper(svc SettlementSweeperService) *SettlementSweeper {
	return &SettlementSweeper{
		svc:        svc,
		interval:   defaultSweepInterval,
		staleAfter: defaultSweepStaleAfter,
		batch:      defaultSweepBatch,
	}
}

func (w *SettlementSweeper) WithInterval(interval time.Duration) *SettlementSweeper {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithStaleAfter пропускает расчёты, обновлённые позже чем d назад.
func (w *SettlementSweeper) WithStaleAfter(d time.Duration) *SettlementSweeper {
	w.staleAfter = d
	return w
}

func (w *SettlementSweeper) WithBatch(n int) *SettlementSweeper {
	if n > 0 {
		w.batch = n
	}
	return w
}

func (w *SettlementSweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return ErrSweeperRunning
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("sweeper stopped", logx.Error(err))
		}
	}()

	return nil
}

func (w *SettlementSweeper) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *SettlementSweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Run обходит расчёты раз в интервал до отмены ctx.
func (w *SettlementSweeper) Run(ctx context.Context) error {
	logger(ctx).Info("settlement sweeper started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("settlement sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

func (w *SettlementSweeper) SweepOnce(ctx context.Context) int {
	refreshed, err := w.svc.SweepOpen(ctx, w.staleAfter, w.batch)
	if err != nil {
		logger(ctx).Error("svc.SweepOpen", logx.Error(err))
	}

	if refreshed > 0 {
		logger(ctx).Info("sweep cycle completed", slog.Int("refreshed", refreshed))
	}

	return refreshed
}
