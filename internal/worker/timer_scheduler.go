package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealmint/pkg/logx"
)

// TimerScheduler обновляет расчёты по таймерам внутри процесса. Перезапуск
// их теряет, ошибки только логируются, потерянное подбирает sweeper.
type TimerScheduler struct {
	refresher SettlementRefresher

	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewTimerScheduler(refresher SettlementRefresher) *TimerScheduler {
	return &TimerScheduler{
		refresher: refresher,
		timers:    make(map[uuid.UUID]*time.Timer),
	}
}

func (s *TimerScheduler) ScheduleRefresh(ctx context.Context, settlementID uuid.UUID, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}

	if _, ok := s.timers[settlementID]; ok {
		return nil
	}

	// Обновление живёт дольше запроса, который его запланировал.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	s.timers[settlementID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.timers, settlementID)
		s.mu.Unlock()

		settlement, err := s.refresher.RefreshSettlement(ctx, settlementID)
		if err != nil {
			logger(ctx).Error(
				"refresher.RefreshSettlement",
				slog.String(logx.FieldSettlementID, settlementID.String()),
				logx.Error(err),
			)

			return
		}

		logger(ctx).Info(
			"settlement refreshed",
			slog.String(logx.FieldSettlementID, settlementID.String()),
			slog.String(logx.FieldSettlementState, settlement.Status.String()),
		)
	})

	return nil
}

// Stop отменяет ожидающие таймеры и ждёт выполняющиеся обновления.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true

	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}
