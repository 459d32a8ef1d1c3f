// Package worker доводит расчёты до финального статуса в фоне: отложенные
// обновления после запуска и периодический обход зависших.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dealmint/internal/domain/entity"
	"dealmint/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type SettlementRefresher interface {
	RefreshSettlement(ctx context.Context, settlementID uuid.UUID) (*entity.Settlement, error)
}

type SettlementSweeperService interface {
	SweepOpen(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
}
