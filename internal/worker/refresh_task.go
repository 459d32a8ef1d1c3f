package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"dealmint/internal/domain"
	"dealmint/pkg/application/modules"
	"dealmint/pkg/contextx"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const TypeSettlementRefresh = "settlement:refresh"

var errNotTerminal = errors.New("settlement not terminal yet")

type refreshPayload struct {
	SettlementID uuid.UUID `json:"settlementId"`
}

// AsynqScheduler ставит обновления расчётов отложенными задачами asynq.
// На расчёт в очереди одна задача, она повторяется до финального статуса
// или до исчерпания MaxRetry.
type AsynqScheduler struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewAsynqScheduler(client *asynq.Client, queue string, maxRetry int) *AsynqScheduler {
	return &AsynqScheduler{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
	}
}

func (s *AsynqScheduler) ScheduleRefresh(ctx context.Context, settlementID uuid.UUID, delay time.Duration) error {
	payload, err := json.Marshal(refreshPayload{SettlementID: settlementID})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	task := asynq.NewTask(TypeSettlementRefresh, payload)

	info, err := s.client.EnqueueContext(
		ctx,
		task,
		asynq.TaskID(refreshTaskID(settlementID)),
		asynq.Queue(s.queue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(s.maxRetry),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	logger(ctx).Info(
		"settlement refresh scheduled",
		slog.String(logx.FieldSettlementID, settlementID.String()),
		slog.String(logx.FieldTaskType, info.Type),
		slog.Time("process-at", info.NextProcessAt),
	)

	return nil
}

func refreshTaskID(settlementID uuid.UUID) string {
	return "settlement-refresh:" + settlementID.String()
}

// RefreshHandler обновляет расчёт из задачи. Пока расчёт не завершён,
// попытка считается неуспешной и asynq её повторит.
func RefreshHandler(refresher SettlementRefresher) modules.AsynqHandler {
	return modules.AsynqHandler{
		Pattern: TypeSettlementRefresh,
		Handle: func(ctx context.Context, task *asynq.Task) error {
			var payload refreshPayload
			if err := json.Unmarshal(task.Payload(), &payload); err != nil {
				return fmt.Errorf("json.Unmarshal: %w: %w", err, asynq.SkipRetry)
			}

			ctx = contextx.WithLogger(ctx, logger(ctx).With(
				slog.String(logx.FieldTaskType, task.Type()),
				slog.String(logx.FieldSettlementID, payload.SettlementID.String()),
			))

			settlement, err := refresher.RefreshSettlement(ctx, payload.SettlementID)
			if err != nil {
				if domain.HasCode(err, errcodes.SettlementNotFound) {
					return fmt.Errorf("refresher.RefreshSettlement: %w: %w", err, asynq.SkipRetry)
				}
				return fmt.Errorf("refresher.RefreshSettlement: %w", err)
			}

			if !settlement.Status.IsTerminal() {
				return fmt.Errorf("%w: %s", errNotTerminal, settlement.Status)
			}

			logger(ctx).Info("settlement refresh done", slog.String(logx.FieldSettlementState, settlement.Status.String()))

			return nil
		},
	}
}
