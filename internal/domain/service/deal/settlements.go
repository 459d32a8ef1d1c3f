package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

type SettlementInput struct {
	SourceNetwork string
	DestNetwork   string
	DestToken     string
}

// InitiateSettlement переводит последний платёж по сделке создателю в целевую
// сеть. Расчёт по сделке создаётся один раз, повторные вызовы возвращают
// первый с created = false.
func (s *DealService) InitiateSettlement(
	ctx context.Context,
	dealID uuid.UUID,
	in SettlementInput,
) (settlement *entity.Settlement, created bool, err error) {
	source, dest, destToken, err := resolveRoute(in)
	if err != nil {
		return nil, false, err
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, false, fmt.Errorf("deals.GetByID: %w", err)
	}

	release, err := s.locker.Acquire(ctx, "settlement:"+deal.ID.String())
	if err != nil {
		if errors.Is(err, domain.ErrLockBusy) {
			return nil, false, domain.WrapError(err, errcodes.SettlementInProgress, "settlement already in progress")
		}
		return nil, false, fmt.Errorf("locker.Acquire: %w", err)
	}
	defer release(context.WithoutCancel(ctx))

	existing, err := s.settlements.LatestByDeal(ctx, deal.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !domain.HasCode(err, errcodes.SettlementNotFound):
		return nil, false, fmt.Errorf("settlements.LatestByDeal: %w", err)
	}

	payments, err := s.payments.ListByDeal(ctx, deal.ID)
	if err != nil {
		return nil, false, fmt.Errorf("payments.ListByDeal: %w", err)
	}

	if len(payments) == 0 {
		return nil, false, domain.NewError(errcodes.PaymentRequired, "payment required before settlement")
	}

	amount := payments[len(payments)-1].Amount

	intent, err := s.bridgeAndExecute(ctx, entity.BridgeRequest{
		IdempotencyKey: "settlement-" + deal.ID.String(),
		SourceNetwork:  source.Name,
		DestNetwork:    dest.Name,
		SourceChainID:  source.ChainID,
		DestChainID:    dest.ChainID,
		Token:          s.opts.Token,
		Amount:         value.ToBaseUnits(amount, s.opts.TokenDecimals),
		Recipient:      deal.CreatorAddress,
	})
	if err != nil {
		return nil, false, err
	}

	now := s.now()

	settlement, created, err = s.settlements.CreateOnce(ctx, &entity.Settlement{
		ID:            uuid.New(),
		DealID:        deal.ID,
		SourceNetwork: source.Name,
		DestNetwork:   dest.Name,
		DestToken:     destToken,
		IntentID:      intent.ID,
		Status:        value.SettlementStatusPending,
		Detail: entity.SettlementDetail{
			SourceChainID: source.ChainID,
			DestChainID:   dest.ChainID,
			BridgeAmount:  amount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, false, fmt.Errorf("settlements.CreateOnce: %w", err)
	}

	if !created {
		return settlement, false, nil
	}

	if _, err := s.advance(ctx, deal.ID, value.DealStatusSettling); err != nil {
		return nil, false, err
	}

	s.metrics.settlements.WithLabelValues(settlement.Status.String()).Inc()

	logger(ctx).Info(
		"settlement initiated",
		slog.String(logx.FieldDealID, deal.ID.String()),
		slog.String(logx.FieldSettlementID, settlement.ID.String()),
		slog.String(logx.FieldIntentID, intent.ID),
	)

	// Расчёт без запланированного обновления подберёт sweeper.
	if err := s.scheduler.ScheduleRefresh(ctx, settlement.ID, s.opts.RefreshDelay); err != nil {
		logger(ctx).Error(
			"scheduler.ScheduleRefresh",
			slog.String(logx.FieldSettlementID, settlement.ID.String()),
			logx.Error(err),
		)
	}

	return settlement, true, nil
}

func resolveRoute(in SettlementInput) (source, dest value.Network, destToken string, err error) {
	destToken = strings.TrimSpace(in.DestToken)

	if strings.TrimSpace(in.SourceNetwork) == "" || strings.TrimSpace(in.DestNetwork) == "" || destToken == "" {
		return source, dest, "", domain.NewError(
			errcodes.InvalidSettlement, "sourceNetwork, destNetwork and destToken are required",
		)
	}

	source, ok := value.LookupNetwork(strings.TrimSpace(in.SourceNetwork))
	if !ok {
		return source, dest, "", domain.NewError(errcodes.InvalidSettlement, "unsupported source network")
	}

	dest, ok = value.LookupNetwork(strings.TrimSpace(in.DestNetwork))
	if !ok {
		return source, dest, "", domain.NewError(errcodes.InvalidSettlement, "unsupported destination network")
	}

	return source, dest, destToken, nil
}

// RefreshSettlement запрашивает статус интента у бриджа и сохраняет изменения.
// Завершённый расчёт закрывает сделку, неуспешный переводит её в failed.
// Финальные расчёты возвращаются без изменений.
func (s *DealService) RefreshSettlement(ctx context.Context, settlementID uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.settlements.GetByID(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("settlements.GetByID: %w", err)
	}

	return s.refresh(ctx, settlement)
}

// SettlementStatus возвращает последний расчёт по сделке. Нефинальный расчёт
// сначала обновляется через бридж.
func (s *DealService) SettlementStatus(ctx context.Context, dealID uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.settlements.LatestByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("settlements.LatestByDeal: %w", err)
	}

	return s.refresh(ctx, settlement)
}

func (s *DealService) refresh(ctx context.Context, settlement *entity.Settlement) (*entity.Settlement, error) {
	if settlement.Status.IsTerminal() {
		return settlement, nil
	}

	intent, err := s.intentStatus(ctx, settlement.IntentID)
	if err != nil {
		return nil, err
	}

	if !applyIntent(settlement, intent) {
		return settlement, nil
	}

	if err := s.settlements.UpdateStatus(ctx, settlement); err != nil {
		return nil, fmt.Errorf("settlements.UpdateStatus: %w", err)
	}

	s.metrics.settlements.WithLabelValues(settlement.Status.String()).Inc()

	logger(ctx).Info(
		"settlement status changed",
		slog.String(logx.FieldSettlementID, settlement.ID.String()),
		slog.String(logx.FieldSettlementState, settlement.Status.String()),
	)

	switch settlement.Status { //nolint:exhaustive
	case value.SettlementStatusCompleted:
		deal, err := s.advance(ctx, settlement.DealID, value.DealStatusSettled)
		if err != nil {
			return nil, err
		}

		if err := s.notifier.DealSettled(ctx, *deal, *settlement); err != nil {
			logger(ctx).Warn("notifier.DealSettled", slog.String(logx.FieldDealID, deal.ID.String()), logx.Error(err))
		}
	case value.SettlementStatusFailed:
		if _, err := s.advance(ctx, settlement.DealID, value.DealStatusFailed); err != nil {
			return nil, err
		}
	}

	return settlement, nil
}

// applyIntent переносит интент в расчёт и сообщает, изменилось ли что-то.
// Статус назад не откатывается.
func applyIntent(settlement *entity.Settlement, intent entity.Intent) bool {
	changed := false

	if settlement.Status.Precedes(intent.Status) {
		settlement.Status = intent.Status
		changed = true
	}

	if intent.BridgeTxHash != "" || intent.ExecutionTxHash != "" {
		receipt := &entity.ExecutionReceipt{
			BridgeTxHash:    intent.BridgeTxHash,
			ExecutionTxHash: intent.ExecutionTxHash,
		}

		if settlement.Detail.ExecutionReceipt == nil || *settlement.Detail.ExecutionReceipt != *receipt {
			settlement.Detail.ExecutionReceipt = receipt
			changed = true
		}
	}

	if intent.Error != settlement.Detail.Error {
		settlement.Detail.Error = intent.Error
		changed = true
	}

	return changed
}

// SweepOpen обновляет расчёты, не менявшиеся дольше staleAfter.
// Ошибки логируются, обход продолжается.
func (s *DealService) SweepOpen(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	open, err := s.settlements.ListOpen(ctx, s.now().Add(-staleAfter), limit)
	if err != nil {
		return 0, fmt.Errorf("settlements.ListOpen: %w", err)
	}

	refreshed := 0

	for i := range open {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		if _, err := s.refresh(ctx, &open[i]); err != nil {
			logger(ctx).Error(
				"refresh settlement",
				slog.String(logx.FieldSettlementID, open[i].ID.String()),
				logx.Error(err),
			)
			continue
		}

		refreshed++
	}

	return refreshed, nil
}

type EstimateInput struct {
	SourceNetwork string
	DestNetwork   string
	Amount        decimal.Decimal
}

type Estimate struct {
	EstimatedSeconds int64
	Fee              decimal.Decimal
	Token            string
}

func (s *DealService) EstimateSettlement(ctx context.Context, in EstimateInput) (*Estimate, error) {
	source, dest, _, err := resolveRoute(SettlementInput{
		SourceNetwork: in.SourceNetwork,
		DestNetwork:   in.DestNetwork,
		DestToken:     s.opts.Token,
	})
	if err != nil {
		return nil, err
	}

	if !in.Amount.IsPositive() {
		return nil, domain.NewError(errcodes.InvalidAmount, "amount must be greater than 0")
	}

	started := time.Now()

	estimate, err := s.bridge.Estimate(ctx, entity.BridgeRequest{
		SourceNetwork: source.Name,
		DestNetwork:   dest.Name,
		SourceChainID: source.ChainID,
		DestChainID:   dest.ChainID,
		Token:         s.opts.Token,
		Amount:        value.ToBaseUnits(in.Amount, s.opts.TokenDecimals),
	})
	s.observeBridge("estimate", started, err)

	if err != nil {
		return nil, domain.WrapError(err, errcodes.BridgeUnavailable, "bridge estimate failed")
	}

	return &Estimate{
		EstimatedSeconds: estimate.EstimatedSeconds,
		Fee:              fromBaseUnits(estimate.Fee, s.opts.TokenDecimals),
		Token:            s.opts.Token,
	}, nil
}

func (s *DealService) bridgeAndExecute(ctx context.Context, req entity.BridgeRequest) (entity.Intent, error) {
	started := time.Now()

	intent, err := s.bridge.BridgeAndExecute(ctx, req)
	s.observeBridge("bridge_and_execute", started, err)

	if err != nil {
		return entity.Intent{}, domain.WrapError(err, errcodes.BridgeUnavailable, "bridge request failed")
	}

	return intent, nil
}

// intentStatus опрашивает бридж через короткоживущий кэш.
// Финальные статусы не меняются и остаются в кэше.
func (s *DealService) intentStatus(ctx context.Context, intentID string) (entity.Intent, error) {
	if cached, ok := s.intents.Get(intentID); ok {
		if intent, ok := cached.(entity.Intent); ok {
			return intent, nil
		}
	}

	started := time.Now()

	intent, err := s.bridge.IntentStatus(ctx, intentID)
	s.observeBridge("intent_status", started, err)

	if err != nil {
		return entity.Intent{}, domain.WrapError(err, errcodes.BridgeUnavailable, "bridge status request failed")
	}

	switch {
	case intent.Status.IsTerminal():
		s.intents.Set(intentID, intent, cache.NoExpiration)
	case s.opts.StatusCacheTTL > 0:
		s.intents.Set(intentID, intent, s.opts.StatusCacheTTL)
	}

	return intent, nil
}

func (s *DealService) observeBridge(operation string, started time.Time, err error) {
	s.metrics.bridgeDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())

	if err != nil {
		s.metrics.bridgeErrors.WithLabelValues(operation).Inc()
	}
}

func fromBaseUnits(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(amount, -decimals)
}
