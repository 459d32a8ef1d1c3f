package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

const txHashLen = 32

type RecordPaymentInput struct {
	TxHash  string
	Network string
}

// RecordPayment сохраняет платёж с кошелька покупателя. Повторный хеш
// транзакции по той же сделке возвращает первую запись с created = false.
func (s *DealService) RecordPayment(
	ctx context.Context,
	dealID uuid.UUID,
	in RecordPaymentInput,
) (payment *entity.Payment, created bool, err error) {
	txHash, network, err := normalizePayment(in)
	if err != nil {
		return nil, false, err
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, false, fmt.Errorf("deals.GetByID: %w", err)
	}

	existing, err := s.payments.GetByTxHash(ctx, deal.ID, txHash)
	switch {
	case err == nil:
		return existing, false, nil
	case !domain.HasCode(err, errcodes.PaymentNotFound):
		return nil, false, fmt.Errorf("payments.GetByTxHash: %w", err)
	}

	agreement, err := s.findAgreement(ctx, deal.ID)
	if err != nil {
		return nil, false, err
	}

	payment, created, err = s.payments.CreateOnce(ctx, &entity.Payment{
		ID:          uuid.New(),
		DealID:      deal.ID,
		Token:       s.opts.Token,
		Amount:      entity.PayableAmount(*deal, agreement),
		TxHash:      txHash,
		Network:     network,
		ExplorerURL: value.ExplorerTxURL(network, txHash),
		// Перевод отправлен кошельком покупателя, квитанция в сети не проверяется.
		Status:    value.PaymentStatusConfirmed,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("payments.CreateOnce: %w", err)
	}

	if !created {
		return payment, false, nil
	}

	deal, err = s.advance(ctx, deal.ID, value.DealStatusPaid)
	if err != nil {
		return nil, false, err
	}

	s.metrics.payments.WithLabelValues(value.CanonicalNetwork(network)).Inc()

	logger(ctx).Info(
		"payment recorded",
		slog.String(logx.FieldDealID, deal.ID.String()),
		slog.String(logx.FieldTxHash, txHash),
		slog.String("network", network),
		slog.String("amount", payment.Amount.StringFixed(value.AmountPlaces)),
	)

	if err := s.notifier.DealPaid(ctx, *deal, *payment); err != nil {
		logger(ctx).Warn("notifier.DealPaid", slog.String(logx.FieldDealID, deal.ID.String()), logx.Error(err))
	}

	return payment, true, nil
}

func normalizePayment(in RecordPaymentInput) (txHash, network string, err error) {
	txHash = strings.ToLower(strings.TrimSpace(in.TxHash))
	network = strings.ToLower(strings.TrimSpace(in.Network))

	if txHash == "" || network == "" {
		return "", "", domain.NewError(errcodes.InvalidPayment, "txHash and network are required")
	}

	raw, err := hexutil.Decode(txHash)
	if err != nil || len(raw) != txHashLen {
		return "", "", domain.NewError(errcodes.InvalidTxHash, "txHash must be a 32-byte hex string")
	}

	return txHash, network, nil
}
