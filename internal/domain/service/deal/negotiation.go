package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/mandate"
	"dealmint/internal/domain/negotiation"
	"dealmint/internal/domain/value"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

//nolint:gochecknoglobals
var bulkDefaultThreshold = decimal.NewFromInt(500)

// NegotiateInput параметры переговоров. Для nil-полей: ранняя оплата
// запрошена, оптовая скидка запрошена при сумме от 500, срок семь дней.
type NegotiateInput struct {
	RequestEarlyPayment *bool
	RequestBulkDiscount *bool
	DaysUntilDeadline   *int
	PayerName           string
}

type NegotiationOutcome struct {
	Deal      entity.Deal
	Agreement entity.Agreement
	// Created равен false, если соглашение уже было заключено ранее.
	Created bool
}

func (s *DealService) RunNegotiation(
	ctx context.Context,
	dealID uuid.UUID,
	in NegotiateInput,
) (*NegotiationOutcome, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("deals.GetByID: %w", err)
	}

	if !deal.AllowNegotiation {
		return nil, domain.NewError(errcodes.NegotiationNotAllowed, "negotiation not allowed for this deal")
	}

	existing, err := s.findAgreement(ctx, deal.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return &NegotiationOutcome{Deal: *deal, Agreement: *existing}, nil
	}

	outcome, err := s.engine().Negotiate(deal.Title, negotiationInput(deal.Amount, in))
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InvalidNegotiation, err.Error())
	}

	m := s.mandates().Generate(mandate.Input{
		DealID:         deal.ID,
		DealTitle:      deal.Title,
		OriginalAmount: deal.Amount,
		Result:         outcome.Result,
		IssuerAddress:  deal.CreatorAddress,
		PayerName:      strings.TrimSpace(in.PayerName),
	})

	if errs := mandate.Validate(m); len(errs) > 0 {
		return nil, domain.NewError(errcodes.InvalidMandate, strings.Join(errs, "; "))
	}

	mandateJSON, err := json.Marshal(m)
	if err != nil {
		return nil, domain.Internal(err, "failed to encode mandate")
	}

	transcriptJSON, err := json.Marshal(outcome.Transcript)
	if err != nil {
		return nil, domain.Internal(err, "failed to encode transcript")
	}

	agreement, created, err := s.agreements.CreateOnce(ctx, &entity.Agreement{
		ID:             uuid.New(),
		DealID:         deal.ID,
		FinalAmount:    outcome.Result.FinalAmount,
		Deadline:       outcome.Result.Deadline,
		MandateJSON:    mandateJSON,
		TranscriptJSON: transcriptJSON,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("agreements.CreateOnce: %w", err)
	}

	if !created {
		return &NegotiationOutcome{Deal: *deal, Agreement: *agreement}, nil
	}

	deal, err = s.advance(ctx, deal.ID, value.DealStatusNegotiated)
	if err != nil {
		return nil, err
	}

	s.metrics.negotiations.Inc()
	s.metrics.discountPercent.Observe(
		outcome.Result.TotalDiscount.Div(deal.Amount).Mul(decimal.NewFromInt(100)).InexactFloat64(),
	)

	logger(ctx).Info(
		"negotiation completed",
		slog.String(logx.FieldDealID, deal.ID.String()),
		slog.String("final-amount", agreement.FinalAmount.StringFixed(value.AmountPlaces)),
		slog.String("reason", outcome.Result.Reason),
	)

	return &NegotiationOutcome{Deal: *deal, Agreement: *agreement, Created: true}, nil
}

func negotiationInput(amount decimal.Decimal, in NegotiateInput) negotiation.Input {
	result := negotiation.Input{
		OriginalAmount:      amount,
		RequestEarlyPayment: true,
		RequestBulkDiscount: amount.GreaterThanOrEqual(bulkDefaultThreshold),
		DaysUntilDeadline:   negotiation.DefaultDaysUntilDeadline,
	}

	if in.RequestEarlyPayment != nil {
		result.RequestEarlyPayment = *in.RequestEarlyPayment
	}

	if in.RequestBulkDiscount != nil {
		result.RequestBulkDiscount = *in.RequestBulkDiscount
	}

	if in.DaysUntilDeadline != nil {
		result.DaysUntilDeadline = *in.DaysUntilDeadline
	}

	return result
}

type MandateView struct {
	Mandate    mandate.PaymentMandate
	Validation mandate.ValidationResult
	Expired    bool
}

// GetMandate декодирует мандат из соглашения и заново его проверяет.
func (s *DealService) GetMandate(ctx context.Context, dealID uuid.UUID) (*MandateView, error) {
	agreement, err := s.agreements.GetByDealID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("agreements.GetByDealID: %w", err)
	}

	var m mandate.PaymentMandate
	if err := json.Unmarshal(agreement.MandateJSON, &m); err != nil {
		return nil, domain.Internal(err, "failed to decode mandate")
	}

	return &MandateView{
		Mandate:    m,
		Validation: mandate.Check(m),
		Expired:    mandate.Expired(m, s.now()),
	}, nil
}
