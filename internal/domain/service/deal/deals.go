package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/contextx"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

type CreateDealInput struct {
	Title  string
	Amount decimal.Decimal
	// CreatorAddress по умолчанию берётся из кошелька в контексте.
	CreatorAddress   string
	AllowNegotiation bool
}

func (s *DealService) CreateDeal(ctx context.Context, in CreateDealInput) (*entity.Deal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewError(errcodes.InvalidDeal, "title is required")
	}

	amount := value.RoundAmount(in.Amount)
	if !amount.IsPositive() {
		return nil, domain.NewError(errcodes.InvalidAmount, "amount must be greater than 0")
	}

	creator, err := creatorAddress(ctx, in.CreatorAddress)
	if err != nil {
		return nil, err
	}

	base := value.BaseSlug(title)

	taken, err := s.deals.SlugsWithBase(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("deals.SlugsWithBase: %w", err)
	}

	used := lo.Keyify(taken)

	for n := 0; ; n++ {
		slug := value.SlugCandidate(base, n)
		if _, ok := used[slug]; ok {
			continue
		}

		deal := &entity.Deal{
			ID:               uuid.New(),
			Slug:             slug,
			Title:            title,
			Amount:           amount,
			AllowNegotiation: in.AllowNegotiation,
			Status:           value.DealStatusCreated,
			CreatorAddress:   creator,
			CreatedAt:        s.now(),
		}

		if err := s.deals.Create(ctx, deal); err != nil {
			// Слаг заняли параллельно, пробуем следующий.
			if domain.HasCode(err, errcodes.SlugAlreadyInUse) {
				used[slug] = struct{}{}
				continue
			}
			return nil, fmt.Errorf("deals.Create: %w", err)
		}

		s.metrics.dealsCreated.Inc()

		logger(ctx).Info(
			"deal created",
			slog.String(logx.FieldDealID, deal.ID.String()),
			slog.String("slug", deal.Slug),
			slog.String("amount", deal.Amount.StringFixed(value.AmountPlaces)),
		)

		return deal, nil
	}
}

func creatorAddress(ctx context.Context, explicit string) (string, error) {
	address := strings.TrimSpace(explicit)

	if address == "" {
		fromCtx, err := contextx.CreatorAddressFromContext(ctx)
		if err != nil {
			return "", domain.NewError(errcodes.InvalidAddress, "creator address is required")
		}
		address = fromCtx.String()
	}

	if !common.IsHexAddress(address) {
		return "", domain.NewError(errcodes.InvalidAddress, "creator address is not a valid EVM address")
	}

	return common.HexToAddress(address).Hex(), nil
}

// ListDeals возвращает последние созданные сделки.
func (s *DealService) ListDeals(ctx context.Context) ([]entity.Deal, error) {
	deals, err := s.deals.List(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("deals.List: %w", err)
	}

	return deals, nil
}

// GetDealDetails загружает сделку по слагу вместе с соглашением, платежами
// и последним расчётом.
func (s *DealService) GetDealDetails(ctx context.Context, slug string) (*entity.DealDetails, error) {
	deal, err := s.deals.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("deals.GetBySlug: %w", err)
	}

	details := &entity.DealDetails{Deal: *deal}

	details.Agreement, err = s.findAgreement(ctx, deal.ID)
	if err != nil {
		return nil, err
	}

	details.Payments, err = s.payments.ListByDeal(ctx, deal.ID)
	if err != nil {
		return nil, fmt.Errorf("payments.ListByDeal: %w", err)
	}

	settlement, err := s.settlements.LatestByDeal(ctx, deal.ID)
	switch {
	case err == nil:
		details.Settlement = settlement
	case !domain.HasCode(err, errcodes.SettlementNotFound):
		return nil, fmt.Errorf("settlements.LatestByDeal: %w", err)
	}

	return details, nil
}

// findAgreement возвращает nil без ошибки, если соглашения нет.
func (s *DealService) findAgreement(ctx context.Context, dealID uuid.UUID) (*entity.Agreement, error) {
	agreement, err := s.agreements.GetByDealID(ctx, dealID)
	if err != nil {
		if domain.HasCode(err, errcodes.AgreementNotFound) {
			return nil, nil //nolint:nilnil
		}
		return nil, fmt.Errorf("agreements.GetByDealID: %w", err)
	}

	return agreement, nil
}

// advance продвигает сделку вперёд и логирует переход. Сделка, уже
// прошедшая next, не меняется.
func (s *DealService) advance(ctx context.Context, dealID uuid.UUID, next value.DealStatus) (*entity.Deal, error) {
	deal, advanced, err := s.deals.AdvanceStatus(ctx, dealID, next)
	if err != nil {
		return nil, fmt.Errorf("deals.AdvanceStatus: %w", err)
	}

	if advanced {
		logger(ctx).Info(
			"deal status changed",
			slog.String(logx.FieldDealID, dealID.String()),
			slog.String(logx.FieldDealStatus, deal.Status.String()),
		)
	}

	return deal, nil
}
