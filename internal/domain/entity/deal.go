package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/value"
)

type Deal struct {
	ID               uuid.UUID
	Slug             string
	Title            string
	Amount           decimal.Decimal
	AllowNegotiation bool
	Status           value.DealStatus
	CreatorAddress   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DealDetails сделка со всеми связанными данными для страницы оплаты.
type DealDetails struct {
	Deal       Deal
	Agreement  *Agreement
	Payments   []Payment
	Settlement *Settlement
}

// PayableAmount сумма по соглашению, если оно есть, иначе исходная цена.
func PayableAmount(deal Deal, agreement *Agreement) decimal.Decimal {
	if agreement != nil {
		return agreement.FinalAmount
	}

	return deal.Amount
}
