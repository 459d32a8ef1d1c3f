package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/value"
)

type Payment struct {
	ID          uuid.UUID
	DealID      uuid.UUID
	Token       string
	Amount      decimal.Decimal
	TxHash      string
	Network     string
	ExplorerURL string
	Status      value.PaymentStatus
	CreatedAt   time.Time
}
