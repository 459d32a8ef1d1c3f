package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Agreement итог переговоров. MandateJSON и TranscriptJSON хранят документы
// в том виде, в котором они были выданы.
type Agreement struct {
	ID             uuid.UUID
	DealID         uuid.UUID
	FinalAmount    decimal.Decimal
	Deadline       time.Time
	MandateJSON    []byte
	TranscriptJSON []byte
	CreatedAt      time.Time
}
