package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/value"
)

type Settlement struct {
	ID            uuid.UUID
	DealID        uuid.UUID
	SourceNetwork string
	DestNetwork   string
	DestToken     string
	IntentID      string
	Status        value.SettlementStatus
	Detail        SettlementDetail
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SettlementDetail хранится JSON-ом рядом со строкой расчёта.
type SettlementDetail struct {
	SourceChainID    int64             `json:"sourceChainId"`
	DestChainID      int64             `json:"destChainId"`
	BridgeAmount     decimal.Decimal   `json:"bridgeAmount"`
	ExecutionReceipt *ExecutionReceipt `json:"executionReceipt,omitempty"`
	Error            string            `json:"error,omitempty"`
}

type ExecutionReceipt struct {
	BridgeTxHash    string `json:"bridgeTxHash,omitempty"`
	ExecutionTxHash string `json:"executionTxHash,omitempty"`
}
