package entity

import (
	"math/big"
	"time"

	"dealmint/internal/domain/value"
)

// BridgeRequest запрос на перевод Amount минимальных единиц Token из исходной
// сети получателю Recipient в целевой. Запросы с одним IdempotencyKey
// приводят к одному интенту.
type BridgeRequest struct {
	IdempotencyKey string
	SourceNetwork  string
	DestNetwork    string
	SourceChainID  int64
	DestChainID    int64
	Token          string
	Amount         *big.Int
	Recipient      string
}

// Intent состояние перевода на стороне бриджа.
type Intent struct {
	ID              string
	Status          value.SettlementStatus
	SourceNetwork   string
	DestNetwork     string
	BridgeTxHash    string
	ExecutionTxHash string
	Error           string
	UpdatedAt       time.Time
}

type BridgeEstimate struct {
	EstimatedSeconds int64
	// Fee в минимальных единицах токена.
	Fee *big.Int
}
