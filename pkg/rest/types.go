// Package rest holds the JSON shapes of the public HTTP API.
package rest

import (
	stdjson "encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type CreateDealRequest struct {
	Title            string          `json:"title" validate:"required,max=200"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	CreatorAddress   string          `json:"creatorAddress" validate:"omitempty,evm_address"`
	AllowNegotiation bool            `json:"allowNegotiation"`
}

type Deal struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Amount           string    `json:"amount"`
	AllowNegotiation bool      `json:"allowNegotiation"`
	Status           string    `json:"status"`
	CreatorAddress   string    `json:"creatorAddress"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type DealList struct {
	Deals []Deal `json:"deals"`
}

type DealDetails struct {
	Deal
	Agreement  *Agreement  `json:"agreement"`
	Payments   []Payment   `json:"payments"`
	Settlement *Settlement `json:"settlement"`
}

type NegotiateRequest struct {
	RequestEarlyPayment *bool  `json:"requestEarlyPayment"`
	RequestBulkDiscount *bool  `json:"requestBulkDiscount"`
	DaysUntilDeadline   *int   `json:"daysUntilDeadline" validate:"omitempty,min=0,max=365"`
	PayerName           string `json:"payerName" validate:"max=100"`
}

type Agreement struct {
	ID          string             `json:"id"`
	DealID      string             `json:"dealId"`
	FinalAmount string             `json:"finalAmount"`
	Deadline    time.Time          `json:"deadline"`
	Mandate     stdjson.RawMessage `json:"mandate"`
	Transcript  stdjson.RawMessage `json:"transcript"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type Negotiation struct {
	Deal      Deal      `json:"deal"`
	Agreement Agreement `json:"agreement"`
}

type Mandate struct {
	Mandate stdjson.RawMessage `json:"mandate"`
	Valid   bool               `json:"valid"`
	Errors  []string           `json:"errors"`
	Expired bool               `json:"expired"`
}

type RecordPaymentRequest struct {
	TxHash  string `json:"txHash" validate:"required,max=66"`
	Network string `json:"network" validate:"required,max=64"`
}

type Payment struct {
	ID          string    `json:"id"`
	DealID      string    `json:"dealId"`
	Token       string    `json:"token"`
	Amount      string    `json:"amount"`
	TxHash      string    `json:"txHash"`
	Network     string    `json:"network"`
	ExplorerURL string    `json:"explorerUrl"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InitiateSettlementRequest struct {
	SourceNetwork string `json:"sourceNetwork" validate:"required,max=64"`
	DestNetwork   string `json:"destNetwork" validate:"required,max=64"`
	DestToken     string `json:"destToken" validate:"required,max=32"`
}

type Settlement struct {
	ID               string            `json:"id"`
	DealID           string            `json:"dealId"`
	SourceNetwork    string            `json:"sourceNetwork"`
	DestNetwork      string            `json:"destNetwork"`
	DestToken        string            `json:"destToken"`
	IntentID         string            `json:"intentId"`
	Status           string            `json:"status"`
	SourceChainID    int64             `json:"sourceChainId"`
	DestChainID      int64             `json:"destChainId"`
	BridgeAmount     string            `json:"bridgeAmount"`
	ExecutionReceipt *ExecutionReceipt `json:"executionReceipt,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type ExecutionReceipt struct {
	BridgeTxHash    string `json:"bridgeTxHash,omitempty"`
	ExecutionTxHash string `json:"executionTxHash,omitempty"`
}

type SettlementEstimate struct {
	EstimatedSeconds int64  `json:"estimatedSeconds"`
	Fee              string `json:"fee"`
	Token            string `json:"token"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code ErrorCode `json:"code"`

	// Message is safe to show to the end user.
	Message string `json:"message"`

	// SupportID is the trace id of the failed request.
	SupportID string `json:"supportId"`
}

type ErrorCode string
