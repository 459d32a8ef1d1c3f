// Package mandate выпускает и проверяет платёжные мандаты: документы о том,
// кто и сколько должен, в каком токене и на каких условиях.
package mandate

import (
	"github.com/shopspring/decimal"
)

const (
	TypePaymentMandate = "PaymentMandate"
	Version            = "1.0"

	// TimestampLayout формат времени UTC с миллисекундами.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

type PaymentMandate struct {
	Type      string  `json:"type"`
	Version   string  `json:"version"`
	ID        string  `json:"id"`
	Issuer    Issuer  `json:"issuer"`
	Payer     Payer   `json:"payer"`
	Amount    Amount  `json:"amount"`
	Terms     Terms   `json:"terms"`
	CreatedAt string  `json:"createdAt"`
	ExpiresAt *string `json:"expiresAt,omitempty"`
}

type Issuer struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	AgentID string `json:"agentId,omitempty"`
}

type Payer struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name"`
	AgentID string `json:"agentId,omitempty"`
}

type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
	Token    string          `json:"token"`
	Network  string          `json:"network,omitempty"`
}

type Terms struct {
	OriginalAmount *decimal.Decimal `json:"originalAmount,omitempty"`
	Discount       *decimal.Decimal `json:"discount,omitempty"`
	DiscountReason string           `json:"discountReason,omitempty"`
	Deadline       string           `json:"deadline"`
	Conditions     []string         `json:"conditions,omitempty"`
	PaymentMethod  string           `json:"paymentMethod,omitempty"`
}
