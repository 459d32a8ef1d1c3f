package mandate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/negotiation"
	"dealmint/internal/domain/value"
)

const (
	sellerAgentName = "DealMint Seller Agent"
	buyerAgentName  = "DealMint Buyer Agent"
	buyerAgentID    = "buyer-agent"

	issuerAgentPrefixLen = 8
)

// Options описывают платёжный канал, указанный в мандатах.
type Options struct {
	Currency       string
	Token          string
	Network        string
	PaymentMethod  string
	SettlementNote string
}

func DefaultOptions() Options {
	return Options{
		Currency:       "USD",
		Token:          "PYUSD",
		Network:        "sepolia",
		PaymentMethod:  "PYUSD ERC-20 Transfer",
		SettlementNote: "Settlement available via Avail Nexus to Base",
	}
}

type Input struct {
	DealID         uuid.UUID
	DealTitle      string
	OriginalAmount decimal.Decimal
	Result         negotiation.Result
	IssuerAddress  string
	PayerName      string
}

type Generator struct {
	opts Options
	now  func() time.Time
}

func NewGenerator(opts Options, now func() time.Time) Generator {
	if now == nil {
		now = time.Now
	}

	return Generator{opts: opts, now: now}
}

func (g Generator) Generate(in Input) PaymentMandate {
	payerName := in.PayerName
	if payerName == "" {
		payerName = buyerAgentName
	}

	deadline := formatTimestamp(in.Result.Deadline)
	original := in.OriginalAmount
	discount := in.Result.TotalDiscount

	return PaymentMandate{
		Type:    TypePaymentMandate,
		Version: Version,
		ID:      "mandate-" + in.DealID.String(),
		Issuer: Issuer{
			Address: in.IssuerAddress,
			Name:    sellerAgentName,
			AgentID: issuerAgentID(in.IssuerAddress),
		},
		Payer: Payer{
			Name:    payerName,
			AgentID: buyerAgentID,
		},
		Amount: Amount{
			Value:    in.Result.FinalAmount,
			Currency: g.opts.Currency,
			Token:    g.opts.Token,
			Network:  g.opts.Network,
		},
		Terms: Terms{
			OriginalAmount: &original,
			Discount:       &discount,
			DiscountReason: in.Result.Reason,
			Deadline:       deadline,
			Conditions: []string{
				fmt.Sprintf("Payment must be made in %s on %s network", g.opts.Token, networkLabel(g.opts.Network)),
				g.opts.SettlementNote,
				"Deal: " + in.DealTitle,
			},
			PaymentMethod: g.opts.PaymentMethod,
		},
		CreatedAt: formatTimestamp(g.now()),
		ExpiresAt: &deadline,
	}
}

// networkLabel название сети для условий. Неизвестная сеть остаётся
// с настроенным именем.
func networkLabel(name string) string {
	if n, ok := value.LookupNetwork(name); ok {
		return n.Label
	}

	return name
}

func issuerAgentID(address string) string {
	if len(address) > issuerAgentPrefixLen {
		address = address[:issuerAgentPrefixLen]
	}

	return "seller-" + address
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
