package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
)

//nolint:gochecknoglobals
var json = jsoniter.ConfigCompatibleWithStandardLibrary

type dealSchema struct {
	ID               uuid.UUID       `db:"id"`
	Slug             string          `db:"slug"`
	Title            string          `db:"title"`
	Amount           decimal.Decimal `db:"amount"`
	AllowNegotiation bool            `db:"allow_negotiation"`
	Status           string          `db:"status"`
	CreatorAddress   string          `db:"creator_address"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func fromDeal(d *entity.Deal) *dealSchema {
	return &dealSchema{
		ID:               d.ID,
		Slug:             d.Slug,
		Title:            d.Title,
		Amount:           d.Amount,
		AllowNegotiation: d.AllowNegotiation,
		Status:           d.Status.String(),
		CreatorAddress:   d.CreatorAddress,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (s *dealSchema) toDomain() (*entity.Deal, error) {
	status, err := value.ParseDealStatus(s.Status)
	if err != nil {
		return nil, fmt.Errorf("deal %s: %w", s.ID, err)
	}

	return &entity.Deal{
		ID:               s.ID,
		Slug:             s.Slug,
		Title:            s.Title,
		Amount:           s.Amount,
		AllowNegotiation: s.AllowNegotiation,
		Status:           status,
		CreatorAddress:   s.CreatorAddress,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}, nil
}

type agreementSchema struct {
	ID          uuid.UUID       `db:"id"`
	DealID      uuid.UUID       `db:"deal_id"`
	FinalAmount decimal.Decimal `db:"final_amount"`
	Deadline    time.Time       `db:"deadline"`
	Mandate     []byte          `db:"mandate"`
	Transcript  []byte          `db:"transcript"`
	CreatedAt   time.Time       `db:"created_at"`
}

func fromAgreement(a *entity.Agreement) *agreementSchema {
	return &agreementSchema{
		ID:          a.ID,
		DealID:      a.DealID,
		FinalAmount: a.FinalAmount,
		Deadline:    a.Deadline,
		Mandate:     a.MandateJSON,
		Transcript:  a.TranscriptJSON,
		CreatedAt:   a.CreatedAt,
	}
}

func (s *agreementSchema) toDomain() *entity.Agreement {
	return &entity.Agreement{
		ID:             s.ID,
		DealID:         s.DealID,
		FinalAmount:    s.FinalAmount,
		Deadline:       s.Deadline,
		MandateJSON:    s.Mandate,
		TranscriptJSON: s.Transcript,
		CreatedAt:      s.CreatedAt,
	}
}

type paymentSchema struct {
	ID          uuid.UUID       `db:"id"`
	DealID      uuid.UUID       `db:"deal_id"`
	Token       string          `db:"token"`
	Amount      decimal.Decimal `db:"amount"`
	TxHash      string          `db:"tx_hash"`
	Network     string          `db:"network"`
	ExplorerURL string          `db:"explorer_url"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}

func fromPayment(p *entity.Payment) *paymentSchema {
	return &paymentSchema{
		ID:          p.ID,
		DealID:      p.DealID,
		Token:       p.Token,
		Amount:      p.Amount,
		TxHash:      p.TxHash,
		Network:     p.Network,
		ExplorerURL: p.ExplorerURL,
		Status:      p.Status.String(),
		CreatedAt:   p.CreatedAt,
	}
}

func (s *paymentSchema) toDomain() *entity.Payment {
	return &entity.Payment{
		ID:          s.ID,
		DealID:      s.DealID,
		Token:       s.Token,
		Amount:      s.Amount,
		TxHash:      s.TxHash,
		Network:     s.Network,
		ExplorerURL: s.ExplorerURL,
		Status:      value.PaymentStatus(s.Status),
		CreatedAt:   s.CreatedAt,
	}
}

type settlementSchema struct {
	ID            uuid.UUID `db:"id"`
	DealID        uuid.UUID `db:"deal_id"`
	SourceNetwork string    `db:"source_network"`
	DestNetwork   string    `db:"dest_network"`
	DestToken     string    `db:"dest_token"`
	IntentID      string    `db:"intent_id"`
	Status        string    `db:"status"`
	Detail        []byte    `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func fromSettlement(s *entity.Settlement) (*settlementSchema, error) {
	detail, err := json.Marshal(s.Detail)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return &settlementSchema{
		ID:            s.ID,
		DealID:        s.DealID,
		SourceNetwork: s.SourceNetwork,
		DestNetwork:   s.DestNetwork,
		DestToken:     s.DestToken,
		IntentID:      s.IntentID,
		Status:        s.Status.String(),
		Detail:        detail,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

func (s *settlementSchema) toDomain() (*entity.Settlement, error) {
	status, err := value.ParseSettlementStatus(s.Status)
	if err != nil {
		return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
	}

	var detail entity.SettlementDetail
	if len(s.Detail) > 0 {
		if err := json.Unmarshal(s.Detail, &detail); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}

	return &entity.Settlement{
		ID:            s.ID,
		DealID:        s.DealID,
		SourceNetwork: s.SourceNetwork,
		DestNetwork:   s.DestNetwork,
		DestToken:     s.DestToken,
		IntentID:      s.IntentID,
		Status:        status,
		Detail:        detail,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}
