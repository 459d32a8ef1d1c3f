package negotiation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleSeller Role = "seller-agent"
	RoleBuyer  Role = "buyer-agent"
)

type MessageType string

const (
	MessageOffer        MessageType = "offer"
	MessageCounterOffer MessageType = "counter-offer"
	MessageAccept       MessageType = "accept"
	MessageReject       MessageType = "reject"
	MessageNegotiate    MessageType = "negotiate"
	MessageQuery        MessageType = "query"
	MessageResponse     MessageType = "response"
)

const (
	TranscriptProtocol = "A2A"
	TranscriptVersion  = "1.0"
)

// Искусственные сдвиги делают время сообщений строго возрастающим.
const (
	counterOfferOffset = 1 * time.Second
	negotiateOffset    = 2 * time.Second
	acceptOffset       = 3 * time.Second
)

type Message struct {
	Timestamp time.Time      `json:"timestamp"`
	From      Role           `json:"from"`
	To        Role           `json:"to"`
	Type      MessageType    `json:"type"`
	Content   MessageContent `json:"content"`
}

type MessageContent struct {
	Message        string           `json:"message"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	ProposedAmount *decimal.Decimal `json:"proposedAmount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"finalAmount,omitempty"`
	Discount       *decimal.Decimal `json:"discount,omitempty"`
}

type AgentCard struct {
	Name         string        `json:"name"`
	Capabilities []MessageType `json:"capabilities"`
	Version      string        `json:"version"`
}

type Participants struct {
	Seller AgentCard `json:"seller"`
	Buyer  AgentCard `json:"buyer"`
}

type Transcript struct {
	Protocol     string       `json:"protocol"`
	Version      string       `json:"version"`
	Messages     []Message    `json:"messages"`
	Participants Participants `json:"participants"`
}

// BuildTranscript воспроизводит рассчитанный результат как фиксированный
// диалог: продавец предлагает цену, покупатель просит каждую скидку,
// продавец соглашается.
func BuildTranscript(dealTitle string, result Result, start time.Time) Transcript {
	start = start.UTC()

	messages := []Message{{
		Timestamp: start,
		From:      RoleSeller,
		To:        RoleBuyer,
		Type:      MessageOffer,
		Content: MessageContent{
			Message: "Initial offer: $" + result.OriginalAmount.String() + " for " + dealTitle,
			Amount:  ptr(result.OriginalAmount),
		},
	}}

	running := result.OriginalAmount

	for _, d := range result.Discounts {
		running = running.Sub(d.Amount)

		switch d.Kind {
		case DiscountEarlyPayment:
			messages = append(messages, Message{
				Timestamp: start.Add(counterOfferOffset),
				From:      RoleBuyer,
				To:        RoleSeller,
				Type:      MessageCounterOffer,
				Content: MessageContent{
					Message:        "Requesting early payment discount",
					ProposedAmount: ptr(running.Round(2)),
				},
			})
		case DiscountBulk:
			messages = append(messages, Message{
				Timestamp: start.Add(negotiateOffset),
				From:      RoleBuyer,
				To:        RoleSeller,
				Type:      MessageNegotiate,
				Content: MessageContent{
					Message:        "Requesting bulk purchase discount",
					ProposedAmount: ptr(running.Round(2)),
				},
			})
		case DiscountUrgency:
			// Продавец даёт её сам, она видна только в принятии.
		}
	}

	messages = append(messages, Message{
		Timestamp: start.Add(acceptOffset),
		From:      RoleSeller,
		To:        RoleBuyer,
		Type:      MessageAccept,
		Content: MessageContent{
			Message:     acceptMessage(result),
			FinalAmount: ptr(result.FinalAmount),
			Discount:    ptr(result.TotalDiscount),
		},
	})

	return Transcript{
		Protocol: TranscriptProtocol,
		Version:  TranscriptVersion,
		Messages: messages,
		Participants: Participants{
			Seller: AgentCard{
				Name:         "DealMint Seller Agent",
				Capabilities: []MessageType{MessageOffer, MessageAccept, MessageNegotiate},
				Version:      TranscriptVersion,
			},
			Buyer: AgentCard{
				Name:         "DealMint Buyer Agent",
				Capabilities: []MessageType{MessageCounterOffer, MessageNegotiate, MessageAccept},
				Version:      TranscriptVersion,
			},
		},
	}
}

func acceptMessage(result Result) string {
	if len(result.Discounts) == 0 {
		return "Accepted at original price"
	}

	reasons := make([]string, 0, len(result.Discounts))
	for _, d := range result.Discounts {
		reasons = append(reasons, d.Reason)
	}

	return "Accepted: " + strings.Join(reasons, " + ") + " applied"
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
