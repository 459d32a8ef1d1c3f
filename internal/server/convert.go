package server

import (
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"dealmint/internal/domain/entity"
	service "dealmint/internal/domain/service/deal"
	"dealmint/pkg/lox"
	"dealmint/pkg/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

func newCreateDealInput(request rest.CreateDealRequest) service.CreateDealInput {
	return service.CreateDealInput{
		Title:            request.Title,
		Amount:           request.Amount,
		CreatorAddress:   request.CreatorAddress,
		AllowNegotiation: request.AllowNegotiation,
	}
}

func newNegotiateInput(request rest.NegotiateRequest) service.NegotiateInput {
	return service.NegotiateInput{
		RequestEarlyPayment: request.RequestEarlyPayment,
		RequestBulkDiscount: request.RequestBulkDiscount,
		DaysUntilDeadline:   request.DaysUntilDeadline,
		PayerName:           request.PayerName,
	}
}

func newRESTDeal(deal entity.Deal) rest.Deal {
	return rest.Deal{
		ID:               deal.ID.String(),
		Slug:             deal.Slug,
		Title:            deal.Title,
		Amount:           deal.Amount.StringFixed(2),
		AllowNegotiation: deal.AllowNegotiation,
		Status:           deal.Status.String(),
		CreatorAddress:   deal.CreatorAddress,
		CreatedAt:        deal.CreatedAt,
		UpdatedAt:        deal.UpdatedAt,
	}
}

func newRESTDealList(deals []entity.Deal) rest.DealList {
	return rest.DealList{
		Deals: lox.Map(deals, newRESTDeal),
	}
}

func newRESTDealDetails(details entity.DealDetails) rest.DealDetails {
	response := rest.DealDetails{
		Deal:     newRESTDeal(details.Deal),
		Payments: lox.Map(details.Payments, newRESTPayment),
	}

	if details.Agreement != nil {
		agreement := newRESTAgreement(*details.Agreement)
		response.Agreement = &agreement
	}

	if details.Settlement != nil {
		settlement := newRESTSettlement(*details.Settlement)
		response.Settlement = &settlement
	}

	return response
}

func newRESTAgreement(agreement entity.Agreement) rest.Agreement {
	return rest.Agreement{
		ID:          agreement.ID.String(),
		DealID:      agreement.DealID.String(),
		FinalAmount: agreement.FinalAmount.StringFixed(2),
		Deadline:    agreement.Deadline,
		Mandate:     stdjson.RawMessage(agreement.MandateJSON),
		Transcript:  stdjson.RawMessage(agreement.TranscriptJSON),
		CreatedAt:   agreement.CreatedAt,
	}
}

func newRESTNegotiation(outcome service.NegotiationOutcome) rest.Negotiation {
	return rest.Negotiation{
		Deal:      newRESTDeal(outcome.Deal),
		Agreement: newRESTAgreement(outcome.Agreement),
	}
}

func newRESTMandate(view service.MandateView) (rest.Mandate, error) {
	raw, err := json.Marshal(view.Mandate)
	if err != nil {
		return rest.Mandate{}, fmt.Errorf("json.Marshal: %w", err)
	}

	return rest.Mandate{
		Mandate: raw,
		Valid:   view.Validation.Valid,
		Errors:  view.Validation.Errors,
		Expired: view.Expired,
	}, nil
}

func newRESTPayment(payment entity.Payment) rest.Payment {
	return rest.Payment{
		ID:          payment.ID.String(),
		DealID:      payment.DealID.String(),
		Token:       payment.Token,
		Amount:      payment.Amount.StringFixed(2),
		TxHash:      payment.TxHash,
		Network:     payment.Network,
		ExplorerURL: payment.ExplorerURL,
		Status:      payment.Status.String(),
		CreatedAt:   payment.CreatedAt,
	}
}

func newRESTSettlement(settlement entity.Settlement) rest.Settlement {
	response := rest.Settlement{
		ID:            settlement.ID.String(),
		DealID:        settlement.DealID.String(),
		SourceNetwork: settlement.SourceNetwork,
		DestNetwork:   settlement.DestNetwork,
		DestToken:     settlement.DestToken,
		IntentID:      settlement.IntentID,
		Status:        settlement.Status.String(),
		SourceChainID: settlement.Detail.SourceChainID,
		DestChainID:   settlement.Detail.DestChainID,
		BridgeAmount:  settlement.Detail.BridgeAmount.String(),
		Error:         settlement.Detail.Error,
		CreatedAt:     settlement.CreatedAt,
		UpdatedAt:     settlement.UpdatedAt,
	}

	if receipt := settlement.Detail.ExecutionReceipt; receipt != nil {
		response.ExecutionReceipt = &rest.ExecutionReceipt{
			BridgeTxHash:    receipt.BridgeTxHash,
			ExecutionTxHash: receipt.ExecutionTxHash,
		}
	}

	return response
}
