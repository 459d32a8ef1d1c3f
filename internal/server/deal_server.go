package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dealmint/internal/domain/entity"
	service "dealmint/internal/domain/service/deal"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/httpx/reply"
	"dealmint/pkg/httpx/req"
	"dealmint/pkg/rest"
)

type dealService interface {
	CreateDeal(context.Context, service.CreateDealInput) (*entity.Deal, error)
	ListDeals(context.Context) ([]entity.Deal, error)
	GetDealDetails(context.Context, string) (*entity.DealDetails, error)
	RunNegotiation(context.Context, uuid.UUID, service.NegotiateInput) (*service.NegotiationOutcome, error)
	GetMandate(context.Context, uuid.UUID) (*service.MandateView, error)
	RecordPayment(context.Context, uuid.UUID, service.RecordPaymentInput) (*entity.Payment, bool, error)
	InitiateSettlement(context.Context, uuid.UUID, service.SettlementInput) (*entity.Settlement, bool, error)
	SettlementStatus(context.Context, uuid.UUID) (*entity.Settlement, error)
	EstimateSettlement(context.Context, service.EstimateInput) (*service.Estimate, error)
}

type DealServer struct {
	dealService dealService
}

func NewDealServer(dealService dealService) DealServer {
	return DealServer{
		dealService: dealService,
	}
}

func (s DealServer) postV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateDealRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	deal, err := s.dealService.CreateDeal(ctx, newCreateDealInput(request))
	if err != nil {
		return fmt.Errorf("dealService.CreateDeal: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTDeal(*deal))

	return nil
}

func (s DealServer) getV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deals, err := s.dealService.ListDeals(ctx)
	if err != nil {
		return fmt.Errorf("dealService.ListDeals: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDealList(deals))

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	details, err := s.dealService.GetDealDetails(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		return fmt.Errorf("dealService.GetDealDetails: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDealDetails(*details))

	return nil
}

func (s DealServer) postV1Negotiation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	dealID, err := dealIDParam(r)
	if err != nil {
		return err
	}

	var request rest.NegotiateRequest

	if err = req.ReadOptional(r, &request); err != nil {
		return fmt.Errorf("req.ReadOptional: %w", err)
	}

	outcome, err := s.dealService.RunNegotiation(ctx, dealID, newNegotiateInput(request))
	if err != nil {
		return fmt.Errorf("dealService.RunNegotiation: %w", err)
	}

	reply.JSON(ctx, w, createdOrOK(outcome.Created), newRESTNegotiation(*outcome))

	return nil
}

func (s DealServer) getV1Mandate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	dealID, err := dealIDParam(r)
	if err != nil {
		return err
	}

	view, err := s.dealService.GetMandate(ctx, dealID)
	if err != nil {
		return fmt.Errorf("dealService.GetMandate: %w", err)
	}

	response, err := newRESTMandate(*view)
	if err != nil {
		return fmt.Errorf("newRESTMandate: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, response)

	return nil
}

func (s DealServer) postV1Payment(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	dealID, err := dealIDParam(r)
	if err != nil {
		return err
	}

	var request rest.RecordPaymentRequest

	if err = req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	payment, created, err := s.dealService.RecordPayment(ctx, dealID, service.RecordPaymentInput{
		TxHash:  request.TxHash,
		Network: request.Network,
	})
	if err != nil {
		return fmt.Errorf("dealService.RecordPayment: %w", err)
	}

	reply.JSON(ctx, w, createdOrOK(created), newRESTPayment(*payment))

	return nil
}

func (s DealServer) postV1Settlement(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	dealID, err := dealIDParam(r)
	if err != nil {
		return err
	}

	var request rest.InitiateSettlementRequest

	if err = req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	settlement, created, err := s.dealService.InitiateSettlement(ctx, dealID, service.SettlementInput{
		SourceNetwork: request.SourceNetwork,
		DestNetwork:   request.DestNetwork,
		DestToken:     request.DestToken,
	})
	if err != nil {
		return fmt.Errorf("dealService.InitiateSettlement: %w", err)
	}

	reply.JSON(ctx, w, createdOrOK(created), newRESTSettlement(*settlement))

	return nil
}

func (s DealServer) getV1SettlementStatus(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	dealID, err := dealIDParam(r)
	if err != nil {
		return err
	}

	settlement, err := s.dealService.SettlementStatus(ctx, dealID)
	if err != nil {
		return fmt.Errorf("dealService.SettlementStatus: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSettlement(*settlement))

	return nil
}

func (s DealServer) getV1SettlementEstimate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("decimal.NewFromString: %w", err),
			failure.WithCode(errcodes.InvalidAmount),
			failure.WithDescription("amount must be a decimal number"),
		)
	}

	estimate, err := s.dealService.EstimateSettlement(ctx, service.EstimateInput{
		SourceNetwork: query.Get("sourceNetwork"),
		DestNetwork:   query.Get("destNetwork"),
		Amount:        amount,
	})
	if err != nil {
		return fmt.Errorf("dealService.EstimateSettlement: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.SettlementEstimate{
		EstimatedSeconds: estimate.EstimatedSeconds,
		Fee:              estimate.Fee.String(),
		Token:            estimate.Token,
	})

	return nil
}

func dealIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("uuid.Parse: %w", err),
			failure.WithCode(errcodes.InvalidDealID),
			failure.WithDescription("deal id must be a UUID"),
		)
	}

	return id, nil
}
