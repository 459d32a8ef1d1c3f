package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/mandate"
	service "dealmint/internal/domain/service/deal"
	"dealmint/internal/domain/value"
	"dealmint/internal/server"
	"dealmint/pkg/contextx"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/rest"
	"dealmint/pkg/tests"
)

const wallet = "0x52908400098527886E0F7030069857D2E4169EE7"

type stubService struct {
	deal       entity.Deal
	agreement  entity.Agreement
	payment    entity.Payment
	settlement entity.Settlement

	created    bool
	err        error
	lastCreate service.CreateDealInput
	lastWallet contextx.CreatorAddress
	lastNeg    service.NegotiateInput
	lastEst    service.EstimateInput
}

func (s *stubService) CreateDeal(ctx context.Context, in service.CreateDealInput) (*entity.Deal, error) {
	s.lastCreate = in
	s.lastWallet, _ = contextx.CreatorAddressFromContext(ctx)

	if s.err != nil {
		return nil, s.err
	}

	deal := s.deal
	deal.Title = in.Title
	deal.Amount = in.Amount

	return &deal, nil
}

func (s *stubService) ListDeals(context.Context) ([]entity.Deal, error) {
	return []entity.Deal{s.deal, s.deal}, s.err
}

func (s *stubService) GetDealDetails(_ context.Context, slug string) (*entity.DealDetails, error) {
	if s.err != nil {
		return nil, s.err
	}

	if slug != s.deal.Slug {
		return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	return &entity.DealDetails{
		Deal:       s.deal,
		Agreement:  &s.agreement,
		Payments:   []entity.Payment{s.payment},
		Settlement: &s.settlement,
	}, nil
}

func (s *stubService) RunNegotiation(
	_ context.Context,
	_ uuid.UUID,
	in service.NegotiateInput,
) (*service.NegotiationOutcome, error) {
	s.lastNeg = in

	if s.err != nil {
		return nil, s.err
	}

	return &service.NegotiationOutcome{Deal: s.deal, Agreement: s.agreement, Created: s.created}, nil
}

func (s *stubService) GetMandate(context.Context, uuid.UUID) (*service.MandateView, error) {
	if s.err != nil {
		return nil, s.err
	}

	m := mandate.PaymentMandate{Type: mandate.TypePaymentMandate, ID: "mandate-1"}

	return &service.MandateView{
		Mandate:    m,
		Validation: mandate.Check(m),
	}, nil
}

func (s *stubService) RecordPayment(
	context.Context,
	uuid.UUID,
	service.RecordPaymentInput,
) (*entity.Payment, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}

	return &s.payment, s.created, nil
}

func (s *stubService) InitiateSettlement(
	context.Context,
	uuid.UUID,
	service.SettlementInput,
) (*entity.Settlement, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}

	return &s.settlement, s.created, nil
}

func (s *stubService) SettlementStatus(context.Context, uuid.UUID) (*entity.Settlement, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &s.settlement, nil
}

func (s *stubService) EstimateSettlement(_ context.Context, in service.EstimateInput) (*service.Estimate, error) {
	s.lastEst = in

	if s.err != nil {
		return nil, s.err
	}

	return &service.Estimate{EstimatedSeconds: 300, Fee: decimal.NewFromInt(1), Token: "PYUSD"}, nil
}

func newStub() *stubService {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	dealID := uuid.New()

	return &stubService{
		deal: entity.Deal{
			ID:               dealID,
			Slug:             "enterprise-deal",
			Title:            "Enterprise Deal",
			Amount:           decimal.NewFromInt(1000),
			AllowNegotiation: true,
			Status:           value.DealStatusCreated,
			CreatorAddress:   wallet,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		agreement: entity.Agreement{
			ID:             uuid.New(),
			DealID:         dealID,
			FinalAmount:    decimal.RequireFromString("890"),
			Deadline:       now.Add(7 * 24 * time.Hour),
			MandateJSON:    []byte(`{"type":"PaymentMandate"}`),
			TranscriptJSON: []byte(`{"protocol":"A2A"}`),
			CreatedAt:      now,
		},
		payment: entity.Payment{
			ID:      uuid.New(),
			DealID:  dealID,
			Token:   "PYUSD",
			Amount:  decimal.RequireFromString("890"),
			Network: "sepolia",
			Status:  value.PaymentStatusConfirmed,
		},
		settlement: entity.Settlement{
			ID:       uuid.New(),
			DealID:   dealID,
			IntentID: "avail-intent-1",
			Status:   value.SettlementStatusPending,
			Detail: entity.SettlementDetail{
				SourceChainID: 11155111,
				DestChainID:   84532,
				BridgeAmount:  decimal.NewFromInt(890000000),
			},
		},
		created: true,
	}
}

func newClient(t *testing.T, svc *stubService) tests.APIClient {
	t.Helper()

	router := server.NewRouter(
		server.NewServer(server.NewDealServer(svc)),
		server.RouterOptions{LogFieldMaxLen: 1024},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return tests.NewAPIClient(srv.URL, srv.Client())
}

func TestPostV1Deals(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	testCases := []struct {
		name       string
		body       string
		headers    http.Header
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Created",
			body:       `{"title":"Enterprise Deal","amount":"1000","allowNegotiation":true}`,
			headers:    http.Header{"X-Wallet-Address": {"0x52908400098527886e0f7030069857d2e4169ee7"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Numeric amount",
			body:       `{"title":"Enterprise Deal","amount":1000,"creatorAddress":"` + wallet + `"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Missing title",
			body:       `{"amount":"10"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errcodes.ValidationError),
		},
		{
			name:       "Zero amount",
			body:       `{"title":"x","amount":"0"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errcodes.ValidationError),
		},
		{
			name:       "Malformed creator",
			body:       `{"title":"x","amount":"5","creatorAddress":"0x12"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errcodes.ValidationError),
		},
		{
			name:       "Broken JSON",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errcodes.ValidationError),
		},
		{
			name:       "Service rejects address",
			body:       `{"title":"x","amount":"5"}`,
			serviceErr: domain.NewError(errcodes.InvalidAddress, "creator address is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errcodes.InvalidAddress),
		},
	}

	for _, tc := range testCases {
		svc := newStub()
		svc.err = tc.serviceErr
		client := newClient(t, svc)

		var (
			deal    rest.Deal
			errResp rest.Error
		)

		resp, err := client.PostJSON(ctx, "/v1/deals", tc.headers, tc.body, &deal, &errResp)
		rq.NoError(err, tc.name)
		rq.Equal(tc.wantStatus, resp.StatusCode, tc.name)

		if tc.wantCode != "" {
			rq.Equal(tc.wantCode, string(errResp.Code), tc.name)
			rq.NotEmpty(errResp.SupportID, tc.name)

			continue
		}

		rq.Equal("Enterprise Deal", deal.Title, tc.name)
		rq.Equal("1000.00", deal.Amount, tc.name)
		rq.Equal("created", deal.Status, tc.name)
	}
}

func TestPostV1DealsWalletHeader(t *testing.T) {
	rq := require.New(t)

	svc := newStub()
	client := newClient(t, svc)

	resp, err := client.PostJSON(
		context.Background(),
		"/v1/deals",
		http.Header{"X-Wallet-Address": {"0x52908400098527886e0f7030069857d2e4169ee7"}},
		`{"title":"Audit","amount":"12.5"}`,
		nil,
		nil,
	)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)

	rq.Equal(contextx.CreatorAddress(wallet), svc.lastWallet)
	rq.Empty(svc.lastCreate.CreatorAddress)
	rq.True(decimal.RequireFromString("12.5").Equal(svc.lastCreate.Amount))
}

func TestGetV1Deals(t *testing.T) {
	rq := require.New(t)

	var list rest.DealList

	resp, err := newClient(t, newStub()).Get(context.Background(), "/v1/deals", nil, &list, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Len(list.Deals, 2)
}

func TestGetV1Deal(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	client := newClient(t, newStub())

	var details rest.DealDetails

	resp, err := client.Get(ctx, "/v1/deals/enterprise-deal", nil, &details, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal("enterprise-deal", details.Slug)
	rq.NotNil(details.Agreement)
	rq.Equal("890.00", details.Agreement.FinalAmount)
	rq.JSONEq(`{"type":"PaymentMandate"}`, string(details.Agreement.Mandate))
	rq.Len(details.Payments, 1)
	rq.NotNil(details.Settlement)
	rq.Equal("890000000", details.Settlement.BridgeAmount)

	var errResp rest.Error

	resp, err = client.Get(ctx, "/v1/deals/unknown", nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
	rq.Equal(string(errcodes.DealNotFound), string(errResp.Code))
}

func TestPostV1Negotiation(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := newStub()
	client := newClient(t, svc)
	endpoint := "/v1/negotiations/" + svc.deal.ID.String()

	var negotiation rest.Negotiation

	resp, err := client.PostJSON(ctx, endpoint, nil, "", &negotiation, nil)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)
	rq.Equal("890.00", negotiation.Agreement.FinalAmount)
	rq.Nil(svc.lastNeg.RequestEarlyPayment)

	svc.created = false

	resp, err = client.PostJSON(ctx, endpoint, nil, `{"requestBulkDiscount":false,"daysUntilDeadline":2}`, &negotiation, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.NotNil(svc.lastNeg.RequestBulkDiscount)
	rq.False(*svc.lastNeg.RequestBulkDiscount)
	rq.Equal(2, *svc.lastNeg.DaysUntilDeadline)

	var errResp rest.Error

	resp, err = client.PostJSON(ctx, "/v1/negotiations/not-a-uuid", nil, "", nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.InvalidDealID), string(errResp.Code))

	svc.err = domain.NewError(errcodes.NegotiationNotAllowed, "negotiation not allowed for this deal")

	resp, err = client.PostJSON(ctx, endpoint, nil, "", nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	rq.Equal(string(errcodes.NegotiationNotAllowed), string(errResp.Code))
}

func TestGetV1Mandate(t *testing.T) {
	rq := require.New(t)

	svc := newStub()

	var view rest.Mandate

	resp, err := newClient(t, svc).Get(
		context.Background(),
		"/v1/negotiations/"+svc.deal.ID.String()+"/mandate",
		nil,
		&view,
		nil,
	)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.False(view.Valid)
	rq.Contains(view.Errors, mandate.ErrMissingIssuer)
	rq.Contains(string(view.Mandate), `"mandate-1"`)
}

func TestPostV1Payment(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := newStub()
	client := newClient(t, svc)
	endpoint := "/v1/payments/" + svc.deal.ID.String()
	request := rest.RecordPaymentRequest{TxHash: "0xabc", Network: "sepolia"}

	var payment rest.Payment

	resp, err := client.Post(ctx, endpoint, nil, request, &payment, nil)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)
	rq.Equal("890.00", payment.Amount)
	rq.Equal("confirmed", payment.Status)

	svc.created = false

	resp, err = client.Post(ctx, endpoint, nil, request, &payment, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	var errResp rest.Error

	resp, err = client.Post(ctx, endpoint, nil, rest.RecordPaymentRequest{Network: "sepolia"}, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.ValidationError), string(errResp.Code))

	long := rest.RecordPaymentRequest{TxHash: "0xabc", Network: strings.Repeat("n", 65)}

	resp, err = client.Post(ctx, endpoint, nil, long, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.ValidationError), string(errResp.Code))
}

func TestPostV1Settlement(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := newStub()
	client := newClient(t, svc)
	endpoint := "/v1/settlements/" + svc.deal.ID.String()
	request := rest.InitiateSettlementRequest{SourceNetwork: "sepolia", DestNetwork: "base-sepolia", DestToken: "USDC"}

	var settlement rest.Settlement

	resp, err := client.Post(ctx, endpoint, nil, request, &settlement, nil)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)
	rq.Equal("avail-intent-1", settlement.IntentID)
	rq.Equal(int64(84532), settlement.DestChainID)

	var errResp rest.Error

	resp, err = client.Post(ctx, endpoint, nil, rest.InitiateSettlementRequest{SourceNetwork: "sepolia"}, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)

	long := request
	long.DestNetwork = strings.Repeat("n", 65)

	resp, err = client.Post(ctx, endpoint, nil, long, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.ValidationError), string(errResp.Code))

	svc.err = domain.NewError(errcodes.PaymentRequired, "deal has no payment")

	resp, err = client.Post(ctx, endpoint, nil, request, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	rq.Equal(string(errcodes.PaymentRequired), string(errResp.Code))

	svc.err = domain.NewError(errcodes.BridgeUnavailable, "bridge unavailable")

	resp, err = client.Post(ctx, endpoint, nil, request, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadGateway, resp.StatusCode)
}

func TestGetV1SettlementStatus(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := newStub()
	svc.settlement.Status = value.SettlementStatusCompleted
	svc.settlement.Detail.ExecutionReceipt = &entity.ExecutionReceipt{ExecutionTxHash: "0xdef"}
	client := newClient(t, svc)

	var settlement rest.Settlement

	resp, err := client.Get(ctx, "/v1/settlements/"+svc.deal.ID.String()+"/status", nil, &settlement, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal("completed", settlement.Status)
	rq.NotNil(settlement.ExecutionReceipt)
	rq.Equal("0xdef", settlement.ExecutionReceipt.ExecutionTxHash)

	var errResp rest.Error

	svc.err = domain.NewError(errcodes.SettlementNotFound, "settlement not found")

	resp, err = client.Get(ctx, "/v1/settlements/"+svc.deal.ID.String()+"/status", nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestGetV1SettlementEstimate(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := newStub()
	client := newClient(t, svc)

	var estimate rest.SettlementEstimate

	resp, err := client.Get(ctx, "/v1/settlements/estimate?sourceNetwork=sepolia&destNetwork=base-sepolia&amount=890", nil, &estimate, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(int64(300), estimate.EstimatedSeconds)
	rq.Equal("1", estimate.Fee)
	rq.Equal("base-sepolia", svc.lastEst.DestNetwork)

	var errResp rest.Error

	resp, err = client.Get(ctx, "/v1/settlements/estimate?amount=lots", nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.InvalidAmount), string(errResp.Code))

	svc.err = errors.New("boom")

	resp, err = client.Get(ctx, "/v1/settlements/estimate?amount=1", nil, nil, &errResp)
	rq.NoError(err)
	rq.Equal(http.StatusInternalServerError, resp.StatusCode)
	rq.Equal(string(errcodes.InternalServerError), string(errResp.Code))
}
