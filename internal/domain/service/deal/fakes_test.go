package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/errcodes"
)

type memoryStore struct {
	mu sync.Mutex

	deals       map[uuid.UUID]entity.Deal
	agreements  map[uuid.UUID]entity.Agreement
	payments    []entity.Payment
	settlements []entity.Settlement

	// takenOnCreate makes Create report a slug conflict once per slug, as if
	// another request inserted it between the check and the insert.
	takenOnCreate map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		deals:         make(map[uuid.UUID]entity.Deal),
		agreements:    make(map[uuid.UUID]entity.Agreement),
		takenOnCreate: make(map[string]bool),
	}
}

type dealRepo struct{ *memoryStore }

func (r dealRepo) Create(_ context.Context, deal *entity.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.takenOnCreate[deal.Slug] {
		delete(r.takenOnCreate, deal.Slug)
		r.deals[uuid.New()] = entity.Deal{Slug: deal.Slug, Status: value.DealStatusCreated}

		return domain.NewError(errcodes.SlugAlreadyInUse, "slug already in use")
	}

	for _, d := range r.deals {
		if d.Slug == deal.Slug {
			return domain.NewError(errcodes.SlugAlreadyInUse, "slug already in use")
		}
	}

	deal.UpdatedAt = deal.CreatedAt
	r.deals[deal.ID] = *deal

	return nil
}

func (r dealRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.deals[id]
	if !ok {
		return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	return &d, nil
}

func (r dealRepo) GetBySlug(_ context.Context, slug string) (*entity.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.deals {
		if d.Slug == slug {
			return &d, nil
		}
	}

	return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
}

func (r dealRepo) SlugsWithBase(_ context.Context, base string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slugs := make([]string, 0)
	for _, d := range r.deals {
		if d.Slug == base || strings.HasPrefix(d.Slug, base+"-") {
			slugs = append(slugs, d.Slug)
		}
	}

	return slugs, nil
}

func (r dealRepo) List(_ context.Context, limit int) ([]entity.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]entity.Deal, 0, len(r.deals))
	for _, d := range r.deals {
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r dealRepo) AdvanceStatus(_ context.Context, id uuid.UUID, next value.DealStatus) (*entity.Deal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.deals[id]
	if !ok {
		return nil, false, domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	if !d.Status.CanAdvanceTo(next) {
		return &d, false, nil
	}

	d.Status = next
	r.deals[id] = d

	return &d, true, nil
}

type agreementRepo struct{ *memoryStore }

func (r agreementRepo) GetByDealID(_ context.Context, dealID uuid.UUID) (*entity.Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agreements[dealID]
	if !ok {
		return nil, domain.NewError(errcodes.AgreementNotFound, "agreement not found")
	}

	return &a, nil
}

func (r agreementRepo) CreateOnce(_ context.Context, agreement *entity.Agreement) (*entity.Agreement, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agreements[agreement.DealID]; ok {
		return &a, false, nil
	}

	r.agreements[agreement.DealID] = *agreement
	stored := *agreement

	return &stored, true, nil
}

type paymentRepo struct{ *memoryStore }

func (r paymentRepo) CreateOnce(_ context.Context, payment *entity.Payment) (*entity.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.DealID == payment.DealID && p.TxHash == payment.TxHash {
			return &p, false, nil
		}
	}

	r.payments = append(r.payments, *payment)
	stored := *payment

	return &stored, true, nil
}

func (r paymentRepo) GetByTxHash(_ context.Context, dealID uuid.UUID, txHash string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.DealID == dealID && p.TxHash == txHash {
			return &p, nil
		}
	}

	return nil, domain.NewError(errcodes.PaymentNotFound, "payment not found")
}

func (r paymentRepo) ListByDeal(_ context.Context, dealID uuid.UUID) ([]entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []entity.Payment
	for _, p := range r.payments {
		if p.DealID == dealID {
			result = append(result, p)
		}
	}

	return result, nil
}

type settlementRepo struct{ *memoryStore }

func (r settlementRepo) CreateOnce(_ context.Context, settlement *entity.Settlement) (*entity.Settlement, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.settlements {
		if s.DealID == settlement.DealID {
			return &s, false, nil
		}
	}

	r.settlements = append(r.settlements, *settlement)
	stored := *settlement

	return &stored, true, nil
}

func (r settlementRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.settlements {
		if s.ID == id {
			return &s, nil
		}
	}

	return nil, domain.NewError(errcodes.SettlementNotFound, "settlement not found")
}

func (r settlementRepo) LatestByDeal(_ context.Context, dealID uuid.UUID) (*entity.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.settlements) - 1; i >= 0; i-- {
		if s := r.settlements[i]; s.DealID == dealID {
			return &s, nil
		}
	}

	return nil, domain.NewError(errcodes.SettlementNotFound, "settlement not found")
}

func (r settlementRepo) UpdateStatus(_ context.Context, settlement *entity.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.settlements {
		if r.settlements[i].ID == settlement.ID {
			r.settlements[i].Status = settlement.Status
			r.settlements[i].Detail = settlement.Detail
			r.settlements[i].UpdatedAt = time.Now()

			return nil
		}
	}

	return domain.NewError(errcodes.SettlementNotFound, "settlement not found")
}

func (r settlementRepo) ListOpen(_ context.Context, before time.Time, limit int) ([]entity.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []entity.Settlement
	for _, s := range r.settlements {
		if !s.Status.IsTerminal() && s.UpdatedAt.Before(before) && len(result) < limit {
			result = append(result, s)
		}
	}

	return result, nil
}

type fakeBridge struct {
	mu       sync.Mutex
	submits  []entity.BridgeRequest
	polls    int
	status   value.SettlementStatus
	errorMsg string
	err      error
}

func (b *fakeBridge) BridgeAndExecute(_ context.Context, req entity.BridgeRequest) (entity.Intent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return entity.Intent{}, b.err
	}

	b.submits = append(b.submits, req)

	return entity.Intent{ID: "intent-" + req.IdempotencyKey, Status: value.SettlementStatusPending}, nil
}

func (b *fakeBridge) IntentStatus(_ context.Context, intentID string) (entity.Intent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return entity.Intent{}, b.err
	}

	b.polls++

	intent := entity.Intent{ID: intentID, Status: b.status, Error: b.errorMsg}
	if b.status == value.SettlementStatusCompleted {
		intent.BridgeTxHash = "0xbridge"
		intent.ExecutionTxHash = "0xexec"
	}

	return intent, nil
}

func (b *fakeBridge) Estimate(context.Context, entity.BridgeRequest) (entity.BridgeEstimate, error) {
	return entity.BridgeEstimate{EstimatedSeconds: 300, Fee: bigInt(1_000_000)}, nil
}

func (b *fakeBridge) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.submits)
}

func (b *fakeBridge) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.polls
}

type scheduled struct {
	settlementID uuid.UUID
	delay        time.Duration
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

func (s *fakeScheduler) ScheduleRefresh(_ context.Context, settlementID uuid.UUID, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, scheduled{settlementID: settlementID, delay: delay})

	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	paid    []uuid.UUID
	settled []uuid.UUID
}

func (n *fakeNotifier) DealPaid(_ context.Context, deal entity.Deal, _ entity.Payment) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.paid = append(n.paid, deal.ID)

	return nil
}

func (n *fakeNotifier) DealSettled(_ context.Context, deal entity.Deal, _ entity.Settlement) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.settled = append(n.settled, deal.ID)

	return nil
}
