package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/mandate"
	"dealmint/internal/domain/negotiation"
	"dealmint/internal/domain/value"
	"dealmint/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const ListLimit = 50

type DealRepository interface {
	Create(ctx context.Context, deal *entity.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Deal, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Deal, error)
	// SlugsWithBase возвращает base и все занятые слаги вида base-<suffix>.
	SlugsWithBase(ctx context.Context, base string) ([]string, error)
	List(ctx context.Context, limit int) ([]entity.Deal, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, next value.DealStatus) (*entity.Deal, bool, error)
}

type AgreementRepository interface {
	GetByDealID(ctx context.Context, dealID uuid.UUID) (*entity.Agreement, error)
	CreateOnce(ctx context.Context, agreement *entity.Agreement) (*entity.Agreement, bool, error)
}

type PaymentRepository interface {
	CreateOnce(ctx context.Context, payment *entity.Payment) (*entity.Payment, bool, error)
	GetByTxHash(ctx context.Context, dealID uuid.UUID, txHash string) (*entity.Payment, error)
	ListByDeal(ctx context.Context, dealID uuid.UUID) ([]entity.Payment, error)
}

type SettlementRepository interface {
	CreateOnce(ctx context.Context, settlement *entity.Settlement) (*entity.Settlement, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)
	LatestByDeal(ctx context.Context, dealID uuid.UUID) (*entity.Settlement, error)
	UpdateStatus(ctx context.Context, settlement *entity.Settlement) error
	ListOpen(ctx context.Context, before time.Time, limit int) ([]entity.Settlement, error)
}

// Bridge сервис межсетевого перевода.
type Bridge interface {
	BridgeAndExecute(ctx context.Context, req entity.BridgeRequest) (entity.Intent, error)
	IntentStatus(ctx context.Context, intentID string) (entity.Intent, error)
	Estimate(ctx context.Context, req entity.BridgeRequest) (entity.BridgeEstimate, error)
}

// Locker не даёт параллельно запускать расчёт по одной сделке.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context), err error)
}

// RefreshScheduler планирует обновление расчёта через delay.
type RefreshScheduler interface {
	ScheduleRefresh(ctx context.Context, settlementID uuid.UUID, delay time.Duration) error
}

type Notifier interface {
	DealPaid(ctx context.Context, deal entity.Deal, payment entity.Payment) error
	DealSettled(ctx context.Context, deal entity.Deal, settlement entity.Settlement) error
}

type Repositories struct {
	Deals       DealRepository
	Agreements  AgreementRepository
	Payments    PaymentRepository
	Settlements SettlementRepository
}

type Options struct {
	// Token символ токена платежей и перевода.
	Token         string
	TokenDecimals int32
	RefreshDelay  time.Duration
	// StatusCacheTTL ограничивает частоту опроса одного интента.
	StatusCacheTTL time.Duration
	Mandate        mandate.Options
}

func DefaultOptions() Options {
	return Options{
		Token:          "PYUSD",
		TokenDecimals:  6,
		RefreshDelay:   5 * time.Second,
		StatusCacheTTL: 2 * time.Second,
		Mandate:        mandate.DefaultOptions(),
	}
}

type DealService struct {
	deals       DealRepository
	agreements  AgreementRepository
	payments    PaymentRepository
	settlements SettlementRepository

	bridge    Bridge
	locker    Locker
	scheduler RefreshScheduler
	notifier  Notifier
	metrics   *Metrics

	intents *cache.Cache
	opts    Options
	now     func() time.Time
}

func NewDealService(
	repos Repositories,
	bridge Bridge,
	locker Locker,
	opts Options,
) *DealService {
	return &DealService{
		deals:       repos.Deals,
		agreements:  repos.Agreements,
		payments:    repos.Payments,
		settlements: repos.Settlements,
		bridge:      bridge,
		locker:      locker,
		scheduler:   nopScheduler{},
		notifier:    nopNotifier{},
		metrics:     NewMetrics(prometheus.NewRegistry()),
		intents:     cache.New(opts.StatusCacheTTL, time.Minute),
		opts:        opts,
		now:         time.Now,
	}
}

// WithScheduler задаёт планировщик отложенных обновлений. Подключается после
// создания сервиса, так как обработчик планировщика вызывает сам сервис.
func (s *DealService) WithScheduler(scheduler RefreshScheduler) *DealService {
	s.scheduler = scheduler
	return s
}

func (s *DealService) WithNotifier(notifier Notifier) *DealService {
	s.notifier = notifier
	return s
}

func (s *DealService) WithMetrics(metrics *Metrics) *DealService {
	s.metrics = metrics
	return s
}

func (s *DealService) WithClock(now func() time.Time) *DealService {
	s.now = now
	return s
}

func (s *DealService) engine() negotiation.Engine {
	return negotiation.NewEngine(s.now)
}

func (s *DealService) mandates() mandate.Generator {
	return mandate.NewGenerator(s.opts.Mandate, s.now)
}

type nopScheduler struct{}

func (nopScheduler) ScheduleRefresh(context.Context, uuid.UUID, time.Duration) error { return nil }

type nopNotifier struct{}

func (nopNotifier) DealPaid(context.Context, entity.Deal, entity.Payment) error { return nil }

func (nopNotifier) DealSettled(context.Context, entity.Deal, entity.Settlement) error { return nil }
