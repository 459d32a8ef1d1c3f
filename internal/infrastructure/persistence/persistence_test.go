package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealmint/internal/domain"
	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/internal/infrastructure/persistence"
	"dealmint/pkg/dbtest"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/tests"
)

const creator = "0x52908400098527886E0F7030069857D2E4169EE7"

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/0001_init.sql"))

	return db
}

func newDeal(t *testing.T, ctx context.Context, repo *persistence.DealRepository) *entity.Deal {
	t.Helper()

	deal := &entity.Deal{
		ID:               uuid.New(),
		Slug:             "deal-" + tests.RandomString(12),
		Title:            "Test Deal",
		Amount:           decimal.RequireFromString("1000.00"),
		AllowNegotiation: true,
		Status:           value.DealStatusCreated,
		CreatorAddress:   creator,
	}
	require.NoError(t, repo.Create(ctx, deal))

	return deal
}

func TestDealRepository(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	repo := persistence.NewDealRepository(db)

	deal := newDeal(t, ctx, repo)

	got, err := repo.GetBySlug(ctx, deal.Slug)
	rq.NoError(err)
	rq.Equal(deal.ID, got.ID)
	rq.True(deal.Amount.Equal(got.Amount))
	rq.Equal(value.DealStatusCreated, got.Status)

	slugs, err := repo.SlugsWithBase(ctx, deal.Slug)
	rq.NoError(err)
	rq.Equal([]string{deal.Slug}, slugs)

	dup := *deal
	dup.ID = uuid.New()
	err = repo.Create(ctx, &dup)
	rq.True(domain.HasCode(err, errcodes.SlugAlreadyInUse))

	_, err = repo.GetByID(ctx, uuid.New())
	rq.True(domain.HasCode(err, errcodes.DealNotFound))

	list, err := repo.List(ctx, 50)
	rq.NoError(err)
	rq.NotEmpty(list)
	rq.LessOrEqual(len(list), 50)
}

func TestDealRepositorySlugsWithBase(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	repo := persistence.NewDealRepository(db)

	base := "launch-" + tests.RandomString(12)
	for _, slug := range []string{base, base + "-1", base + "-7", base + "x"} {
		deal := newDeal(t, ctx, repo)
		_, err := db.ExecContext(ctx, `UPDATE deals SET slug = $1 WHERE id = $2`, slug, deal.ID)
		rq.NoError(err)
	}

	slugs, err := repo.SlugsWithBase(ctx, base)
	rq.NoError(err)
	rq.ElementsMatch([]string{base, base + "-1", base + "-7"}, slugs)
}

func TestDealRepositoryAdvanceStatus(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	repo := persistence.NewDealRepository(db)

	deal := newDeal(t, ctx, repo)

	got, advanced, err := repo.AdvanceStatus(ctx, deal.ID, value.DealStatusPaid)
	rq.NoError(err)
	rq.True(advanced)
	rq.Equal(value.DealStatusPaid, got.Status)

	got, advanced, err = repo.AdvanceStatus(ctx, deal.ID, value.DealStatusNegotiated)
	rq.NoError(err)
	rq.False(advanced)
	rq.Equal(value.DealStatusPaid, got.Status)

	got, advanced, err = repo.AdvanceStatus(ctx, deal.ID, value.DealStatusFailed)
	rq.NoError(err)
	rq.True(advanced)
	rq.Equal(value.DealStatusFailed, got.Status)

	_, advanced, err = repo.AdvanceStatus(ctx, deal.ID, value.DealStatusSettled)
	rq.NoError(err)
	rq.False(advanced)
}

func TestAgreementRepositoryCreateOnce(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	deal := newDeal(t, ctx, persistence.NewDealRepository(db))
	repo := persistence.NewAgreementRepository(db)

	first := &entity.Agreement{
		ID:             uuid.New(),
		DealID:         deal.ID,
		FinalAmount:    decimal.RequireFromString("940.00"),
		Deadline:       time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Second),
		MandateJSON:    []byte(`{"type":"PaymentMandate"}`),
		TranscriptJSON: []byte(`{"protocol":"A2A"}`),
	}

	stored, created, err := repo.CreateOnce(ctx, first)
	rq.NoError(err)
	rq.True(created)
	rq.Equal(first.ID, stored.ID)

	second := *first
	second.ID = uuid.New()
	second.FinalAmount = decimal.RequireFromString("1.00")

	stored, created, err = repo.CreateOnce(ctx, &second)
	rq.NoError(err)
	rq.False(created)
	rq.Equal(first.ID, stored.ID)
	rq.Equal("940", stored.FinalAmount.String())
	rq.JSONEq(`{"type":"PaymentMandate"}`, string(stored.MandateJSON))

	got, err := repo.GetByDealID(ctx, deal.ID)
	rq.NoError(err)
	rq.Equal(first.ID, got.ID)
}

func TestPaymentRepositoryCreateOnce(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	deal := newDeal(t, ctx, persistence.NewDealRepository(db))
	repo := persistence.NewPaymentRepository(db)

	list, err := repo.ListByDeal(ctx, deal.ID)
	rq.NoError(err)
	rq.Empty(list)

	payment := &entity.Payment{
		ID:          uuid.New(),
		DealID:      deal.ID,
		Token:       "PYUSD",
		Amount:      decimal.RequireFromString("940.00"),
		TxHash:      "0x" + tests.RandomString(64),
		Network:     "sepolia",
		ExplorerURL: "https://sepolia.etherscan.io/tx/0x1",
		Status:      value.PaymentStatusConfirmed,
	}

	stored, created, err := repo.CreateOnce(ctx, payment)
	rq.NoError(err)
	rq.True(created)

	again := *payment
	again.ID = uuid.New()

	dup, created, err := repo.CreateOnce(ctx, &again)
	rq.NoError(err)
	rq.False(created)
	rq.Equal(stored.ID, dup.ID)

	list, err = repo.ListByDeal(ctx, deal.ID)
	rq.NoError(err)
	rq.Len(list, 1)
}

func TestSettlementRepository(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	deal := newDeal(t, ctx, persistence.NewDealRepository(db))
	repo := persistence.NewSettlementRepository(db)

	_, err := repo.LatestByDeal(ctx, deal.ID)
	rq.True(domain.HasCode(err, errcodes.SettlementNotFound))

	settlement := &entity.Settlement{
		ID:            uuid.New(),
		DealID:        deal.ID,
		SourceNetwork: "sepolia",
		DestNetwork:   "base-sepolia",
		DestToken:     "USDC",
		IntentID:      "intent_" + tests.RandomString(10),
		Status:        value.SettlementStatusPending,
		Detail: entity.SettlementDetail{
			SourceChainID: 11155111,
			DestChainID:   84532,
			BridgeAmount:  decimal.RequireFromString("940"),
		},
	}

	stored, created, err := repo.CreateOnce(ctx, settlement)
	rq.NoError(err)
	rq.True(created)

	again := *settlement
	again.ID = uuid.New()

	dup, created, err := repo.CreateOnce(ctx, &again)
	rq.NoError(err)
	rq.False(created)
	rq.Equal(stored.ID, dup.ID)

	open, err := repo.ListOpen(ctx, time.Now().Add(time.Minute), 100)
	rq.NoError(err)
	rq.Contains(lo.Map(open, func(s entity.Settlement, _ int) uuid.UUID { return s.ID }), stored.ID)

	stored.Status = value.SettlementStatusCompleted
	stored.Detail.ExecutionReceipt = &entity.ExecutionReceipt{BridgeTxHash: "0xb", ExecutionTxHash: "0xe"}
	rq.NoError(repo.UpdateStatus(ctx, stored))

	got, err := repo.GetByID(ctx, stored.ID)
	rq.NoError(err)
	rq.Equal(value.SettlementStatusCompleted, got.Status)
	rq.Equal("0xe", got.Detail.ExecutionReceipt.ExecutionTxHash)
	rq.Equal(int64(84532), got.Detail.DestChainID)

	_, _, err = repo.CreateOnce(ctx, &entity.Settlement{ID: uuid.New(), DealID: uuid.New(), Status: value.SettlementStatusPending})
	rq.True(domain.HasCode(err, errcodes.DealNotFound))
}
