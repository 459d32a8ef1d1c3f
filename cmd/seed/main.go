// Command seed fills an empty database with one demo deal taken through the
// whole checkout: negotiated, paid and settled.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"dealmint/internal/config"
	"dealmint/internal/domain"
	service "dealmint/internal/domain/service/deal"
	"dealmint/internal/domain/value"
	"dealmint/internal/infrastructure/bridge"
	"dealmint/internal/infrastructure/lock"
	"dealmint/internal/infrastructure/persistence"
	"dealmint/pkg/application/connectors"
	"dealmint/pkg/contextx"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	demoTitle   = "Enterprise Software License - Q4 2025"
	demoCreator = "0x1234567890123456789012345678901234567890"
	demoTxHash  = "0xabcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
)

func main() {
	log := logx.NewLogger(os.Stdout, slog.LevelInfo, "dealmint-seed", "dev")
	slog.SetDefault(log)

	ctx := contextx.WithLogger(context.Background(), log)

	if err := run(ctx); err != nil {
		log.Error("seed failed", logx.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	svc := service.NewDealService(
		service.Repositories{
			Deals:       persistence.NewDealRepository(db),
			Agreements:  persistence.NewAgreementRepository(db),
			Payments:    persistence.NewPaymentRepository(db),
			Settlements: persistence.NewSettlementRepository(db),
		},
		bridge.NewSimulator(bridge.SimulatorOptions{}, time.Now),
		lock.NewLocal(),
		service.DefaultOptions(),
	)

	slug := value.BaseSlug(demoTitle)

	_, err = svc.GetDealDetails(ctx, slug)
	switch {
	case err == nil:
		logger(ctx).Info("demo deal already exists", slog.String("slug", slug))
		return nil
	case !domain.HasCode(err, errcodes.DealNotFound):
		return fmt.Errorf("svc.GetDealDetails: %w", err)
	}

	deal, err := svc.CreateDeal(ctx, service.CreateDealInput{
		Title:            demoTitle,
		Amount:           decimal.NewFromInt(1000),
		CreatorAddress:   demoCreator,
		AllowNegotiation: true,
	})
	if err != nil {
		return fmt.Errorf("svc.CreateDeal: %w", err)
	}

	outcome, err := svc.RunNegotiation(ctx, deal.ID, service.NegotiateInput{})
	if err != nil {
		return fmt.Errorf("svc.RunNegotiation: %w", err)
	}

	payment, _, err := svc.RecordPayment(ctx, deal.ID, service.RecordPaymentInput{
		TxHash:  demoTxHash,
		Network: "sepolia",
	})
	if err != nil {
		return fmt.Errorf("svc.RecordPayment: %w", err)
	}

	settlement, _, err := svc.InitiateSettlement(ctx, deal.ID, service.SettlementInput{
		SourceNetwork: "sepolia",
		DestNetwork:   "base-sepolia",
		DestToken:     "USDC",
	})
	if err != nil {
		return fmt.Errorf("svc.InitiateSettlement: %w", err)
	}

	settlement, err = svc.RefreshSettlement(ctx, settlement.ID)
	if err != nil {
		return fmt.Errorf("svc.RefreshSettlement: %w", err)
	}

	logger(ctx).Info(
		"demo deal seeded",
		slog.String("slug", deal.Slug),
		slog.String("final-amount", outcome.Agreement.FinalAmount.StringFixed(2)),
		slog.String(logx.FieldTxHash, payment.TxHash),
		slog.String(logx.FieldSettlementState, settlement.Status.String()),
	)

	return nil
}
