// Package application wires the checkout service together and runs its
// modules until the context is cancelled.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dealmint/internal/config"
	service "dealmint/internal/domain/service/deal"
	"dealmint/internal/infrastructure/bridge"
	"dealmint/internal/infrastructure/lock"
	"dealmint/internal/infrastructure/notifier"
	"dealmint/internal/infrastructure/persistence"
	"dealmint/internal/server"
	"dealmint/internal/transport/bot"
	"dealmint/internal/worker"
	"dealmint/pkg/application/connectors"
	"dealmint/pkg/application/modules"
	"dealmint/pkg/contextx"
	"dealmint/pkg/logx"
)

const (
	httpReadHeaderTimeout = 5 * time.Second
	lockPrefix            = "dealmint:lock:"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

func Run(ctx context.Context, cfg config.Config) error { //nolint:funlen
	g, ctx := errgroup.WithContext(ctx)

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(context.WithoutCancel(ctx))

	repos := service.Repositories{
		Deals:       persistence.NewDealRepository(db),
		Agreements:  persistence.NewAgreementRepository(db),
		Payments:    persistence.NewPaymentRepository(db),
		Settlements: persistence.NewSettlementRepository(db),
	}

	bridgeClient, err := newBridge(cfg.Bridge, cfg.HTTP.LogFieldMaxLen)
	if err != nil {
		return fmt.Errorf("newBridge: %w", err)
	}

	var locker service.Locker = lock.NewLocal()

	if cfg.Redis.Enabled() {
		rdb := &connectors.Redis{
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		defer rdb.Close(context.WithoutCancel(ctx))

		locker = lock.NewRedis(rdb.Client(ctx), lockPrefix, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	}

	dealService := service.NewDealService(repos, bridgeClient, locker, serviceOptions(cfg)).
		WithMetrics(service.NewMetrics(prometheus.DefaultRegisterer))

	if cfg.Redis.Enabled() {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DatabaseNumber,
		}

		asynqClient := asynq.NewClient(redisOpt)
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger(ctx).Error("asynqClient.Close", logx.Error(err))
			}
		}()

		dealService.WithScheduler(worker.NewAsynqScheduler(asynqClient, cfg.Redis.AsynqQueue, cfg.Settlement.RefreshAttempts))

		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,
			Concurrency:   cfg.Redis.AsynqConcurrency,
			RetryDelay:    cfg.Settlement.RetryDelay,
			Logger:        lo.Must(zap.NewProduction()).Sugar(),
		}.Run(
			ctx,
			g,
			modules.AsynqQueues{cfg.Redis.AsynqQueue: 1},
			worker.RefreshHandler(dealService),
		)
	} else {
		timers := worker.NewTimerScheduler(dealService)
		defer func() {
			logger(ctx).Info("stopping refresh timers", slog.Int("pending", timers.Pending()))
			timers.Stop()
		}()

		dealService.WithScheduler(timers)
	}

	if cfg.Bot.Enabled() && cfg.Bot.ChatID != 0 {
		telegram, err := notifier.NewTelegram(cfg.Bot.Token, cfg.Bot.ChatID)
		if err != nil {
			return fmt.Errorf("notifier.NewTelegram: %w", err)
		}

		dealService.WithNotifier(telegram)
	}

	sweeper := worker.NewSettlementSweeper(dealService).
		WithInterval(cfg.Settlement.SweepInterval).
		WithStaleAfter(cfg.Settlement.SweepStaleAfter).
		WithBatch(cfg.Settlement.SweepBatch)

	if err = sweeper.Start(ctx); err != nil {
		return fmt.Errorf("sweeper.Start: %w", err)
	}
	defer sweeper.Stop()

	if cfg.Bot.Enabled() && cfg.Bot.AdminID != 0 {
		opsBot, err := bot.New(cfg.Bot.Token, cfg.Bot.AdminID, dealService, sweeper)
		if err != nil {
			return fmt.Errorf("bot.New: %w", err)
		}

		g.Go(func() error {
			if err := opsBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("opsBot.Run: %w", err)
			}

			return nil
		})
	}

	router := server.NewRouter(
		server.NewServer(server.NewDealServer(dealService)),
		server.RouterOptions{
			SensitiveDataMasker: logx.NewSensitiveDataMasker(),
			LogFieldMaxLen:      cfg.HTTP.LogFieldMaxLen,
		},
	)

	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, httpServer)
	modules.ProbeServer{Name: cfg.App.Name, Version: cfg.App.Version, ListenAddress: cfg.Probe.ListenAddress}.Run(ctx, g)
	modules.MetricServer{ListenAddress: cfg.Metrics.ListenAddress}.Run(ctx, g)

	logger(ctx).Info(
		"application started",
		slog.String("bridge-mode", string(cfg.Bridge.Mode)),
		slog.Bool("redis", cfg.Redis.Enabled()),
		slog.Bool("bot", cfg.Bot.Enabled()),
	)

	if err = g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

func newBridge(cfg config.Bridge, logFieldMaxLen int) (service.Bridge, error) {
	if cfg.Mode == config.BridgeModeHTTP {
		client, err := bridge.NewClient(bridge.ClientOptions{
			Endpoint:          cfg.Endpoint,
			APIKey:            cfg.APIKey,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
			LogFieldMaxLen:    logFieldMaxLen,
		})
		if err != nil {
			return nil, fmt.Errorf("bridge.NewClient: %w", err)
		}

		return client, nil
	}

	return bridge.NewSimulator(bridge.SimulatorOptions{
		SubmitDelay:   cfg.SubmitDelay,
		StatusDelay:   cfg.StatusDelay,
		CompleteAfter: cfg.CompleteAfter,
	}, time.Now), nil
}

func serviceOptions(cfg config.Config) service.Options {
	opts := service.DefaultOptions()

	opts.Token = cfg.Checkout.Token
	opts.TokenDecimals = cfg.Checkout.TokenDecimals
	opts.RefreshDelay = cfg.Settlement.RefreshDelay
	opts.StatusCacheTTL = cfg.Settlement.StatusCacheTTL

	opts.Mandate.Currency = cfg.Checkout.Currency
	opts.Mandate.Token = cfg.Checkout.Token
	opts.Mandate.Network = cfg.Checkout.Network

	return opts
}
