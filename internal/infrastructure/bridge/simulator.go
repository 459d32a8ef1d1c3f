package bridge

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/xid"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/pkg/logx"
)

const (
	simulatedEstimateSeconds = 300
	simulatedFeeBaseUnits    = 1_000_000
	txHashBytes              = 32
)

type SimulatorOptions struct {
	// SubmitDelay is spent inside BridgeAndExecute.
	SubmitDelay time.Duration
	// StatusDelay is spent inside IntentStatus.
	StatusDelay time.Duration
	// CompleteAfter is how long an intent stays in bridging before it
	// reports completed. Zero completes on the first status query.
	CompleteAfter time.Duration
}

// Simulator stands in for the bridging service. Every intent completes.
type Simulator struct {
	opts SimulatorOptions
	now  func() time.Time

	mu      sync.Mutex
	byKey   map[string]string
	intents map[string]*simulatedIntent
}

type simulatedIntent struct {
	intent    entity.Intent
	createdAt time.Time
}

func NewSimulator(opts SimulatorOptions, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}

	return &Simulator{
		opts:    opts,
		now:     now,
		byKey:   make(map[string]string),
		intents: make(map[string]*simulatedIntent),
	}
}

func (s *Simulator) BridgeAndExecute(ctx context.Context, req entity.BridgeRequest) (entity.Intent, error) {
	if err := sleep(ctx, s.opts.SubmitDelay); err != nil {
		return entity.Intent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return s.intents[id].intent, nil
	}

	now := s.now()
	id := fmt.Sprintf("avail-intent-%d-%s", now.UnixMilli(), xid.New().String())

	intent := entity.Intent{
		ID:            id,
		Status:        value.SettlementStatusPending,
		SourceNetwork: req.SourceNetwork,
		DestNetwork:   req.DestNetwork,
		UpdatedAt:     now,
	}

	s.intents[id] = &simulatedIntent{intent: intent, createdAt: now}
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = id
	}

	logger(ctx).Info(
		"simulated bridge intent created",
		slog.String(logx.FieldIntentID, id),
		slog.String("source-network", req.SourceNetwork),
		slog.String("dest-network", req.DestNetwork),
		slog.String("amount", req.Amount.String()),
	)

	return intent, nil
}

func (s *Simulator) IntentStatus(ctx context.Context, intentID string) (entity.Intent, error) {
	if err := sleep(ctx, s.opts.StatusDelay); err != nil {
		return entity.Intent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	si, ok := s.intents[intentID]
	if !ok {
		return entity.Intent{}, fmt.Errorf("%w: %s", ErrIntentNotFound, intentID)
	}

	if si.intent.Status.IsTerminal() {
		return si.intent, nil
	}

	now := s.now()
	si.intent.UpdatedAt = now

	if now.Sub(si.createdAt) < s.opts.CompleteAfter {
		si.intent.Status = value.SettlementStatusBridging
		return si.intent, nil
	}

	si.intent.Status = value.SettlementStatusCompleted
	si.intent.BridgeTxHash = randomTxHash()
	si.intent.ExecutionTxHash = randomTxHash()

	return si.intent, nil
}

func (s *Simulator) Estimate(context.Context, entity.BridgeRequest) (entity.BridgeEstimate, error) {
	return entity.BridgeEstimate{
		EstimatedSeconds: simulatedEstimateSeconds,
		Fee:              big.NewInt(simulatedFeeBaseUnits),
	}, nil
}

func randomTxHash() string {
	b := make([]byte, txHashBytes)
	_, _ = rand.Read(b)

	return hexutil.Encode(b)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
