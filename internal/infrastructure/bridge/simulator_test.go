package bridge_test

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
	"dealmint/internal/infrastructure/bridge"
)

func TestSimulator(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sim := bridge.NewSimulator(bridge.SimulatorOptions{CompleteAfter: 5 * time.Second}, clock)

	req := entity.BridgeRequest{
		IdempotencyKey: "deal-1",
		SourceNetwork:  "sepolia",
		DestNetwork:    "base-sepolia",
		Token:          "PYUSD",
		Amount:         big.NewInt(940_000_000),
		Recipient:      "0x52908400098527886E0F7030069857D2E4169EE7",
	}

	intent, err := sim.BridgeAndExecute(ctx, req)
	rq.NoError(err)
	rq.True(strings.HasPrefix(intent.ID, "avail-intent-"))
	rq.Equal(value.SettlementStatusPending, intent.Status)

	again, err := sim.BridgeAndExecute(ctx, req)
	rq.NoError(err)
	rq.Equal(intent.ID, again.ID)

	other, err := sim.BridgeAndExecute(ctx, entity.BridgeRequest{IdempotencyKey: "deal-2"})
	rq.NoError(err)
	rq.NotEqual(intent.ID, other.ID)

	status, err := sim.IntentStatus(ctx, intent.ID)
	rq.NoError(err)
	rq.Equal(value.SettlementStatusBridging, status.Status)
	rq.Empty(status.BridgeTxHash)

	now = now.Add(5 * time.Second)

	status, err = sim.IntentStatus(ctx, intent.ID)
	rq.NoError(err)
	rq.Equal(value.SettlementStatusCompleted, status.Status)
	rq.Len(status.BridgeTxHash, 66)
	rq.Len(status.ExecutionTxHash, 66)

	final, err := sim.IntentStatus(ctx, intent.ID)
	rq.NoError(err)
	rq.Equal(status, final)

	_, err = sim.IntentStatus(ctx, "missing")
	rq.ErrorIs(err, bridge.ErrIntentNotFound)

	estimate, err := sim.Estimate(ctx, req)
	rq.NoError(err)
	rq.Equal(int64(300), estimate.EstimatedSeconds)
	rq.Equal("1000000", estimate.Fee.String())
}

func TestSimulatorHonoursContext(t *testing.T) {
	sim := bridge.NewSimulator(bridge.SimulatorOptions{SubmitDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.BridgeAndExecute(ctx, entity.BridgeRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
