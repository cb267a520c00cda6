package basis

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultScope/internal/model"
)

type fakeOracle struct {
	prices map[uint64]int64
}

func (f *fakeOracle) PricePerShareAt(_ context.Context, block uint64) (*big.Int, error) {
	price, ok := f.prices[block]
	if !ok {
		return nil, fmt.Errorf("no price for block %d", block)
	}
	return big.NewInt(price), nil
}

func deposit(block uint64, shares, assets int64) model.Event {
	return model.Event{
		Kind:        model.KindDeposit,
		BlockNumber: block,
		Deposit:     &model.DepositData{Shares: big.NewInt(shares), Assets: big.NewInt(assets)},
	}
}

func withdraw(block uint64, shares int64) model.Event {
	return model.Event{
		Kind:        model.KindWithdraw,
		BlockNumber: block,
		Withdraw:    &model.WithdrawData{Shares: big.NewInt(shares), Assets: big.NewInt(0)},
	}
}

func transferIn(block uint64, value int64) model.Event {
	return model.Event{
		Kind:        model.KindTransferIn,
		BlockNumber: block,
		Transfer:    &model.TransferData{Value: big.NewInt(value)},
	}
}

func transferOut(block uint64, value int64) model.Event {
	return model.Event{
		Kind:        model.KindTransferOut,
		BlockNumber: block,
		Transfer:    &model.TransferData{Value: big.NewInt(value)},
	}
}

// With 6 decimals the scale is 1_000_000.
const decimals = 6

func TestDepositsOnlyMatchExactAverage(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	events := []model.Event{
		deposit(1, 1_000_000, 1_000_000),
		deposit(2, 2_000_000, 2_400_000),
	}

	tracker, err := Track(ctx, events, oracle, decimals)
	require.NoError(t, err)

	// sum(assets) * scale / sum(shares)
	want := new(big.Int).Mul(big.NewInt(3_400_000), model.DecimalScale(decimals))
	want.Quo(want, big.NewInt(3_000_000))
	require.Zero(t, tracker.WeightedAverageEntryPrice().Cmp(want))
}

func TestProportionalReductionKeepsBasisConsistent(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	tracker, err := Track(ctx, []model.Event{
		deposit(1, 1000, 500),
		withdraw(2, 400),
	}, oracle, decimals)
	require.NoError(t, err)

	// 40% of shares removed takes 40% of the cost with it.
	require.Zero(t, tracker.TotalShares().Cmp(big.NewInt(600)))
	require.Zero(t, tracker.TotalCost().Cmp(big.NewInt(300)))
}

func TestReductionCapsAtTrackedShares(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	tracker, err := Track(ctx, []model.Event{
		deposit(1, 100, 100),
		withdraw(2, 250),
	}, oracle, decimals)
	require.NoError(t, err)

	require.Zero(t, tracker.TotalShares().Sign())
	require.Zero(t, tracker.TotalCost().Sign())
}

func TestReductionOnEmptyBasisIsNoOp(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	tracker, err := Track(ctx, []model.Event{
		withdraw(1, 50),
		transferOut(2, 25),
	}, oracle, decimals)
	require.NoError(t, err)

	require.Zero(t, tracker.TotalShares().Sign())
	require.Zero(t, tracker.TotalCost().Sign())
	require.Zero(t, tracker.WeightedAverageEntryPrice().Sign())
}

func TestTransferInValuedAtBlockPrice(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{5: 1_200_000}}

	tracker, err := Track(ctx, []model.Event{
		transferIn(5, 2_000_000),
	}, oracle, decimals)
	require.NoError(t, err)

	// 2 shares at a PPS of 1.2 cost 2.4 asset units.
	require.Zero(t, tracker.TotalShares().Cmp(big.NewInt(2_000_000)))
	require.Zero(t, tracker.TotalCost().Cmp(big.NewInt(2_400_000)))
}

func TestOracleFailurePropagates(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{} // no prices at all

	_, err := Track(ctx, []model.Event{transferIn(9, 10)}, oracle, decimals)
	require.Error(t, err)
	require.Contains(t, err.Error(), "block 9")
}

func TestInvariantHoldsAtEveryStep(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{3: 1_100_000}}

	events := []model.Event{
		deposit(1, 500, 450),
		withdraw(2, 200),
		transferIn(3, 300),
		transferOut(4, 700),
		withdraw(5, 100),
	}

	tracker := NewTracker(decimals)
	for _, event := range events {
		require.NoError(t, tracker.Apply(ctx, event, oracle))
		require.GreaterOrEqual(t, tracker.TotalCost().Sign(), 0)
		require.GreaterOrEqual(t, tracker.TotalShares().Sign(), 0)
		if tracker.TotalShares().Sign() == 0 {
			require.Zero(t, tracker.TotalCost().Sign())
		}
	}
}
