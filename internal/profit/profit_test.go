package profit

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
	calls  map[uint64]int
}

func (f *fakeOracle) PricePerShareAt(_ context.Context, block uint64) (*big.Int, error) {
	if f.calls != nil {
		f.calls[block]++
	}
	price, ok := f.prices[block]
	if !ok {
		return nil, fmt.Errorf("no price for block %d", block)
	}
	return big.NewInt(price), nil
}

func snapshot(block uint64, balance int64) model.PositionSnapshot {
	return model.PositionSnapshot{
		BlockNumber:  block,
		Kind:         model.KindDeposit,
		ShareBalance: big.NewInt(balance),
	}
}

// One asset unit with 6 decimals.
const (
	decimals = 6
	unit     = 1_000_000
)

func TestEndToEndSingleDeposit(t *testing.T) {
	// Deposit 1000 for 1000 shares at a PPS of 1.0; the PPS later rises to
	// 1.2 with a 10% performance fee.
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{100: 1 * unit}}

	snapshots := []model.PositionSnapshot{snapshot(100, 1000*unit)}
	currentPrice := big.NewInt(12 * unit / 10)
	currentShares := big.NewInt(1000 * unit)

	result, err := Calculate(ctx, oracle, snapshots, 1000, currentPrice, currentShares, decimals)
	require.NoError(t, err)

	require.Zero(t, result.NetProfit.Cmp(big.NewInt(200*unit)))
	wantGross := new(big.Int).Mul(big.NewInt(200*unit), big.NewInt(10000))
	wantGross.Quo(wantGross, big.NewInt(9000))
	require.Zero(t, result.GrossProfit.Cmp(wantGross))
	require.Zero(t, result.TotalFees.Cmp(new(big.Int).Sub(wantGross, big.NewInt(200*unit))))
	require.Zero(t, result.EffectiveShares.Cmp(currentShares))
}

func TestFeeReversalRoundTrip(t *testing.T) {
	// net 100 at 10% reverses to gross 111, fee 11 under integer division.
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{1: unit}}

	snapshots := []model.PositionSnapshot{snapshot(1, 100 * unit)}
	currentPrice := big.NewInt(unit + unit/100) // +1% on 100 units held

	result, err := Calculate(ctx, oracle, snapshots, 1000, currentPrice, big.NewInt(100*unit), decimals)
	require.NoError(t, err)

	require.Zero(t, result.NetProfit.Cmp(big.NewInt(unit)))
	require.Equal(t, "1111111", result.GrossProfit.String())
	require.Equal(t, "111111", result.TotalFees.String())
}

func TestLossesAreNotFeeAdjusted(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{1: unit}}

	snapshots := []model.PositionSnapshot{snapshot(1, 100 * unit)}
	currentPrice := big.NewInt(unit / 2)

	result, err := Calculate(ctx, oracle, snapshots, 1000, currentPrice, big.NewInt(100*unit), decimals)
	require.NoError(t, err)

	require.Negative(t, result.NetProfit.Sign())
	require.Zero(t, result.GrossProfit.Cmp(result.NetProfit))
	require.Zero(t, result.TotalFees.Sign())
}

func TestDegenerateFeeRateChargesNothing(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{1: unit}}

	snapshots := []model.PositionSnapshot{snapshot(1, 100 * unit)}
	currentPrice := big.NewInt(2 * unit)

	for _, bps := range []uint64{10000, 12000} {
		result, err := Calculate(ctx, oracle, snapshots, bps, currentPrice, big.NewInt(100*unit), decimals)
		require.NoError(t, err)
		require.Zero(t, result.GrossProfit.Cmp(result.NetProfit))
		require.Zero(t, result.TotalFees.Sign())
	}
}

func TestProfitAttributedToBalanceHeldDuringMove(t *testing.T) {
	// Balance doubles at block 2, then the price rises. Only the price
	// movement after block 2 is earned by the doubled balance; the rise
	// between blocks 1 and 2 is earned by the original balance.
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{
		1: 1 * unit,
		2: 11 * unit / 10,
	}}

	snapshots := []model.PositionSnapshot{
		snapshot(1, 100*unit),
		snapshot(2, 200*unit),
	}
	currentPrice := big.NewInt(12 * unit / 10)

	result, err := Calculate(ctx, oracle, snapshots, 0, currentPrice, big.NewInt(200*unit), decimals)
	require.NoError(t, err)

	// 100 * 0.1 + 200 * 0.1 = 30
	require.Zero(t, result.NetProfit.Cmp(big.NewInt(30*unit)))
}

func TestNoSnapshotsYieldsZeroProfit(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	result, err := Calculate(ctx, oracle, nil, 1000, big.NewInt(unit), new(big.Int), decimals)
	require.NoError(t, err)

	require.Zero(t, result.NetProfit.Sign())
	require.Zero(t, result.TotalFees.Sign())
}

func TestOracleFailurePropagates(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{}

	snapshots := []model.PositionSnapshot{snapshot(7, 100)}
	_, err := Calculate(ctx, oracle, snapshots, 1000, big.NewInt(unit), big.NewInt(100), decimals)
	require.Error(t, err)
	require.Contains(t, err.Error(), "block 7")
}

func TestSeriesMatchesProfitFold(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{prices: map[uint64]int64{
		1: 1 * unit,
		2: 11 * unit / 10,
	}}

	snapshots := []model.PositionSnapshot{
		snapshot(1, 100*unit),
		snapshot(2, 200*unit),
	}
	currentPrice := big.NewInt(12 * unit / 10)
	currentShares := big.NewInt(200 * unit)

	series, err := BuildSeries(ctx, oracle, snapshots, decimals, currentPrice, currentShares, 99)
	require.NoError(t, err)
	require.Len(t, series, 3)

	result, err := Calculate(ctx, oracle, snapshots, 0, currentPrice, currentShares, decimals)
	require.NoError(t, err)

	final := series[len(series)-1]
	require.Equal(t, uint64(99), final.Block)
	require.Zero(t, final.Profit.Cmp(result.NetProfit))
	require.Zero(t, final.Shares.Cmp(currentShares))
}

func TestSampleSeriesKeepsEndpoints(t *testing.T) {
	series := make([]Point, 10)
	for i := range series {
		series[i] = Point{Block: uint64(i), Shares: big.NewInt(int64(i)), Profit: new(big.Int)}
	}

	sampled := SampleSeries(series, 4)
	require.Len(t, sampled, 4)
	require.Equal(t, uint64(0), sampled[0].Block)
	require.Equal(t, uint64(9), sampled[len(sampled)-1].Block)

	// Short series pass through untouched.
	require.Len(t, SampleSeries(series, 20), 10)
}
