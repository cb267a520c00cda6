package profit

import (
	"context"
	"fmt"
	"math/big"

	"vaultScope/internal/model"
)

const basisPoints = 10000

// PriceOracle resolves the vault price-per-share at an exact block,
// scaled by 10^decimals. Implementations must memoize per block.
type PriceOracle interface {
	PricePerShareAt(ctx context.Context, block uint64) (*big.Int, error)
}

// Calculate runs the incremental mark-to-market pass over position
// snapshots and reverses the performance fee out of the result.
//
// Profit for each price movement is attributed to the share balance held
// while the price moved, so balance changes never retroactively affect
// profit accrued before their block. The fee reversal models the
// performance fee as taken off gross profit (net = gross - fee,
// fee = gross * bps / 10000); losses are not fee-adjusted, and a rate at
// or above 100% is degenerate and charges nothing. The model assumes the
// performance fee applies to all gross profit each period; a vault with a
// high-water mark would pay less during recovery from a drawdown.
func Calculate(
	ctx context.Context,
	oracle PriceOracle,
	snapshots []model.PositionSnapshot,
	performanceFeeBps uint64,
	currentPrice *big.Int,
	currentShares *big.Int,
	decimals uint8,
) (model.ProfitFeeResult, error) {
	scale := model.DecimalScale(decimals)

	netProfit := new(big.Int)
	previousShares := new(big.Int)
	previousPrice := new(big.Int).Set(currentPrice)
	if len(snapshots) > 0 {
		first, err := oracle.PricePerShareAt(ctx, snapshots[0].BlockNumber)
		if err != nil {
			return model.ProfitFeeResult{}, fmt.Errorf("price per share at block %d: %w", snapshots[0].BlockNumber, err)
		}
		previousPrice.Set(first)
	}

	for _, snapshot := range snapshots {
		price, err := oracle.PricePerShareAt(ctx, snapshot.BlockNumber)
		if err != nil {
			return model.ProfitFeeResult{}, fmt.Errorf("price per share at block %d: %w", snapshot.BlockNumber, err)
		}
		deltaPrice := new(big.Int).Sub(price, previousPrice)
		increment := new(big.Int).Mul(previousShares, deltaPrice)
		increment.Quo(increment, scale)
		netProfit.Add(netProfit, increment)

		previousShares.Set(snapshot.ShareBalance)
		previousPrice.Set(price)
	}

	// Close the gap from the last event to the current price.
	deltaPrice := new(big.Int).Sub(currentPrice, previousPrice)
	increment := new(big.Int).Mul(previousShares, deltaPrice)
	increment.Quo(increment, scale)
	netProfit.Add(netProfit, increment)

	grossProfit := new(big.Int).Set(netProfit)
	totalFees := new(big.Int)
	if netProfit.Sign() > 0 && performanceFeeBps < basisPoints {
		grossProfit.Mul(netProfit, big.NewInt(basisPoints))
		grossProfit.Quo(grossProfit, big.NewInt(basisPoints-int64(performanceFeeBps)))
		totalFees.Sub(grossProfit, netProfit)
	}

	return model.ProfitFeeResult{
		NetProfit:       netProfit,
		GrossProfit:     grossProfit,
		TotalFees:       totalFees,
		EffectiveShares: new(big.Int).Set(currentShares),
	}, nil
}
