package profit

import (
	"context"
	"fmt"
	"math/big"

	"vaultScope/internal/model"
)

// Point is one sample of the balance/profit series used for export.
type Point struct {
	Block  uint64   `json:"block"`
	Shares *big.Int `json:"shares"`
	Profit *big.Int `json:"profit"`
}

// BuildSeries mirrors the incremental profit fold and emits one point per
// snapshot plus a final point at the current block, so an exported series
// always matches the fee math.
func BuildSeries(
	ctx context.Context,
	oracle PriceOracle,
	snapshots []model.PositionSnapshot,
	decimals uint8,
	currentPrice *big.Int,
	currentShares *big.Int,
	currentBlock uint64,
) ([]Point, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}
	scale := model.DecimalScale(decimals)

	series := make([]Point, 0, len(snapshots)+1)
	profit := new(big.Int)
	previousShares := new(big.Int)
	previousPrice, err := oracle.PricePerShareAt(ctx, snapshots[0].BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("price per share at block %d: %w", snapshots[0].BlockNumber, err)
	}
	previousPrice = new(big.Int).Set(previousPrice)

	for _, snapshot := range snapshots {
		price, err := oracle.PricePerShareAt(ctx, snapshot.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("price per share at block %d: %w", snapshot.BlockNumber, err)
		}
		deltaPrice := new(big.Int).Sub(price, previousPrice)
		increment := new(big.Int).Mul(previousShares, deltaPrice)
		increment.Quo(increment, scale)
		profit.Add(profit, increment)

		previousShares.Set(snapshot.ShareBalance)
		previousPrice.Set(price)

		series = append(series, Point{
			Block:  snapshot.BlockNumber,
			Shares: new(big.Int).Set(snapshot.ShareBalance),
			Profit: new(big.Int).Set(profit),
		})
	}

	deltaPrice := new(big.Int).Sub(currentPrice, previousPrice)
	increment := new(big.Int).Mul(previousShares, deltaPrice)
	increment.Quo(increment, scale)
	profit.Add(profit, increment)

	series = append(series, Point{
		Block:  currentBlock,
		Shares: new(big.Int).Set(currentShares),
		Profit: profit,
	})

	return series, nil
}

// SampleSeries down-samples a series to at most maxPoints, always keeping
// the final point.
func SampleSeries(series []Point, maxPoints int) []Point {
	if maxPoints <= 1 || len(series) <= maxPoints {
		return series
	}
	step := float64(len(series)) / float64(maxPoints-1)
	sampled := make([]Point, 0, maxPoints)
	for i := 0; i < maxPoints-1; i++ {
		index := int(float64(i) * step)
		if index > len(series)-1 {
			index = len(series) - 1
		}
		sampled = append(sampled, series[index])
	}
	return append(sampled, series[len(series)-1])
}
