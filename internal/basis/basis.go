package basis

import (
	"context"
	"fmt"
	"math/big"

	"vaultScope/internal/model"
)

// PriceOracle resolves the vault price-per-share at an exact block,
// scaled by 10^decimals. Implementations must memoize per block.
type PriceOracle interface {
	PricePerShareAt(ctx context.Context, block uint64) (*big.Int, error)
}

// Tracker maintains an average-cost basis as (total cost, total shares).
// Removals reduce both proportionally, so the basis can never go negative
// and no per-lot (FIFO/LIFO) bookkeeping is needed.
type Tracker struct {
	totalCost   *big.Int
	totalShares *big.Int
	scale       *big.Int
}

// NewTracker returns an empty basis with amounts scaled by 10^decimals.
func NewTracker(decimals uint8) *Tracker {
	return &Tracker{
		totalCost:   new(big.Int),
		totalShares: new(big.Int),
		scale:       model.DecimalScale(decimals),
	}
}

// Apply folds one event into the basis. Incoming transfers are valued at
// the oracle price of their block; deposits use the assets recorded in the
// event itself. Oracle failures propagate unchanged.
func (t *Tracker) Apply(ctx context.Context, event model.Event, oracle PriceOracle) error {
	switch event.Kind {
	case model.KindDeposit:
		t.totalShares.Add(t.totalShares, event.Deposit.Shares)
		t.totalCost.Add(t.totalCost, event.Deposit.Assets)
	case model.KindWithdraw:
		t.reduce(event.Withdraw.Shares)
	case model.KindTransferIn:
		price, err := oracle.PricePerShareAt(ctx, event.BlockNumber)
		if err != nil {
			return fmt.Errorf("price per share at block %d: %w", event.BlockNumber, err)
		}
		assets := new(big.Int).Mul(event.Transfer.Value, price)
		assets.Quo(assets, t.scale)
		t.totalShares.Add(t.totalShares, event.Transfer.Value)
		t.totalCost.Add(t.totalCost, assets)
	case model.KindTransferOut:
		t.reduce(event.Transfer.Value)
	}
	return nil
}

// reduce removes shares proportionally. Removing from an empty basis is a
// no-op, and removals are capped at the tracked share count.
func (t *Tracker) reduce(shares *big.Int) {
	if t.totalShares.Sign() <= 0 {
		return
	}
	removed := shares
	if removed.Cmp(t.totalShares) > 0 {
		removed = t.totalShares
	}
	removedCost := new(big.Int).Mul(t.totalCost, removed)
	removedCost.Quo(removedCost, t.totalShares)
	t.totalShares.Sub(t.totalShares, removed)
	t.totalCost.Sub(t.totalCost, removedCost)
}

// TotalCost returns the tracked cost in asset units.
func (t *Tracker) TotalCost() *big.Int {
	return new(big.Int).Set(t.totalCost)
}

// TotalShares returns the tracked share count.
func (t *Tracker) TotalShares() *big.Int {
	return new(big.Int).Set(t.totalShares)
}

// WeightedAverageEntryPrice returns the blended acquisition price per
// share, scaled by 10^decimals. An empty basis has no meaningful entry
// price and yields zero.
func (t *Tracker) WeightedAverageEntryPrice() *big.Int {
	if t.totalShares.Sign() == 0 {
		return new(big.Int)
	}
	price := new(big.Int).Mul(t.totalCost, t.scale)
	return price.Quo(price, t.totalShares)
}

// Track folds an ordered timeline into a fresh tracker.
func Track(ctx context.Context, events []model.Event, oracle PriceOracle, decimals uint8) (*Tracker, error) {
	tracker := NewTracker(decimals)
	for _, event := range events {
		if err := tracker.Apply(ctx, event, oracle); err != nil {
			return nil, err
		}
	}
	return tracker, nil
}
