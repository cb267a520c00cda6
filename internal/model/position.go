package model

import "math/big"

// PositionSnapshot is the point-in-time position state after one event.
type PositionSnapshot struct {
	BlockNumber         uint64
	Kind                EventKind
	ShareBalance        *big.Int
	ShareDelta          *big.Int
	CumulativeDeposited *big.Int
	CumulativeWithdrawn *big.Int
}

// PositionResult aggregates a full replay of a depositor's event history.
type PositionResult struct {
	Snapshots      []PositionSnapshot
	CurrentShares  *big.Int
	TotalDeposited *big.Int
	TotalWithdrawn *big.Int

	// PeakShares is the highest balance ever held; PeakSharesBlock is the
	// block of the first snapshot that strictly exceeded all prior balances.
	PeakShares      *big.Int
	PeakSharesBlock uint64
}

// ProfitFeeResult is the outcome of the incremental profit and fee math.
// NetProfit may be negative; fees are zero for losses.
type ProfitFeeResult struct {
	NetProfit       *big.Int
	GrossProfit     *big.Int
	TotalFees       *big.Int
	EffectiveShares *big.Int
}
