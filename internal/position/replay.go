package position

import (
	"math/big"

	"vaultScope/internal/model"
)

// Replay folds an ordered event timeline into per-event position snapshots
// plus running totals and the historical peak balance.
//
// The fold is pure: no oracle or RPC access happens here. Balances are not
// clamped; a negative running balance means the upstream event data is
// inconsistent and the caller should see the raw numbers.
func Replay(events []model.Event) model.PositionResult {
	currentShares := new(big.Int)
	totalDeposited := new(big.Int)
	totalWithdrawn := new(big.Int)
	peakShares := new(big.Int)
	var peakBlock uint64

	snapshots := make([]model.PositionSnapshot, 0, len(events))

	for _, event := range events {
		delta := event.ShareDelta()
		currentShares.Add(currentShares, delta)

		switch event.Kind {
		case model.KindDeposit:
			totalDeposited.Add(totalDeposited, event.Deposit.Assets)
		case model.KindWithdraw:
			totalWithdrawn.Add(totalWithdrawn, event.Withdraw.Assets)
		}

		// Strict inequality: plateaus never move the peak.
		if currentShares.Cmp(peakShares) > 0 {
			peakShares.Set(currentShares)
			peakBlock = event.BlockNumber
		}

		snapshots = append(snapshots, model.PositionSnapshot{
			BlockNumber:         event.BlockNumber,
			Kind:                event.Kind,
			ShareBalance:        new(big.Int).Set(currentShares),
			ShareDelta:          delta,
			CumulativeDeposited: new(big.Int).Set(totalDeposited),
			CumulativeWithdrawn: new(big.Int).Set(totalWithdrawn),
		})
	}

	return model.PositionResult{
		Snapshots:       snapshots,
		CurrentShares:   currentShares,
		TotalDeposited:  totalDeposited,
		TotalWithdrawn:  totalWithdrawn,
		PeakShares:      peakShares,
		PeakSharesBlock: peakBlock,
	}
}
