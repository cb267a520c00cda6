package feecheck

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// Oracle reads the vault fee configuration at an exact block. Lookups for
// verification must be strict: a fallback or assumed value would defeat
// the point of checking history.
type Oracle interface {
	PerformanceFeeBpsAt(ctx context.Context, block uint64) (uint64, error)
	ManagementFeeAt(ctx context.Context, block uint64) (*big.Int, error)
}

// Observation is one sampled fee reading.
type Observation struct {
	Block uint64
	Bps   uint64
}

// MismatchError reports a performance fee that changed across the sampled
// history, with every observation so the caller can diagnose without
// re-running.
type MismatchError struct {
	ReferenceBps uint64
	Observed     []Observation
}

func (e *MismatchError) Error() string {
	details := make([]string, 0, len(e.Observed))
	for _, obs := range e.Observed {
		details = append(details, fmt.Sprintf("block %d: %.2f%%", obs.Block, float64(obs.Bps)/100))
	}
	return fmt.Sprintf(
		"performance fee changed during depositor activity; expected %.2f%%, observed [%s]",
		float64(e.ReferenceBps)/100,
		strings.Join(details, ", "),
	)
}

// SampleBlocks produces checks evenly spaced block numbers across
// [firstBlock, lastBlock], inclusive of both endpoints. A degenerate range
// or a single check collapses to the first block repeated.
func SampleBlocks(firstBlock, lastBlock uint64, checks int) []uint64 {
	if checks <= 0 {
		return nil
	}
	if checks == 1 || lastBlock <= firstBlock {
		blocks := make([]uint64, checks)
		for i := range blocks {
			blocks[i] = firstBlock
		}
		return blocks
	}

	span := lastBlock - firstBlock
	blocks := make([]uint64, 0, checks)
	for i := 0; i < checks; i++ {
		blocks = append(blocks, firstBlock+span*uint64(i)/uint64(checks-1))
	}
	return blocks
}

// VerifyPerformanceFee samples the performance fee across the block range
// and fails hard if any reading differs from the reference rate. It
// returns the sampled blocks so companion checks can reuse them.
func VerifyPerformanceFee(
	ctx context.Context,
	oracle Oracle,
	firstBlock, lastBlock uint64,
	referenceBps uint64,
	checks int,
) ([]uint64, error) {
	blocks := SampleBlocks(firstBlock, lastBlock, checks)
	if len(blocks) == 0 {
		return nil, nil
	}

	observed := make([]Observation, 0, len(blocks))
	mismatch := false
	for _, block := range blocks {
		bps, err := oracle.PerformanceFeeBpsAt(ctx, block)
		if err != nil {
			return nil, fmt.Errorf("performance fee at block %d: %w", block, err)
		}
		observed = append(observed, Observation{Block: block, Bps: bps})
		if bps != referenceBps {
			mismatch = true
		}
	}

	if mismatch {
		return nil, &MismatchError{ReferenceBps: referenceBps, Observed: observed}
	}
	return blocks, nil
}

// VerifyManagementFeeZero asserts the management fee is exactly zero at
// every given block. Profit math assumes the performance fee is the only
// fee, so any nonzero reading is a hard failure.
func VerifyManagementFeeZero(ctx context.Context, oracle Oracle, blocks []uint64) error {
	for _, block := range blocks {
		fee, err := oracle.ManagementFeeAt(ctx, block)
		if err != nil {
			return fmt.Errorf("management fee at block %d: %w", block, err)
		}
		if fee.Sign() != 0 {
			return fmt.Errorf("management fee non-zero (%s) at block %d; expected 0", fee, block)
		}
	}
	return nil
}
