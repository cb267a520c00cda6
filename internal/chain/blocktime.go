package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

const blockTimeSampleSpan = 1000

// EstimateBlockTime estimates the chain's average block duration by
// comparing the latest header against one blockTimeSampleSpan blocks
// earlier. Used only for best-effort timestamp estimation in reporting.
func (c *Client) EstimateBlockTime(ctx context.Context) (time.Duration, error) {
	latest, err := c.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	latestNumber := latest.Number.Uint64()
	if latestNumber == 0 {
		return 0, fmt.Errorf("chain has no history to sample")
	}

	sampleNumber := uint64(0)
	if latestNumber > blockTimeSampleSpan {
		sampleNumber = latestNumber - blockTimeSampleSpan
	}

	older, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(sampleNumber))
	if err != nil {
		return 0, fmt.Errorf("sample header %d: %w", sampleNumber, err)
	}
	if latest.Time <= older.Time {
		return 0, fmt.Errorf("non-increasing timestamps between blocks %d and %d", sampleNumber, latestNumber)
	}

	elapsed := time.Duration(latest.Time-older.Time) * time.Second
	return elapsed / time.Duration(latestNumber-sampleNumber), nil
}
