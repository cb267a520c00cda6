package vault

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

const prefetchWorkers = 8

// PrefetchPrices warms the price cache for the given blocks in parallel.
// Fetch failures are only logged here: the later sequential reads hit the
// cache when a fetch succeeded and re-fetch (and propagate the error)
// when it did not, so the fold logic stays the single source of truth.
func (c *Context) PrefetchPrices(ctx context.Context, blocks []uint64) {
	distinct := make([]uint64, 0, len(blocks))
	seen := make(map[uint64]struct{}, len(blocks))
	for _, block := range blocks {
		if _, ok := seen[block]; ok {
			continue
		}
		seen[block] = struct{}{}

		c.mu.RLock()
		_, cached := c.priceCache[block]
		c.mu.RUnlock()
		if !cached {
			distinct = append(distinct, block)
		}
	}
	if len(distinct) == 0 {
		return
	}

	queueSize := len(distinct)
	if queueSize < 16 {
		queueSize = 16
	}
	pool := pond.NewPool(prefetchWorkers, pond.WithQueueSize(queueSize))
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, block := range distinct {
		block := block
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			if _, err := c.PricePerShareAt(groupCtx, block); err != nil {
				c.logger.Debug("price prefetch failed", zap.Uint64("block", block), zap.Error(err))
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		c.logger.Warn("price prefetch group encountered error", zap.Error(err))
	}
	pool.StopAndWait()
}
