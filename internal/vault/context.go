package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"vaultScope/internal/chain"
)

// Function selectors for the Yearn V3 vault and accountant contracts.
var (
	selectorPricePerShare  = hexutil.MustDecode("0x99530b06")
	selectorDecimals       = hexutil.MustDecode("0x313ce567")
	selectorAsset          = hexutil.MustDecode("0x38d52e0f")
	selectorSymbol         = hexutil.MustDecode("0x95d89b41")
	selectorAccountant     = hexutil.MustDecode("0x4fb3ccc5")
	selectorGetVaultConfig = hexutil.MustDecode("0xde1eb9a3")
)

// Context owns everything needed to analyze one vault in one run: the
// vault metadata and the memoized oracle caches. It is never shared
// across vaults or depositors.
type Context struct {
	Address      common.Address
	ChainID      uint64
	Decimals     uint8
	Symbol       string
	AssetAddress common.Address

	client       *chain.Client
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration

	mu         sync.RWMutex
	priceCache map[uint64]*big.Int
}

// Option adjusts Context construction.
type Option func(*Context)

// WithRetry configures retry behavior for oracle calls.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Context) {
		c.maxRetries = maxRetries
		c.retryBackoff = backoff
	}
}

// NewContext validates the vault contract and loads its metadata. The
// vault must answer asset(), decimals(), and pricePerShare(); a missing
// symbol is tolerated and replaced with a placeholder.
func NewContext(ctx context.Context, client *chain.Client, address common.Address, chainID uint64, logger *zap.Logger, opts ...Option) (*Context, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	vc := &Context{
		Address:      address,
		ChainID:      chainID,
		client:       client,
		logger:       logger,
		maxRetries:   3,
		retryBackoff: 500 * time.Millisecond,
		priceCache:   make(map[uint64]*big.Int),
	}
	for _, opt := range opts {
		opt(vc)
	}

	assetData, err := vc.call(ctx, address, selectorAsset, nil)
	if err != nil {
		return nil, fmt.Errorf("vault asset(): %w", err)
	}
	if len(assetData) < 32 {
		return nil, fmt.Errorf("vault asset() response too short: %d bytes", len(assetData))
	}
	vc.AssetAddress = common.BytesToAddress(assetData[len(assetData)-20:])

	decimalsData, err := vc.call(ctx, address, selectorDecimals, nil)
	if err != nil {
		return nil, fmt.Errorf("vault decimals(): %w", err)
	}
	decimals := new(big.Int).SetBytes(decimalsData)
	if !decimals.IsUint64() || decimals.Uint64() > 77 {
		return nil, fmt.Errorf("vault decimals() out of range: %s", decimals)
	}
	vc.Decimals = uint8(decimals.Uint64())

	if _, err := vc.call(ctx, address, selectorPricePerShare, nil); err != nil {
		return nil, fmt.Errorf("vault pricePerShare(): %w", err)
	}

	vc.Symbol = "TOKEN"
	if symbolData, err := vc.call(ctx, vc.AssetAddress, selectorSymbol, nil); err == nil {
		if symbol := decodeABIString(symbolData); symbol != "" {
			vc.Symbol = symbol
		}
	} else {
		logger.Warn("could not fetch token symbol", zap.String("asset", vc.AssetAddress.Hex()), zap.Error(err))
	}

	return vc, nil
}

// call performs an eth_call with retry. A nil block means latest.
func (c *Context) call(ctx context.Context, to common.Address, data []byte, block *big.Int) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	var resp []byte
	err := chain.WithRetry(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		var err error
		resp, err = c.client.CallContract(ctx, msg, block)
		return err
	})
	return resp, err
}

// CurrentPricePerShare returns the vault's latest price-per-share, scaled
// by 10^Decimals.
func (c *Context) CurrentPricePerShare(ctx context.Context) (*big.Int, error) {
	data, err := c.call(ctx, c.Address, selectorPricePerShare, nil)
	if err != nil {
		return nil, fmt.Errorf("pricePerShare(): %w", err)
	}
	return new(big.Int).SetBytes(data), nil
}

// PricePerShareAt returns the price-per-share at an exact block,
// memoized per block for the lifetime of the context.
func (c *Context) PricePerShareAt(ctx context.Context, block uint64) (*big.Int, error) {
	c.mu.RLock()
	cached, ok := c.priceCache[block]
	c.mu.RUnlock()
	if ok {
		return new(big.Int).Set(cached), nil
	}

	data, err := c.call(ctx, c.Address, selectorPricePerShare, new(big.Int).SetUint64(block))
	if err != nil {
		return nil, fmt.Errorf("pricePerShare() at block %d: %w", block, err)
	}
	price := new(big.Int).SetBytes(data)

	c.mu.Lock()
	c.priceCache[block] = price
	c.mu.Unlock()

	return new(big.Int).Set(price), nil
}

// BlockTimestamp returns the block's timestamp. When the exact header is
// unavailable the time is estimated from the chain's average block
// duration; estimates are only used for reporting, never for profit math.
func (c *Context) BlockTimestamp(ctx context.Context, block uint64) (time.Time, error) {
	ts, err := c.client.BlockTimestamp(ctx, block)
	if err == nil {
		return time.Unix(int64(ts), 0).UTC(), nil
	}

	c.logger.Warn("exact block timestamp unavailable, estimating", zap.Uint64("block", block), zap.Error(err))
	latest, latestErr := c.client.LatestBlockNumber(ctx)
	if latestErr != nil {
		return time.Time{}, fmt.Errorf("block timestamp %d: %w", block, err)
	}
	blockTime, estErr := c.client.EstimateBlockTime(ctx)
	if estErr != nil {
		return time.Time{}, fmt.Errorf("block timestamp %d: %w", block, err)
	}

	var behind uint64
	if latest > block {
		behind = latest - block
	}
	return time.Now().UTC().Add(-time.Duration(behind) * blockTime), nil
}
