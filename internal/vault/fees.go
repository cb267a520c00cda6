package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	basisPoints = 10000

	// DefaultPerformanceFeeBps is the assumed rate reported when the
	// on-chain fee config cannot be read. It is never used for stability
	// verification.
	DefaultPerformanceFeeBps = 1000
)

// FeeConfig is the accountant's fee configuration for a vault: four
// 256-bit words of getVaultConfig(vault).
type FeeConfig struct {
	ManagementFee  *big.Int
	PerformanceFee *big.Int
	Reserved       *big.Int
	MaxFee         *big.Int
}

// FeeRateResult is a performance fee rate that may be an assumed default.
// Callers surface Fallback to the user instead of presenting the rate as
// on-chain-confirmed.
type FeeRateResult struct {
	Bps      uint64
	Fallback bool
	Reason   error
}

// FeeConfigAt reads the accountant fee configuration. A zero block reads
// the latest state.
func (c *Context) FeeConfigAt(ctx context.Context, block uint64) (FeeConfig, error) {
	var blockNumber *big.Int
	if block > 0 {
		blockNumber = new(big.Int).SetUint64(block)
	}

	accountantData, err := c.call(ctx, c.Address, selectorAccountant, blockNumber)
	if err != nil {
		return FeeConfig{}, fmt.Errorf("vault accountant(): %w", err)
	}
	if len(accountantData) < 32 {
		return FeeConfig{}, fmt.Errorf("vault accountant() response too short: %d bytes", len(accountantData))
	}
	accountant := common.BytesToAddress(accountantData[len(accountantData)-20:])

	callData := make([]byte, 0, 4+32)
	callData = append(callData, selectorGetVaultConfig...)
	callData = append(callData, common.LeftPadBytes(c.Address.Bytes(), 32)...)

	configData, err := c.call(ctx, accountant, callData, blockNumber)
	if err != nil {
		return FeeConfig{}, fmt.Errorf("accountant getVaultConfig(): %w", err)
	}
	if len(configData) == 0 {
		return FeeConfig{}, fmt.Errorf("empty getVaultConfig response")
	}

	config, padded := parseFeeConfig(configData)
	if padded {
		c.logger.Warn("short getVaultConfig response padded",
			zap.Int("bytes", len(configData)),
			zap.String("accountant", accountant.Hex()),
		)
	}
	return config, nil
}

// parseFeeConfig decodes four 32-byte words, zero-padding short payloads.
func parseFeeConfig(data []byte) (FeeConfig, bool) {
	padded := false
	if len(data) < 4*32 {
		padded = true
		full := make([]byte, 4*32)
		copy(full, data)
		data = full
	}
	word := func(i int) *big.Int {
		return new(big.Int).SetBytes(data[i*32 : (i+1)*32])
	}
	return FeeConfig{
		ManagementFee:  word(0),
		PerformanceFee: word(1),
		Reserved:       word(2),
		MaxFee:         word(3),
	}, padded
}

// PerformanceFeeBpsAt returns the performance fee normalized to basis
// points at a block (zero means latest). It is strict: a non-zero
// management fee or a zero max fee is an error, and lookup failures
// propagate so verification never runs against an assumed value.
func (c *Context) PerformanceFeeBpsAt(ctx context.Context, block uint64) (uint64, error) {
	config, err := c.FeeConfigAt(ctx, block)
	if err != nil {
		return 0, err
	}
	if config.ManagementFee.Sign() != 0 {
		return 0, fmt.Errorf("unexpected management fee %s (expected 0)", config.ManagementFee)
	}
	if config.MaxFee.Sign() == 0 {
		return 0, fmt.Errorf("maxFee is zero")
	}

	ratio := new(big.Int).Mul(config.PerformanceFee, big.NewInt(basisPoints))
	ratio.Quo(ratio, config.MaxFee)
	if !ratio.IsUint64() {
		return 0, fmt.Errorf("performance fee ratio out of range: %s", ratio)
	}
	return ratio.Uint64(), nil
}

// ManagementFeeAt returns the raw management fee word at a block.
func (c *Context) ManagementFeeAt(ctx context.Context, block uint64) (*big.Int, error) {
	config, err := c.FeeConfigAt(ctx, block)
	if err != nil {
		return nil, err
	}
	return config.ManagementFee, nil
}

// PerformanceFeeRate returns the current performance fee rate for
// reporting. When the on-chain lookup fails the documented default is
// returned flagged as a fallback, with the failure as the reason.
func (c *Context) PerformanceFeeRate(ctx context.Context) FeeRateResult {
	bps, err := c.PerformanceFeeBpsAt(ctx, 0)
	if err != nil {
		c.logger.Warn("could not fetch performance fee rate, using default",
			zap.Uint64("default_bps", uint64(DefaultPerformanceFeeBps)),
			zap.Error(err),
		)
		return FeeRateResult{Bps: DefaultPerformanceFeeBps, Fallback: true, Reason: err}
	}
	return FeeRateResult{Bps: bps}
}
