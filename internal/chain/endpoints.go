package chain

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// NetworkConfig describes a supported chain and its public RPC endpoints.
type NetworkConfig struct {
	Name      string
	RPCEnvVar string
	Fallbacks []string
}

// Networks maps supported chain IDs to their configuration.
var Networks = map[uint64]NetworkConfig{
	1: {
		Name:      "Ethereum",
		RPCEnvVar: "RPC_URL_ETHEREUM",
		Fallbacks: []string{
			"https://eth.llamarpc.com",
			"https://rpc.ankr.com/eth",
			"https://ethereum.publicnode.com",
			"https://1rpc.io/eth",
		},
	},
	8453: {
		Name:      "Base",
		RPCEnvVar: "RPC_URL_BASE",
		Fallbacks: []string{
			"https://base.llamarpc.com",
			"https://rpc.ankr.com/base",
			"https://base.publicnode.com",
			"https://1rpc.io/base",
		},
	},
	42161: {
		Name:      "Arbitrum",
		RPCEnvVar: "RPC_URL_ARBITRUM",
		Fallbacks: []string{
			"https://arbitrum.llamarpc.com",
			"https://rpc.ankr.com/arbitrum",
			"https://arbitrum-one.publicnode.com",
			"https://1rpc.io/arb",
		},
	},
	137: {
		Name:      "Polygon",
		RPCEnvVar: "RPC_URL_POLYGON",
		Fallbacks: []string{
			"https://polygon.llamarpc.com",
			"https://rpc.ankr.com/polygon",
			"https://polygon-bor.publicnode.com",
			"https://1rpc.io/matic",
		},
	},
}

// SelectRPC picks a working RPC URL for the chain: the RPC_URL override
// first, then the chain-specific env var, then the public fallbacks. Each
// candidate is probed with eth_blockNumber before it is accepted.
func SelectRPC(ctx context.Context, chainID uint64, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	network, ok := Networks[chainID]
	if !ok {
		return "", fmt.Errorf("unsupported chain id: %d", chainID)
	}

	candidates := make([]string, 0, len(network.Fallbacks)+2)
	if url := os.Getenv("RPC_URL"); url != "" {
		candidates = append(candidates, url)
	}
	if url := os.Getenv(network.RPCEnvVar); url != "" {
		candidates = append(candidates, url)
	}
	candidates = append(candidates, network.Fallbacks...)

	var lastErr error
	for _, candidate := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := NewClient(probeCtx, candidate)
		if err == nil {
			_, err = client.LatestBlockNumber(probeCtx)
			client.Close()
		}
		cancel()
		if err != nil {
			lastErr = err
			logger.Debug("rpc probe failed", zap.String("rpc", candidate), zap.Error(err))
			continue
		}
		return candidate, nil
	}

	return "", fmt.Errorf("all rpc endpoints failed for %s: %w", network.Name, lastErr)
}
