package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultScope/internal/chain"
	"vaultScope/internal/config"
	"vaultScope/internal/feecheck"
	"vaultScope/internal/vault"
)

func runVerifyFees(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Vault) {
		return fmt.Errorf("invalid vault address: %s", cfg.Vault)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL, err = chain.SelectRPC(ctx, cfg.ChainID, logger)
		if err != nil {
			return err
		}
	}

	chainClient, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	vaultCtx, err := vault.NewContext(
		ctx,
		chainClient,
		common.HexToAddress(cfg.Vault),
		cfg.ChainID,
		logger,
		vault.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
	)
	if err != nil {
		return fmt.Errorf("vault context: %w", err)
	}

	toBlock := cfg.ToBlock
	if toBlock == 0 {
		toBlock, err = chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
	}
	if cfg.FromBlock > toBlock {
		return fmt.Errorf("from block %d is after to block %d", cfg.FromBlock, toBlock)
	}

	referenceBps := cfg.ReferenceBps
	if referenceBps == 0 {
		referenceBps, err = vaultCtx.PerformanceFeeBpsAt(ctx, 0)
		if err != nil {
			return fmt.Errorf("read current performance fee: %w", err)
		}
		logger.Info("using current on-chain performance fee as reference", zap.Uint64("bps", referenceBps))
	}

	blocks, err := feecheck.VerifyPerformanceFee(ctx, vaultCtx, cfg.FromBlock, toBlock, referenceBps, cfg.FeeChecks)
	if err != nil {
		return err
	}
	if err := feecheck.VerifyManagementFeeZero(ctx, vaultCtx, blocks); err != nil {
		return err
	}

	logger.Info("fee rates held stable",
		zap.Uint64("performance_bps", referenceBps),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", toBlock),
		zap.Uint64s("sampled_blocks", blocks),
	)
	return nil
}
