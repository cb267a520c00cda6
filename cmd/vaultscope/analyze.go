package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultScope/internal/basis"
	"vaultScope/internal/chain"
	"vaultScope/internal/config"
	"vaultScope/internal/envio"
	"vaultScope/internal/feecheck"
	"vaultScope/internal/model"
	"vaultScope/internal/position"
	"vaultScope/internal/profit"
	"vaultScope/internal/report"
	"vaultScope/internal/storage"
	"vaultScope/internal/storage/postgres"
	"vaultScope/internal/timeline"
	"vaultScope/internal/vault"
)

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAnalyze(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Depositor) {
		return fmt.Errorf("invalid depositor address: %s", cfg.Depositor)
	}
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

	logger.Info("validating vault contract", zap.String("vault", cfg.Vault))
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

	logger.Info("fetching events from indexer", zap.String("envio_url", cfg.EnvioURL))
	indexerClient := envio.NewClient(cfg.EnvioURL, cfg.EnvioPassword, logger)
	deposits, withdrawals, transfers, err := indexerClient.FetchEvents(ctx, cfg.Depositor, cfg.Vault)
	if err != nil {
		return err
	}

	logger.Info("building position timeline")
	events, err := timeline.Build(deposits, withdrawals, transfers, cfg.Depositor)
	if err != nil {
		return err
	}
	positionResult := position.Replay(events)

	logger.Info("fetching current vault state")
	currentPPS, err := vaultCtx.CurrentPricePerShare(ctx)
	if err != nil {
		return err
	}
	scale := model.DecimalScale(vaultCtx.Decimals)
	currentValue := new(big.Int).Mul(positionResult.CurrentShares, currentPPS)
	currentValue.Quo(currentValue, scale)

	logger.Info("fetching performance fee rate")
	feeRate := vaultCtx.PerformanceFeeRate(ctx)
	if !feeRate.Fallback {
		logger.Info("performance fee confirmed on-chain", zap.Uint64("bps", feeRate.Bps))
	}

	if cfg.StableFees && len(positionResult.Snapshots) > 0 {
		firstBlock := positionResult.Snapshots[0].BlockNumber
		lastBlock := positionResult.Snapshots[len(positionResult.Snapshots)-1].BlockNumber
		logger.Info("verifying fee stability across depositor history",
			zap.Uint64("from", firstBlock),
			zap.Uint64("to", lastBlock),
			zap.Int("checks", cfg.FeeChecks),
		)
		blocks, err := feecheck.VerifyPerformanceFee(ctx, vaultCtx, firstBlock, lastBlock, feeRate.Bps, cfg.FeeChecks)
		if err != nil {
			return err
		}
		if err := feecheck.VerifyManagementFeeZero(ctx, vaultCtx, blocks); err != nil {
			return err
		}
	}

	// Warm the price cache for every block the folds will read.
	priceBlocks := make([]uint64, 0, len(events)+1)
	for _, event := range events {
		priceBlocks = append(priceBlocks, event.BlockNumber)
	}
	if positionResult.PeakSharesBlock > 0 {
		priceBlocks = append(priceBlocks, positionResult.PeakSharesBlock)
	}
	vaultCtx.PrefetchPrices(ctx, priceBlocks)

	basisTracker, err := basis.Track(ctx, events, vaultCtx, vaultCtx.Decimals)
	if err != nil {
		return err
	}

	profitFees, err := profit.Calculate(
		ctx,
		vaultCtx,
		positionResult.Snapshots,
		feeRate.Bps,
		currentPPS,
		positionResult.CurrentShares,
		vaultCtx.Decimals,
	)
	if err != nil {
		return err
	}

	transferAdjustedNet, err := transferAdjustedNetDeposited(ctx, vaultCtx, positionResult, events, scale)
	if err != nil {
		return err
	}

	data := report.Data{
		ChainID:             cfg.ChainID,
		ChainName:           chainName(cfg.ChainID),
		VaultAddress:        cfg.Vault,
		DepositorAddress:    cfg.Depositor,
		AssetSymbol:         vaultCtx.Symbol,
		Decimals:            vaultCtx.Decimals,
		Position:            positionResult,
		Events:              events,
		CurrentValue:        currentValue,
		WeightedEntryPPS:    basisTracker.WeightedAverageEntryPrice(),
		CurrentPPS:          currentPPS,
		ProfitFees:          profitFees,
		PerformanceBps:      feeRate.Bps,
		FeeRateFallback:     feeRate.Fallback,
		TransferAdjustedNet: transferAdjustedNet,
		DepositCount:        len(deposits),
		WithdrawalCount:     len(withdrawals),
	}
	for _, event := range events {
		switch event.Kind {
		case model.KindTransferIn:
			data.TransferInCount++
		case model.KindTransferOut:
			data.TransferOutCount++
		}
	}

	if len(events) > 0 {
		data.FirstInteractionBlk = events[0].BlockNumber
		if ts, err := vaultCtx.BlockTimestamp(ctx, events[0].BlockNumber); err == nil {
			data.FirstInteractionTime = &ts
		} else {
			logger.Warn("could not resolve first interaction time", zap.Error(err))
		}
	}

	if positionResult.PeakShares.Sign() > 0 && positionResult.PeakSharesBlock > 0 {
		if peakPrice, err := vaultCtx.PricePerShareAt(ctx, positionResult.PeakSharesBlock); err == nil {
			peakValue := new(big.Int).Mul(positionResult.PeakShares, peakPrice)
			peakValue.Quo(peakValue, scale)
			data.PeakValue = peakValue
		} else {
			logger.Warn("could not fetch peak position value", zap.Error(err))
		}
		if ts, err := vaultCtx.BlockTimestamp(ctx, positionResult.PeakSharesBlock); err == nil {
			data.PeakTime = &ts
		}
	}

	report.Render(os.Stdout, data)

	if cfg.Out != "" || cfg.PgDSN != "" {
		if err := exportResults(ctx, cfg, vaultCtx, chainClient, positionResult, profitFees, currentPPS, basisTracker, feeRate, currentValue, logger); err != nil {
			return err
		}
	}

	return nil
}

// transferAdjustedNetDeposited values every transfer at its block PPS and
// folds it into net deposited cash, for the transfer-aware ROI line.
func transferAdjustedNetDeposited(
	ctx context.Context,
	vaultCtx *vault.Context,
	positionResult model.PositionResult,
	events []model.Event,
	scale *big.Int,
) (*big.Int, error) {
	adjusted := new(big.Int).Sub(positionResult.TotalDeposited, positionResult.TotalWithdrawn)
	for _, event := range events {
		if event.Kind != model.KindTransferIn && event.Kind != model.KindTransferOut {
			continue
		}
		price, err := vaultCtx.PricePerShareAt(ctx, event.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("price per share at block %d: %w", event.BlockNumber, err)
		}
		assets := new(big.Int).Mul(event.Transfer.Value, price)
		assets.Quo(assets, scale)
		if event.Kind == model.KindTransferIn {
			adjusted.Add(adjusted, assets)
		} else {
			adjusted.Sub(adjusted, assets)
		}
	}
	return adjusted, nil
}

func exportResults(
	ctx context.Context,
	cfg config.AnalyzeConfig,
	vaultCtx *vault.Context,
	chainClient *chain.Client,
	positionResult model.PositionResult,
	profitFees model.ProfitFeeResult,
	currentPPS *big.Int,
	basisTracker *basis.Tracker,
	feeRate vault.FeeRateResult,
	currentValue *big.Int,
	logger *zap.Logger,
) error {
	var series []profit.Point
	if len(positionResult.Snapshots) > 0 {
		currentBlock, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			// Best-effort marker block for the final series point.
			currentBlock = positionResult.Snapshots[len(positionResult.Snapshots)-1].BlockNumber + 1000
			logger.Warn("latest block unavailable, approximating series end", zap.Uint64("block", currentBlock), zap.Error(err))
		}
		series, err = profit.BuildSeries(
			ctx,
			vaultCtx,
			positionResult.Snapshots,
			vaultCtx.Decimals,
			currentPPS,
			positionResult.CurrentShares,
			currentBlock,
		)
		if err != nil {
			return err
		}
		series = profit.SampleSeries(series, cfg.MaxPoints)
	}

	if cfg.Out != "" {
		exporter := storage.NewJsonlExporter(cfg.Out)
		if err := exporter.PutSnapshots(positionResult.Snapshots); err != nil {
			return err
		}
		if err := exporter.PutSeries(series); err != nil {
			return err
		}
		logger.Info("analysis exported", zap.String("out", cfg.Out), zap.Int("snapshots", len(positionResult.Snapshots)), zap.Int("series_points", len(series)))
	}

	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return err
		}
		defer store.Close()

		record := model.AnalysisRecord{
			ChainID:          cfg.ChainID,
			VaultAddress:     cfg.Vault,
			DepositorAddress: cfg.Depositor,
			AssetSymbol:      vaultCtx.Symbol,
			Decimals:         vaultCtx.Decimals,
			CurrentShares:    positionResult.CurrentShares.String(),
			CurrentValue:     currentValue.String(),
			TotalDeposited:   positionResult.TotalDeposited.String(),
			TotalWithdrawn:   positionResult.TotalWithdrawn.String(),
			NetProfit:        profitFees.NetProfit.String(),
			GrossProfit:      profitFees.GrossProfit.String(),
			TotalFees:        profitFees.TotalFees.String(),
			EntryPPS:         basisTracker.WeightedAverageEntryPrice().String(),
			CurrentPPS:       currentPPS.String(),
			PeakShares:       positionResult.PeakShares.String(),
			PeakSharesBlock:  positionResult.PeakSharesBlock,
			PerformanceBps:   feeRate.Bps,
			FeeRateFallback:  feeRate.Fallback,
		}
		if err := store.UpsertAnalysis(ctx, record); err != nil {
			return fmt.Errorf("store analysis: %w", err)
		}
		if err := store.ReplaceSnapshots(ctx, cfg.ChainID, cfg.Vault, cfg.Depositor, positionResult.Snapshots); err != nil {
			return fmt.Errorf("store snapshots: %w", err)
		}
		logger.Info("analysis stored", zap.String("pg", "depositor_analyses"))
	}

	return nil
}

func chainName(chainID uint64) string {
	if network, ok := chain.Networks[chainID]; ok {
		return network.Name
	}
	return "Unknown"
}
