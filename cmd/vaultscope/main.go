package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "vaultscope",
		Short:        "Vault depositor position and fee analyzer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a depositor's position, profit, and fees",
		RunE:  runAnalyze,
	}

	analyzeCmd.Flags().String("depositor", "", "depositor address")
	analyzeCmd.Flags().String("vault", "", "vault address")
	analyzeCmd.Flags().Uint64("chain", 1, "chain ID (1, 8453, 42161, 137)")
	analyzeCmd.Flags().String("rpc", "", "RPC URL (overrides endpoint selection)")
	analyzeCmd.Flags().String("envio-url", "", "Envio GraphQL endpoint")
	analyzeCmd.Flags().String("envio-password", "", "Envio GraphQL password")
	analyzeCmd.Flags().Bool("stable-fees", false, "verify the performance fee held constant across history")
	analyzeCmd.Flags().Int("fee-checks", 5, "number of fee stability sample points")
	analyzeCmd.Flags().String("out", "", "optional JSONL export path for snapshots and series")
	analyzeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for analysis export")
	analyzeCmd.Flags().Int("max-points", 300, "maximum exported series points")
	analyzeCmd.Flags().Int("max-retries", 3, "maximum RPC retry attempts")
	analyzeCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	analyzeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(analyzeCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify-fees",
		Short: "Verify fee parameters held constant across a block range",
		RunE:  runVerifyFees,
	}

	verifyCmd.Flags().String("vault", "", "vault address")
	verifyCmd.Flags().Uint64("chain", 1, "chain ID (1, 8453, 42161, 137)")
	verifyCmd.Flags().String("rpc", "", "RPC URL (overrides endpoint selection)")
	verifyCmd.Flags().Uint64("from", 0, "first block (inclusive)")
	verifyCmd.Flags().Uint64("to", 0, "last block (inclusive), 0 means latest")
	verifyCmd.Flags().Uint64("reference-bps", 0, "expected performance fee in bps, 0 reads the latest on-chain rate")
	verifyCmd.Flags().Int("fee-checks", 5, "number of sample points")
	verifyCmd.Flags().Int("max-retries", 3, "maximum RPC retry attempts")
	verifyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	verifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(verifyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
