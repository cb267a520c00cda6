package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vaultScope/internal/model"
)

// Store provides Postgres persistence for analysis results.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertAnalysis inserts or updates the analysis summary for a depositor.
func (s *Store) UpsertAnalysis(ctx context.Context, record model.AnalysisRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO depositor_analyses (
			chain_id, vault_address, depositor_address, asset_symbol, decimals,
			current_shares, current_value, total_deposited, total_withdrawn,
			net_profit, gross_profit, total_fees, entry_pps, current_pps,
			peak_shares, peak_shares_block, performance_bps, fee_rate_fallback,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now(),now())
		ON CONFLICT (chain_id, vault_address, depositor_address)
		DO UPDATE SET
			asset_symbol = EXCLUDED.asset_symbol,
			decimals = EXCLUDED.decimals,
			current_shares = EXCLUDED.current_shares,
			current_value = EXCLUDED.current_value,
			total_deposited = EXCLUDED.total_deposited,
			total_withdrawn = EXCLUDED.total_withdrawn,
			net_profit = EXCLUDED.net_profit,
			gross_profit = EXCLUDED.gross_profit,
			total_fees = EXCLUDED.total_fees,
			entry_pps = EXCLUDED.entry_pps,
			current_pps = EXCLUDED.current_pps,
			peak_shares = EXCLUDED.peak_shares,
			peak_shares_block = EXCLUDED.peak_shares_block,
			performance_bps = EXCLUDED.performance_bps,
			fee_rate_fallback = EXCLUDED.fee_rate_fallback,
			updated_at = now()
	`,
		int64(record.ChainID),
		record.VaultAddress,
		record.DepositorAddress,
		record.AssetSymbol,
		int16(record.Decimals),
		record.CurrentShares,
		record.CurrentValue,
		record.TotalDeposited,
		record.TotalWithdrawn,
		record.NetProfit,
		record.GrossProfit,
		record.TotalFees,
		record.EntryPPS,
		record.CurrentPPS,
		record.PeakShares,
		int64(record.PeakSharesBlock),
		int64(record.PerformanceBps),
		record.FeeRateFallback,
	)
	return err
}

// ReplaceSnapshots rewrites the stored snapshot history for a depositor.
func (s *Store) ReplaceSnapshots(ctx context.Context, chainID uint64, vault, depositor string, snapshots []model.PositionSnapshot) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM depositor_snapshots
		WHERE chain_id=$1 AND vault_address=$2 AND depositor_address=$3
	`, int64(chainID), vault, depositor); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, snapshot := range snapshots {
		batch.Queue(`
			INSERT INTO depositor_snapshots (
				chain_id, vault_address, depositor_address, block_number, kind,
				share_balance, share_delta, cumulative_deposited, cumulative_withdrawn,
				created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
		`,
			int64(chainID),
			vault,
			depositor,
			int64(snapshot.BlockNumber),
			string(snapshot.Kind),
			snapshot.ShareBalance.String(),
			snapshot.ShareDelta.String(),
			snapshot.CumulativeDeposited.String(),
			snapshot.CumulativeWithdrawn.String(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
