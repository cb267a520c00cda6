package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vaultScope/internal/model"
	"vaultScope/internal/profit"
)

// JsonlExporter appends analysis records to a JSONL file.
type JsonlExporter struct {
	path string
	mu   sync.Mutex
}

func NewJsonlExporter(path string) *JsonlExporter {
	return &JsonlExporter{path: path}
}

type snapshotRecord struct {
	Type                string `json:"type"`
	BlockNumber         uint64 `json:"block_number"`
	Kind                string `json:"kind"`
	ShareBalance        string `json:"share_balance"`
	ShareDelta          string `json:"share_delta"`
	CumulativeDeposited string `json:"cumulative_deposited"`
	CumulativeWithdrawn string `json:"cumulative_withdrawn"`
}

type seriesRecord struct {
	Type   string `json:"type"`
	Block  uint64 `json:"block"`
	Shares string `json:"shares"`
	Profit string `json:"profit"`
}

// PutSnapshots appends position snapshots as JSON lines.
func (e *JsonlExporter) PutSnapshots(snapshots []model.PositionSnapshot) error {
	records := make([]any, 0, len(snapshots))
	for _, snapshot := range snapshots {
		records = append(records, snapshotRecord{
			Type:                "snapshot",
			BlockNumber:         snapshot.BlockNumber,
			Kind:                string(snapshot.Kind),
			ShareBalance:        snapshot.ShareBalance.String(),
			ShareDelta:          snapshot.ShareDelta.String(),
			CumulativeDeposited: snapshot.CumulativeDeposited.String(),
			CumulativeWithdrawn: snapshot.CumulativeWithdrawn.String(),
		})
	}
	return e.appendRecords(records)
}

// PutSeries appends balance/profit series points as JSON lines.
func (e *JsonlExporter) PutSeries(points []profit.Point) error {
	records := make([]any, 0, len(points))
	for _, point := range points {
		records = append(records, seriesRecord{
			Type:   "series_point",
			Block:  point.Block,
			Shares: point.Shares.String(),
			Profit: point.Profit.String(),
		})
	}
	return e.appendRecords(records)
}

func (e *JsonlExporter) appendRecords(records []any) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(e.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	file, err := os.OpenFile(e.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
