package storage

import (
	"vaultScope/internal/model"
	"vaultScope/internal/profit"
)

// Exporter is a sink for analysis artifacts.
type Exporter interface {
	PutSnapshots(snapshots []model.PositionSnapshot) error
	PutSeries(points []profit.Point) error
}
