package storage

import (
	"context"

	"ai-startup-map/models"
)

// CheckpointSink is the interface any database mirror of checkpoint 2 must satisfy.
type CheckpointSink interface {
	Write(ctx context.Context, runID string, t *models.Table) error
	Close() error
}
