package diagram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowgrid/flowgrid/internal/db"
	"github.com/flowgrid/flowgrid/internal/typeid"
)

// SnapshotStore persists room documents as versioned snapshots. It backs
// the collaboration hub's load and save hooks.
type SnapshotStore struct {
	queries *db.Queries
}

func NewSnapshotStore(queries *db.Queries) *SnapshotStore {
	return &SnapshotStore{queries: queries}
}

func (ss *SnapshotStore) LoadSnapshot(ctx context.Context, diagramID string) (json.RawMessage, error) {
	snap, err := ss.queries.GetLatestSnapshot(ctx, diagramID)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}

func (ss *SnapshotStore) SaveSnapshot(ctx context.Context, diagramID string, doc json.RawMessage) error {
	version := int32(1)
	if current, err := ss.queries.GetLatestSnapshot(ctx, diagramID); err == nil {
		version = current.Version + 1
	}

	_, err := ss.queries.CreateSnapshot(ctx, typeid.NewSnapshotID(), diagramID, version, doc)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}
