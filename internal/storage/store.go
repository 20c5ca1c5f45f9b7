// Package storage persists board snapshots: one record per item plus a singleton view config.
package storage

import (
	"context"

	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/viewport"
)

// Snapshot is everything that survives a restart.
type Snapshot struct {
	Items []state.Item  `json:"items"`
	View  viewport.View `json:"view"`
}

// Empty is the snapshot of a fresh board.
func Empty() Snapshot {
	return Snapshot{View: viewport.DefaultView()}
}

// Store is a durable snapshot store. Save replaces everything previously saved.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// LoadOrEmpty loads a snapshot and falls back to an empty board when the store
// is unreadable. The failure is logged, never returned.
func LoadOrEmpty(ctx context.Context, s Store) Snapshot {
	if s == nil {
		return Empty()
	}
	snap, err := s.Load(ctx)
	if err != nil {
		logger.Error("[STORE] load failed, starting with an empty board", err)
		return Empty()
	}
	if snap.View.Zoom == 0 {
		snap.View = viewport.DefaultView()
	}
	snap.View = snap.View.Normalize()
	logger.Info("[STORE] board loaded", map[string]interface{}{"items": len(snap.Items), "zoom": snap.View.Zoom})
	return snap
}
