// Package snapshot persists point-in-time dumps of the entity tables. The
// in-memory registry stays authoritative; snapshots exist only so a restart
// can pick up the previous fleet state.
package snapshot

import (
	"context"
	"time"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// Snapshot is a JSON-serializable dump of all entity tables.
type Snapshot struct {
	TakenAt   time.Time         `json:"takenAt"`
	Vehicles  []*model.Vehicle  `json:"vehicles"`
	Missions  []*model.Mission  `json:"missions"`
	Geofences []*model.Geofence `json:"geofences"`
	Workflows []*model.Workflow `json:"workflows"`
}

// Store saves and loads snapshots. Load returns (nil, nil) when no snapshot
// exists yet.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}
