package core

import (
	"context"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// VehicleRepository owns vehicle records. All mutation goes through it;
// operations on the same ID are serialized, different IDs proceed
// independently.
type VehicleRepository interface {
	// Create registers a new vehicle; Duplicate error on ID collision.
	Create(vehicle *model.Vehicle) error

	// Get retrieves a vehicle by ID; NotFound error when absent.
	Get(id string) (*model.Vehicle, error)

	// List returns all vehicles in ID order.
	List() []*model.Vehicle

	// Patch applies the non-nil fields of patch under the entity key lock.
	Patch(id string, patch *model.VehiclePatch) (*model.Vehicle, error)

	// Mutate applies fn to the vehicle under the entity key lock. fn sees
	// and edits the live record; an error aborts with no change observed.
	Mutate(id string, fn func(v *model.Vehicle) error) (*model.Vehicle, error)
}

// MissionRepository owns mission records.
type MissionRepository interface {
	Create(mission *model.Mission) error
	Get(id string) (*model.Mission, error)
	List() []*model.Mission
	Mutate(id string, fn func(m *model.Mission) error) (*model.Mission, error)
}

// GeofenceRepository owns the airspace zone set.
type GeofenceRepository interface {
	Create(zone *model.Geofence) error
	Get(name string) (*model.Geofence, error)
	List() []*model.Geofence

	// Replace swaps the stored zone definition; NotFound error when absent.
	Replace(zone *model.Geofence) error

	// SetActive toggles zone participation in checks.
	SetActive(name string, active bool) (*model.Geofence, error)
}

// WorkflowRepository owns workflow records.
type WorkflowRepository interface {
	Create(workflow *model.Workflow) error
	Get(id string) (*model.Workflow, error)
	List() []*model.Workflow
}

// Repository aggregates the per-entity repositories.
type Repository interface {
	Vehicles() VehicleRepository
	Missions() MissionRepository
	Geofences() GeofenceRepository
	Workflows() WorkflowRepository
}

// EventRecorder appends an event to the bounded event log. Payload is
// marshaled to JSON; a payload that cannot marshal is recorded without one.
type EventRecorder interface {
	Record(kind model.EventKind, subject string, payload any)
}

// CommandNotifier signals command intents (execute, abort) to the vehicle
// bridge. Cooperative: a returned nil means the intent was published, not
// that the vehicle acted on it.
type CommandNotifier interface {
	NotifyExecute(ctx context.Context, vehicleID, missionID string) error
	NotifyAbort(ctx context.Context, vehicleID, missionID string) error
}
