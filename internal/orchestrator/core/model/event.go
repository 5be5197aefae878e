package model

import (
	"encoding/json"
	"time"
)

// EventKind identifies the source and meaning of an event.
type EventKind string

// Bridge-originated event kinds (telemetry ingress).
const (
	EventHeartbeat       EventKind = "heartbeat"
	EventPositionUpdate  EventKind = "position-update"
	EventWaypointReached EventKind = "waypoint-reached"
	EventArmed           EventKind = "armed"
	EventDisarmed        EventKind = "disarmed"
	EventVehicleError    EventKind = "error"
)

// Orchestrator-originated event kinds (audit trail).
const (
	EventVehicleRegistered EventKind = "vehicle-registered"
	EventMissionCreated    EventKind = "mission-created"
	EventMissionTransition EventKind = "mission-transition"
	EventGeofenceCreated   EventKind = "geofence-created"
	EventGeofenceViolation EventKind = "geofence-violation"
)

// Event is an immutable, timestamped record appended to the bounded log.
// Never mutated after append.
type Event struct {
	// Seq is the monotonically increasing sequence number assigned on append.
	Seq uint64 `json:"seq"`

	Kind EventKind `json:"kind"`

	// Subject is the entity the event concerns (vehicle or mission ID).
	Subject string `json:"subject"`

	Timestamp time.Time `json:"timestamp"`

	// Payload carries kind-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`
}
