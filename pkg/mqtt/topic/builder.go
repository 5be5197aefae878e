// Package topic constructs the MQTT topic strings shared between the
// orchestrator and the vehicle-telemetry bridge. The segment constants are
// the protocol contract; changing them breaks deployed bridges.
package topic

import (
	"fmt"
)

// Upstream: bridge -> orchestrator (telemetry).
// Pattern: {root}/telemetry/{kind}/{vehicleID}
const (
	// SegHeartbeat carries periodic liveness reports.
	SegHeartbeat = "telemetry/heartbeat"

	// SegPosition carries position updates {lat, lon, alt, battery}.
	SegPosition = "telemetry/position"

	// SegWaypoint carries waypoint-reached reports {missionID, index}.
	SegWaypoint = "telemetry/waypoint"

	// SegArmed and SegDisarmed carry arm-state changes.
	SegArmed    = "telemetry/armed"
	SegDisarmed = "telemetry/disarmed"

	// SegError carries vehicle-reported failures {reason}.
	SegError = "telemetry/error"
)

// Downstream: orchestrator -> bridge (command intents).
// Pattern: {root}/command/{vehicleID}
const (
	SegCommand = "command"
)

// Wildcard is the single-level MQTT wildcard, matching exactly one level.
const Wildcard = "+"

// Builder constructs full topic strings under a fixed root namespace.
type Builder struct {
	root string
}

// NewBuilder creates a Builder with the given root namespace (e.g. "gcs/v1").
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Build returns {root}/{segment}/{vehicleID}.
func (b *Builder) Build(segment, vehicleID string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, segment, vehicleID)
}

// BuildWildcard returns the filter matching the segment for every vehicle.
func (b *Builder) BuildWildcard(segment string) string {
	return b.Build(segment, Wildcard)
}

// Shared returns a builder that prefixes filters with an MQTT shared
// subscription group, so multiple orchestrator replicas split the stream.
func (b *Builder) Shared(group string) *Builder {
	return &Builder{root: fmt.Sprintf("$share/%s/%s", group, b.root)}
}

// Command returns the downstream command topic for one vehicle.
func (b *Builder) Command(vehicleID string) string {
	return b.Build(SegCommand, vehicleID)
}
