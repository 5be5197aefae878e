// Package metrics defines the orchestrator's prometheus collectors.
// They are registered with the default registry and exposed on the HTTP
// server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts bridge events by kind.
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_events_ingested_total",
			Help: "Total number of telemetry/bridge events ingested, by kind.",
		},
		[]string{"kind"},
	)

	// EventsDiscarded counts telemetry anomalies absorbed without error:
	// duplicates, progress regressions, events for unknown vehicles.
	EventsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_events_discarded_total",
			Help: "Total number of ingested events absorbed as no-ops, by reason.",
		},
		[]string{"reason"},
	)

	// MissionTransitions counts mission state-machine transitions.
	MissionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_mission_transitions_total",
			Help: "Total number of mission state transitions, by target state.",
		},
		[]string{"to"},
	)

	// GeofenceViolations counts hard violations reported by path validation.
	GeofenceViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_geofence_violations_total",
			Help: "Total number of hard geofence violations detected, by zone.",
		},
		[]string{"zone"},
	)

	// VehiclesByStatus tracks the current fleet composition.
	VehiclesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcs_vehicles",
			Help: "Current number of registered vehicles, by status.",
		},
		[]string{"status"},
	)

	// ActiveMissions tracks missions in the assigned or active state.
	ActiveMissions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gcs_active_missions",
			Help: "Current number of missions in the assigned or active state.",
		},
	)
)
