package model

import "time"

// MissionType is the closed set of mission kinds. Each kind carries its own
// parameter struct in MissionParams; there is no open-ended dispatch.
type MissionType string

const (
	MissionTypeSurvey        MissionType = "survey"
	MissionTypeCorridor      MissionType = "corridor"
	MissionTypeStructureScan MissionType = "structure-scan"
)

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionStatusCreated   MissionStatus = "created"
	MissionStatusValidated MissionStatus = "validated"
	MissionStatusAssigned  MissionStatus = "assigned"
	MissionStatusActive    MissionStatus = "active"
	MissionStatusCompleted MissionStatus = "completed"
	MissionStatusAborted   MissionStatus = "aborted"
	MissionStatusFailed    MissionStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s MissionStatus) Terminal() bool {
	switch s {
	case MissionStatusCompleted, MissionStatusAborted, MissionStatusFailed:
		return true
	}
	return false
}

// SurveySpec parameterizes an area-coverage mission: parallel boustrophedon
// scan lines over a polygon.
type SurveySpec struct {
	Polygon []Position `json:"polygon"`

	// Spacing is the nominal distance between scan lines in meters.
	Spacing float64 `json:"spacing"`

	// Overlap is the sensor overlap fraction in [0,1); effective line
	// spacing is Spacing * (1 - Overlap).
	Overlap float64 `json:"overlap"`

	// Altitude of every waypoint in meters.
	Altitude float64 `json:"altitude"`
}

// CorridorSpec parameterizes a linear inspection mission.
type CorridorSpec struct {
	Start Position `json:"start"`
	End   Position `json:"end"`

	// Width is the corridor envelope in meters. It is recorded for
	// operators but not enforced as a boundary during path checks.
	Width float64 `json:"width"`

	Altitude float64 `json:"altitude"`

	// Segments subdivides the corridor; the path has Segments+1 waypoints.
	Segments int `json:"segments"`
}

// StructureSpec parameterizes an orbital structure scan.
type StructureSpec struct {
	Center Position `json:"center"`

	// Radius of the orbits in meters.
	Radius float64 `json:"radius"`

	AltitudeMin float64 `json:"altitudeMin"`
	AltitudeMax float64 `json:"altitudeMax"`

	Orbits         int `json:"orbits"`
	PointsPerOrbit int `json:"pointsPerOrbit"`
}

// MissionParams holds exactly one spec, selected by the mission type.
type MissionParams struct {
	Survey    *SurveySpec    `json:"survey,omitempty"`
	Corridor  *CorridorSpec  `json:"corridor,omitempty"`
	Structure *StructureSpec `json:"structure,omitempty"`
}

// Progress counts waypoints reached out of the planned total.
type Progress struct {
	Reached int `json:"reached"`
	Total   int `json:"total"`
}

// Stats holds derived path statistics computed at planning time.
type Stats struct {
	// Distance is the total path length in meters.
	Distance float64 `json:"distance"`

	// Duration is the estimated flight time at a nominal cruise speed.
	Duration time.Duration `json:"duration"`
}

// Mission is a planned flight. Waypoints are computed once at creation and
// never change; status and progress are mutated only by the execution engine.
type Mission struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Type   MissionType   `json:"type"`
	Status MissionStatus `json:"status"`

	Params    MissionParams `json:"params"`
	Waypoints []Waypoint    `json:"waypoints"`

	// VehicleID is set when a vehicle is assigned and kept on terminal
	// missions as a record of which vehicle flew them. The vehicle side of
	// the assignment is cleared on release.
	VehicleID string `json:"vehicleID,omitempty"`

	Progress Progress `json:"progress"`
	Stats    Stats    `json:"stats"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
