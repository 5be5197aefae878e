package model

import "time"

// VehicleType classifies the airframe.
type VehicleType string

const (
	VehicleTypeMultiRotor VehicleType = "multi-rotor"
	VehicleTypeFixedWing  VehicleType = "fixed-wing"
	VehicleTypeVTOL       VehicleType = "vtol"
)

// ValidVehicleType reports whether t is one of the known airframe types.
func ValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleTypeMultiRotor, VehicleTypeFixedWing, VehicleTypeVTOL:
		return true
	}
	return false
}

// VehicleStatus is the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusIdle      VehicleStatus = "idle"
	VehicleStatusArmed     VehicleStatus = "armed"
	VehicleStatusFlying    VehicleStatus = "flying"
	VehicleStatusReturning VehicleStatus = "returning"
	VehicleStatusFailed    VehicleStatus = "failed"
	VehicleStatusOffline   VehicleStatus = "offline"
)

// ValidVehicleStatus reports whether s is one of the known statuses.
func ValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleStatusIdle, VehicleStatusArmed, VehicleStatusFlying,
		VehicleStatusReturning, VehicleStatusFailed, VehicleStatusOffline:
		return true
	}
	return false
}

// Capabilities describes the flight envelope of an airframe. The values are
// consulted during mission validation (altitude ceiling, battery/range
// margin); they are defaults per type, overridable at registration.
type Capabilities struct {
	// MaxSpeed in m/s.
	MaxSpeed float64 `json:"maxSpeed"`

	// MaxAltitude in meters above ground.
	MaxAltitude float64 `json:"maxAltitude"`

	// MaxRange in meters on a full battery.
	MaxRange float64 `json:"maxRange"`

	// CruiseSpeed in m/s, used for flight-time estimates.
	CruiseSpeed float64 `json:"cruiseSpeed"`
}

// DefaultCapabilities returns the flight envelope defaults for a vehicle type.
func DefaultCapabilities(t VehicleType) Capabilities {
	switch t {
	case VehicleTypeFixedWing:
		return Capabilities{MaxSpeed: 25, MaxAltitude: 1000, MaxRange: 50000, CruiseSpeed: 20}
	case VehicleTypeVTOL:
		return Capabilities{MaxSpeed: 20, MaxAltitude: 800, MaxRange: 30000, CruiseSpeed: 15}
	default: // multi-rotor
		return Capabilities{MaxSpeed: 15, MaxAltitude: 400, MaxRange: 5000, CruiseSpeed: 10}
	}
}

// Vehicle is the core entity for one registered airframe.
// Mutated only by the registry under its per-key lock.
type Vehicle struct {
	// ID is the caller-supplied unique identifier.
	ID string `json:"id"`

	Type   VehicleType   `json:"type"`
	Status VehicleStatus `json:"status"`

	// Position is the last reported location.
	Position Position `json:"position"`

	// Battery is the remaining charge in percent [0,100].
	Battery float64 `json:"battery"`

	Capabilities Capabilities `json:"capabilities"`

	// MissionID references the mission this vehicle is assigned to,
	// empty when unassigned. A vehicle holds at most one active mission.
	MissionID string `json:"missionID,omitempty"`

	// LastSeen is the timestamp of the last telemetry received.
	LastSeen time.Time `json:"lastSeen"`
}

// VehiclePatch is a partial update; nil fields are left unchanged.
type VehiclePatch struct {
	Status   *VehicleStatus `json:"status,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Battery  *float64       `json:"battery,omitempty"`
}

// Apply copies the non-nil patch fields onto v.
func (v *Vehicle) Apply(patch *VehiclePatch) {
	if patch.Status != nil {
		v.Status = *patch.Status
	}
	if patch.Position != nil {
		v.Position = *patch.Position
	}
	if patch.Battery != nil {
		v.Battery = *patch.Battery
	}
}
