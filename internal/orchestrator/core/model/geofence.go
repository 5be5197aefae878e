package model

// GeofenceKind selects the containment rule a zone enforces.
type GeofenceKind string

const (
	// GeofenceKeepIn requires presence inside the zone.
	GeofenceKeepIn GeofenceKind = "keep-in"

	// GeofenceKeepOut forbids presence inside the zone.
	GeofenceKeepOut GeofenceKind = "keep-out"

	// GeofenceWarning is advisory: containment is surfaced but never blocks.
	GeofenceWarning GeofenceKind = "warning"
)

// ValidGeofenceKind reports whether k is one of the known kinds.
func ValidGeofenceKind(k GeofenceKind) bool {
	switch k {
	case GeofenceKeepIn, GeofenceKeepOut, GeofenceWarning:
		return true
	}
	return false
}

// Geofence is an airspace zone. Immutable once stored except via explicit
// replace; every path validation reads the current zone set.
type Geofence struct {
	// Name is the unique identifier of the zone.
	Name string `json:"name"`

	Kind GeofenceKind `json:"kind"`

	// Polygon is the ordered vertex list, implicitly closed, >= 3 vertices.
	Polygon []Position `json:"polygon"`

	// Priority orders evaluation; higher priority zones are checked first.
	Priority int `json:"priority"`

	// Altitude band in meters. A zone only applies to positions inside
	// [MinAltitude, MaxAltitude]; the band must have non-zero width.
	MinAltitude float64 `json:"minAltitude"`
	MaxAltitude float64 `json:"maxAltitude"`

	// Active zones participate in checks; inactive ones are skipped.
	Active bool `json:"active"`
}
