package model

// Position is a point in WGS84 coordinates with altitude in meters.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// At returns a copy of p with the altitude replaced.
func (p Position) At(alt float64) Position {
	p.Alt = alt
	return p
}

// Waypoint is a single target point in a mission's planned path.
type Waypoint struct {
	Position

	// Seq is the zero-based index within the mission path.
	Seq int `json:"seq"`
}
