// Package geofence answers containment and conflict queries for candidate
// points and paths against the current airspace zone set.
package geofence

import (
	"fmt"
	"sort"

	"github.com/groundctl/groundctl/internal/geo"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// ZoneSource supplies the current zone set. Checks recompute from it on
// every call, so zone additions and removals take effect on the next check
// with no cache invalidation.
type ZoneSource interface {
	List() []*model.Geofence
}

// Violation is a hard geofence conflict naming the offending zone.
type Violation struct {
	Zone   string            `json:"zone"`
	Kind   model.GeofenceKind `json:"kind"`
	Reason string            `json:"reason"`

	// WaypointSeq is the index of the offending waypoint for path checks,
	// -1 when the conflict is on a connecting segment or a single point.
	WaypointSeq int `json:"waypointSeq"`
}

// Advisory is a non-blocking warning-zone notice.
type Advisory struct {
	Zone        string `json:"zone"`
	Reason      string `json:"reason"`
	WaypointSeq int    `json:"waypointSeq"`
}

// Verdict is the outcome of a geofence check: clear, or a hard violation.
// Advisories are collected either way and never block.
type Verdict struct {
	Clear      bool       `json:"clear"`
	Violation  *Violation `json:"violation,omitempty"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Engine evaluates zones in descending priority order. It holds no state of
// its own beyond the zone source and is safe for concurrent use.
type Engine struct {
	zones ZoneSource
}

func NewEngine(zones ZoneSource) *Engine {
	return &Engine{zones: zones}
}

// activeByPriority returns the active zones sorted by descending priority,
// ties broken by name for determinism.
func (e *Engine) activeByPriority() []*model.Geofence {
	all := e.zones.List()
	zones := make([]*model.Geofence, 0, len(all))
	for _, z := range all {
		if z.Active {
			zones = append(zones, z)
		}
	}
	sort.Slice(zones, func(i, j int) bool {
		if zones[i].Priority != zones[j].Priority {
			return zones[i].Priority > zones[j].Priority
		}
		return zones[i].Name < zones[j].Name
	})
	return zones
}

// inAltitudeBand reports whether alt falls inside the zone's band.
func inAltitudeBand(z *model.Geofence, alt float64) bool {
	return alt >= z.MinAltitude && alt <= z.MaxAltitude
}

// CheckPoint evaluates a single position against the current zone set.
func (e *Engine) CheckPoint(p model.Position) Verdict {
	return e.checkPoint(p, -1, e.activeByPriority())
}

func (e *Engine) checkPoint(p model.Position, seq int, zones []*model.Geofence) Verdict {
	v := Verdict{Clear: true}

	for _, z := range zones {
		if !inAltitudeBand(z, p.Alt) {
			// A keep-in zone constrains only traffic inside its altitude
			// band; outside the band no zone applies.
			continue
		}

		inside := geo.PointInPolygon(p, z.Polygon)

		switch z.Kind {
		case model.GeofenceKeepOut:
			if inside {
				v.Clear = false
				v.Violation = &Violation{
					Zone:        z.Name,
					Kind:        z.Kind,
					Reason:      "position inside keep-out zone",
					WaypointSeq: seq,
				}
				return v
			}
		case model.GeofenceKeepIn:
			if !inside {
				v.Clear = false
				v.Violation = &Violation{
					Zone:        z.Name,
					Kind:        z.Kind,
					Reason:      "position outside keep-in zone",
					WaypointSeq: seq,
				}
				return v
			}
		case model.GeofenceWarning:
			if inside {
				v.Advisories = append(v.Advisories, Advisory{
					Zone:        z.Name,
					Reason:      "position inside warning zone",
					WaypointSeq: seq,
				})
			}
		}
	}

	return v
}

// CheckPath evaluates every waypoint and every connecting segment, so a zone
// straddled between two waypoints is still caught. The first hard violation
// (priority order, then waypoint order) is returned; advisories from the
// whole path are collected and returned alongside.
func (e *Engine) CheckPath(waypoints []model.Waypoint) Verdict {
	zones := e.activeByPriority()
	result := Verdict{Clear: true}

	for i, wp := range waypoints {
		v := e.checkPoint(wp.Position, wp.Seq, zones)
		result.Advisories = append(result.Advisories, v.Advisories...)
		if !v.Clear && result.Violation == nil {
			result.Clear = false
			result.Violation = v.Violation
			return result
		}

		if i == 0 {
			continue
		}
		if sv := e.checkSegment(waypoints[i-1], wp, zones); sv != nil {
			result.Clear = false
			result.Violation = sv
			return result
		}
	}

	return result
}

// CheckTransit evaluates the segment from a free position (typically the
// vehicle's current location) to the first waypoint of a path.
func (e *Engine) CheckTransit(from model.Position, to model.Waypoint) Verdict {
	zones := e.activeByPriority()
	result := e.checkPoint(from, -1, zones)
	if !result.Clear {
		return result
	}

	fake := model.Waypoint{Position: from, Seq: -1}
	if sv := e.checkSegment(fake, to, zones); sv != nil {
		result.Clear = false
		result.Violation = sv
	}
	return result
}

// checkSegment returns a violation if the segment between two consecutive
// waypoints conflicts with a zone whose altitude band overlaps the segment's
// altitude range.
func (e *Engine) checkSegment(a, b model.Waypoint, zones []*model.Geofence) *Violation {
	minAlt := a.Alt
	maxAlt := b.Alt
	if minAlt > maxAlt {
		minAlt, maxAlt = maxAlt, minAlt
	}

	for _, z := range zones {
		if z.MaxAltitude < minAlt || z.MinAltitude > maxAlt {
			continue
		}

		switch z.Kind {
		case model.GeofenceKeepOut:
			if geo.SegmentIntersectsPolygon(a.Position, b.Position, z.Polygon) {
				return &Violation{
					Zone:        z.Name,
					Kind:        z.Kind,
					Reason:      fmt.Sprintf("segment %d-%d crosses keep-out zone", a.Seq, b.Seq),
					WaypointSeq: b.Seq,
				}
			}
		case model.GeofenceKeepIn:
			// Endpoints were already verified inside; the segment still
			// leaves the zone if it crosses the boundary between them.
			if crossesBoundary(a.Position, b.Position, z.Polygon) {
				return &Violation{
					Zone:        z.Name,
					Kind:        z.Kind,
					Reason:      fmt.Sprintf("segment %d-%d exits keep-in zone", a.Seq, b.Seq),
					WaypointSeq: b.Seq,
				}
			}
		}
	}
	return nil
}

// crossesBoundary reports whether a segment with both endpoints inside the
// polygon leaves it: either it strictly crosses an edge, or its midpoint
// falls outside. The edge test catches an excursion that re-enters before
// the midpoint; touching the boundary from inside is not an exit.
func crossesBoundary(p1, p2 model.Position, polygon []model.Position) bool {
	if geo.SegmentCrossesPolygon(p1, p2, polygon) {
		return true
	}
	mid := model.Position{
		Lat: (p1.Lat + p2.Lat) / 2,
		Lon: (p1.Lon + p2.Lon) / 2,
		Alt: (p1.Alt + p2.Alt) / 2,
	}
	return !geo.PointInPolygon(mid, polygon)
}
