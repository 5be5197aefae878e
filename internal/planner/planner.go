// Package planner turns mission parameter specs into deterministic waypoint
// sequences. Planners are pure functions of their input: identical specs
// always yield identical waypoints, so a mission can be re-planned for
// comparison at any time.
package planner

import (
	"math"
	"sort"

	"github.com/groundctl/groundctl/internal/geo"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// Plan dispatches on the mission type carried by params.
func Plan(missionType model.MissionType, params model.MissionParams) ([]model.Waypoint, error) {
	switch missionType {
	case model.MissionTypeSurvey:
		if params.Survey == nil {
			return nil, core.NewPlanning("survey mission requires survey parameters")
		}
		return Survey(*params.Survey)
	case model.MissionTypeCorridor:
		if params.Corridor == nil {
			return nil, core.NewPlanning("corridor mission requires corridor parameters")
		}
		return Corridor(*params.Corridor)
	case model.MissionTypeStructureScan:
		if params.Structure == nil {
			return nil, core.NewPlanning("structure scan mission requires structure parameters")
		}
		return Structure(*params.Structure)
	default:
		return nil, core.NewPlanning("unknown mission type "+string(missionType))
	}
}

// Survey computes a boustrophedon coverage pattern: horizontal scan lines
// spaced at spacing*(1-overlap) across the polygon's bounding box, each line
// clipped to the polygon by edge intersection, direction alternating per
// line to minimize turns. One waypoint is emitted per intersection-pair
// endpoint at the fixed survey altitude.
func Survey(spec model.SurveySpec) ([]model.Waypoint, error) {
	if len(spec.Polygon) < 3 {
		return nil, core.NewPlanning("survey polygon needs at least 3 vertices")
	}
	if spec.Spacing <= 0 {
		return nil, core.NewPlanning("survey spacing must be positive")
	}
	if spec.Overlap < 0 || spec.Overlap >= 1 {
		return nil, core.NewPlanning("survey overlap must be in [0, 1)")
	}

	bounds := geo.Bounds(spec.Polygon)
	effective := spec.Spacing * (1 - spec.Overlap)
	latStep := effective / geo.MetersPerDegree

	var waypoints []model.Waypoint
	lineNum := 0
	for lat := bounds.MinLat; lat <= bounds.MaxLat; lat += latStep {
		spans := scanLineSpans(lat, spec.Polygon)
		if lineNum%2 == 1 {
			// Reverse span order and endpoints on odd lines so the path
			// snakes back instead of jumping to the western edge.
			reverseSpans(spans)
		}
		for _, s := range spans {
			waypoints = append(waypoints,
				model.Waypoint{Position: model.Position{Lat: lat, Lon: s[0], Alt: spec.Altitude}, Seq: len(waypoints)},
				model.Waypoint{Position: model.Position{Lat: lat, Lon: s[1], Alt: spec.Altitude}, Seq: len(waypoints) + 1},
			)
		}
		lineNum++
	}

	if len(waypoints) == 0 {
		return nil, core.NewPlanning("survey polygon produced no coverage lines")
	}
	return waypoints, nil
}

// scanLineSpans intersects the horizontal line at lat with every polygon
// edge and pairs the sorted crossing longitudes into interior spans. For a
// simple polygon crossings come in pairs; a crossing exactly on a vertex is
// counted once by the half-open edge rule.
func scanLineSpans(lat float64, polygon []model.Position) [][2]float64 {
	var crossings []float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		a := polygon[i]
		b := polygon[(i+1)%n]
		// Half-open in latitude: a vertex belongs to the edge leaving it.
		if (a.Lat <= lat && b.Lat > lat) || (b.Lat <= lat && a.Lat > lat) {
			t := (lat - a.Lat) / (b.Lat - a.Lat)
			crossings = append(crossings, a.Lon+t*(b.Lon-a.Lon))
		}
	}
	sort.Float64s(crossings)

	spans := make([][2]float64, 0, len(crossings)/2)
	for i := 0; i+1 < len(crossings); i += 2 {
		spans = append(spans, [2]float64{crossings[i], crossings[i+1]})
	}
	return spans
}

func reverseSpans(spans [][2]float64) {
	for i, j := 0, len(spans)-1; i < j; i, j = i+1, j-1 {
		spans[i], spans[j] = spans[j], spans[i]
	}
	for i := range spans {
		spans[i][0], spans[i][1] = spans[i][1], spans[i][0]
	}
}

// Corridor emits segments+1 evenly spaced collinear waypoints along the
// start-end line at the fixed altitude. The corridor width is an envelope
// recorded on the mission for path checks; it does not add waypoints.
func Corridor(spec model.CorridorSpec) ([]model.Waypoint, error) {
	if spec.Segments < 1 {
		return nil, core.NewPlanning("corridor needs at least 1 segment")
	}
	if spec.Width < 0 {
		return nil, core.NewPlanning("corridor width must not be negative")
	}
	if spec.Start.Lat == spec.End.Lat && spec.Start.Lon == spec.End.Lon {
		return nil, core.NewPlanning("corridor start and end coincide")
	}

	waypoints := make([]model.Waypoint, 0, spec.Segments+1)
	for i := 0; i <= spec.Segments; i++ {
		t := float64(i) / float64(spec.Segments)
		waypoints = append(waypoints, model.Waypoint{
			Position: model.Position{
				Lat: spec.Start.Lat + t*(spec.End.Lat-spec.Start.Lat),
				Lon: spec.Start.Lon + t*(spec.End.Lon-spec.Start.Lon),
				Alt: spec.Altitude,
			},
			Seq: i,
		})
	}
	return waypoints, nil
}

// Structure emits orbits*pointsPerOrbit waypoints on concentric circles
// around the center, altitude linearly interpolated from AltitudeMin on the
// first orbit to AltitudeMax on the last. A single orbit flies at
// AltitudeMin.
func Structure(spec model.StructureSpec) ([]model.Waypoint, error) {
	if spec.Radius <= 0 {
		return nil, core.NewPlanning("structure scan radius must be positive")
	}
	if spec.Orbits < 1 || spec.PointsPerOrbit < 3 {
		return nil, core.NewPlanning("structure scan needs at least 1 orbit of 3 points")
	}
	if spec.AltitudeMax < spec.AltitudeMin {
		return nil, core.NewPlanning("structure scan altitude range is inverted")
	}

	altStep := 0.0
	if spec.Orbits > 1 {
		altStep = (spec.AltitudeMax - spec.AltitudeMin) / float64(spec.Orbits-1)
	}

	latRadius := spec.Radius / geo.MetersPerDegree
	lonRadius := spec.Radius / (geo.MetersPerDegree * math.Cos(spec.Center.Lat*math.Pi/180))

	waypoints := make([]model.Waypoint, 0, spec.Orbits*spec.PointsPerOrbit)
	for orbit := 0; orbit < spec.Orbits; orbit++ {
		alt := spec.AltitudeMin + float64(orbit)*altStep
		for p := 0; p < spec.PointsPerOrbit; p++ {
			angle := 2 * math.Pi * float64(p) / float64(spec.PointsPerOrbit)
			waypoints = append(waypoints, model.Waypoint{
				Position: model.Position{
					Lat: spec.Center.Lat + latRadius*math.Cos(angle),
					Lon: spec.Center.Lon + lonRadius*math.Sin(angle),
					Alt: alt,
				},
				Seq: len(waypoints),
			})
		}
	}
	return waypoints, nil
}
