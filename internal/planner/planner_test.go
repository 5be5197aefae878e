package planner

import (
	"math"
	"reflect"
	"testing"

	"github.com/groundctl/groundctl/internal/geo"
	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func assertPlanningError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected planning error, got nil")
	}
	if !core.IsKind(err, core.ErrorKindPlanning) {
		t.Fatalf("error kind = %v, want planning: %v", core.KindOf(err), err)
	}
}

func TestSurveyCoversPolygon(t *testing.T) {
	// Roughly 1km x 1km square near the equator.
	polygon := []model.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.009},
		{Lat: 0.009, Lon: 0.009},
		{Lat: 0.009, Lon: 0},
	}
	wps, err := Survey(model.SurveySpec{
		Polygon:  polygon,
		Spacing:  100,
		Overlap:  0.2,
		Altitude: 80,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) == 0 {
		t.Fatal("expected waypoints")
	}
	if len(wps)%2 != 0 {
		t.Errorf("waypoint count %d is odd, want intersection pairs", len(wps))
	}

	for i, wp := range wps {
		if wp.Seq != i {
			t.Errorf("waypoint %d has Seq %d", i, wp.Seq)
		}
		if wp.Alt != 80 {
			t.Errorf("waypoint %d altitude = %v, want 80", i, wp.Alt)
		}
		if !geo.PointInPolygon(wp.Position, polygon) {
			t.Errorf("waypoint %d (%v, %v) outside polygon", i, wp.Lat, wp.Lon)
		}
	}

	// Effective spacing 80m: expect roughly 1000/80 scan lines.
	lines := len(wps) / 2
	if lines < 10 || lines > 15 {
		t.Errorf("scan lines = %d, want about 12 for 80m effective spacing", lines)
	}
}

func TestSurveyBoustrophedonAlternates(t *testing.T) {
	polygon := []model.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.01},
		{Lat: 0.01, Lon: 0.01},
		{Lat: 0.01, Lon: 0},
	}
	wps, err := Survey(model.SurveySpec{Polygon: polygon, Spacing: 200, Altitude: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) < 8 {
		t.Fatalf("need several lines to see alternation, got %d waypoints", len(wps))
	}

	// Even lines run west to east, odd lines east to west.
	for line := 0; line*2+1 < len(wps); line++ {
		a, b := wps[line*2], wps[line*2+1]
		eastward := b.Lon > a.Lon
		if wantEastward := line%2 == 0; eastward != wantEastward {
			t.Errorf("line %d eastward = %v, want %v", line, eastward, wantEastward)
		}
	}
}

func TestSurveyClipsConcavePolygon(t *testing.T) {
	// U shape: the scan line across the opening must split into two spans,
	// none of whose waypoints fall inside the notch.
	polygon := []model.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.01},
		{Lat: 0.01, Lon: 0.01},
		{Lat: 0.01, Lon: 0.007},
		{Lat: 0.003, Lon: 0.007},
		{Lat: 0.003, Lon: 0.003},
		{Lat: 0.01, Lon: 0.003},
		{Lat: 0.01, Lon: 0},
	}
	wps, err := Survey(model.SurveySpec{Polygon: polygon, Spacing: 150, Altitude: 60})
	if err != nil {
		t.Fatal(err)
	}
	for i, wp := range wps {
		if wp.Lat > 0.003 && wp.Lon > 0.0031 && wp.Lon < 0.0069 {
			t.Errorf("waypoint %d (%v, %v) lies inside the notch", i, wp.Lat, wp.Lon)
		}
	}
}

func TestSurveyDeterministic(t *testing.T) {
	spec := model.SurveySpec{
		Polygon: []model.Position{
			{Lat: 37.77, Lon: -122.42},
			{Lat: 37.77, Lon: -122.41},
			{Lat: 37.78, Lon: -122.41},
			{Lat: 37.78, Lon: -122.42},
		},
		Spacing:  120,
		Overlap:  0.3,
		Altitude: 90,
	}
	a, err := Survey(spec)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Survey(spec)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical survey specs produced different waypoints")
	}
}

func TestSurveyDegenerateInput(t *testing.T) {
	poly := []model.Position{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}

	_, err := Survey(model.SurveySpec{Polygon: poly[:2], Spacing: 100})
	assertPlanningError(t, err)

	_, err = Survey(model.SurveySpec{Polygon: poly, Spacing: 0})
	assertPlanningError(t, err)

	_, err = Survey(model.SurveySpec{Polygon: poly, Spacing: 100, Overlap: 1})
	assertPlanningError(t, err)
}

func TestCorridorWaypoints(t *testing.T) {
	spec := model.CorridorSpec{
		Start:    model.Position{Lat: 0, Lon: 0},
		End:      model.Position{Lat: 0, Lon: 0.01},
		Width:    40,
		Altitude: 60,
		Segments: 4,
	}
	wps, err := Corridor(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 5 {
		t.Fatalf("waypoints = %d, want segments+1 = 5", len(wps))
	}
	if wps[0].Position != spec.Start.At(60) {
		t.Errorf("first waypoint = %+v, want start", wps[0].Position)
	}
	if wps[4].Position != spec.End.At(60) {
		t.Errorf("last waypoint = %+v, want end", wps[4].Position)
	}

	// Evenly spaced and collinear.
	step := geo.Distance(wps[0].Position, wps[1].Position)
	for i := 1; i < len(wps); i++ {
		d := geo.Distance(wps[i-1].Position, wps[i].Position)
		if math.Abs(d-step) > 0.01 {
			t.Errorf("segment %d length %v differs from %v", i, d, step)
		}
		if wps[i].Lat != 0 {
			t.Errorf("waypoint %d off the start-end line", i)
		}
	}
}

func TestCorridorDegenerateInput(t *testing.T) {
	_, err := Corridor(model.CorridorSpec{
		Start: model.Position{Lat: 1, Lon: 1}, End: model.Position{Lat: 1, Lon: 1}, Segments: 3,
	})
	assertPlanningError(t, err)

	_, err = Corridor(model.CorridorSpec{
		Start: model.Position{Lat: 0, Lon: 0}, End: model.Position{Lat: 1, Lon: 1}, Segments: 0,
	})
	assertPlanningError(t, err)
}

func TestStructureOrbits(t *testing.T) {
	spec := model.StructureSpec{
		Center:         model.Position{Lat: 10, Lon: 20},
		Radius:         50,
		AltitudeMin:    30,
		AltitudeMax:    70,
		Orbits:         3,
		PointsPerOrbit: 24,
	}
	wps, err := Structure(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 72 {
		t.Fatalf("waypoints = %d, want orbits*pointsPerOrbit = 72", len(wps))
	}

	// Altitudes interpolate 30, 50, 70 across the orbits.
	wantAlts := []float64{30, 50, 70}
	for orbit := 0; orbit < 3; orbit++ {
		for p := 0; p < 24; p++ {
			wp := wps[orbit*24+p]
			if math.Abs(wp.Alt-wantAlts[orbit]) > 1e-9 {
				t.Fatalf("orbit %d point %d altitude = %v, want %v", orbit, p, wp.Alt, wantAlts[orbit])
			}
			d := geo.Distance(spec.Center, wp.Position)
			if math.Abs(d-50) > 1 {
				t.Errorf("orbit %d point %d radius = %vm, want 50m", orbit, p, d)
			}
		}
	}
}

func TestStructureSingleOrbit(t *testing.T) {
	wps, err := Structure(model.StructureSpec{
		Center:         model.Position{Lat: 0, Lon: 0},
		Radius:         30,
		AltitudeMin:    40,
		AltitudeMax:    80,
		Orbits:         1,
		PointsPerOrbit: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 8 {
		t.Fatalf("waypoints = %d, want 8", len(wps))
	}
	for _, wp := range wps {
		if wp.Alt != 40 {
			t.Errorf("single orbit altitude = %v, want AltitudeMin 40", wp.Alt)
		}
	}
}

func TestStructureDegenerateInput(t *testing.T) {
	base := model.StructureSpec{
		Center: model.Position{Lat: 0, Lon: 0}, Radius: 50,
		AltitudeMin: 30, AltitudeMax: 70, Orbits: 2, PointsPerOrbit: 8,
	}

	s := base
	s.Radius = 0
	_, err := Structure(s)
	assertPlanningError(t, err)

	s = base
	s.PointsPerOrbit = 2
	_, err = Structure(s)
	assertPlanningError(t, err)

	s = base
	s.AltitudeMin, s.AltitudeMax = 70, 30
	_, err = Structure(s)
	assertPlanningError(t, err)
}

func TestPlanDispatch(t *testing.T) {
	_, err := Plan(model.MissionTypeSurvey, model.MissionParams{})
	assertPlanningError(t, err)

	wps, err := Plan(model.MissionTypeCorridor, model.MissionParams{
		Corridor: &model.CorridorSpec{
			Start: model.Position{Lat: 0, Lon: 0}, End: model.Position{Lat: 0, Lon: 0.01},
			Altitude: 50, Segments: 2,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 3 {
		t.Errorf("waypoints = %d, want 3", len(wps))
	}

	_, err = Plan(model.MissionType("freeform"), model.MissionParams{})
	assertPlanningError(t, err)
}
