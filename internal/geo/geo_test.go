package geo

import (
	"math"
	"testing"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// unit square around the origin
var square = []model.Position{
	{Lat: 0, Lon: 0},
	{Lat: 0, Lon: 1},
	{Lat: 1, Lon: 1},
	{Lat: 1, Lon: 0},
}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    model.Position
		want bool
	}{
		{"center", model.Position{Lat: 0.5, Lon: 0.5}, true},
		{"outside right", model.Position{Lat: 0.5, Lon: 1.5}, false},
		{"outside above", model.Position{Lat: 1.5, Lon: 0.5}, false},
		{"on edge counts as inside", model.Position{Lat: 0, Lon: 0.5}, true},
		{"on vertex counts as inside", model.Position{Lat: 1, Lon: 1}, true},
		{"near edge inside", model.Position{Lat: 0.0001, Lon: 0.5}, true},
		{"near edge outside", model.Position{Lat: -0.0001, Lon: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("PointInPolygon(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	line := []model.Position{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
	if PointInPolygon(model.Position{Lat: 0.5, Lon: 0.5}, line) {
		t.Error("two-vertex polygon should contain nothing")
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// L-shape: the notch at the top-right is outside.
	l := []model.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 1, Lon: 2},
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 1},
		{Lat: 2, Lon: 0},
	}
	if !PointInPolygon(model.Position{Lat: 0.5, Lon: 1.5}, l) {
		t.Error("point in the foot of the L should be inside")
	}
	if PointInPolygon(model.Position{Lat: 1.5, Lon: 1.5}, l) {
		t.Error("point in the notch should be outside")
	}
}

func TestBounds(t *testing.T) {
	b := Bounds(square)
	want := BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}

	if !b.Contains(model.Position{Lat: 0.5, Lon: 0.5}) {
		t.Error("box should contain its center")
	}
	if b.Contains(model.Position{Lat: 2, Lon: 0.5}) {
		t.Error("box should not contain a point above it")
	}
}

func TestDistance(t *testing.T) {
	// One degree of latitude is about 111.32 km regardless of longitude.
	a := model.Position{Lat: 37.0, Lon: -122.0}
	b := model.Position{Lat: 38.0, Lon: -122.0}
	got := Distance(a, b)
	if math.Abs(got-MetersPerDegree) > 1 {
		t.Errorf("latitude degree distance = %f, want ~%f", got, MetersPerDegree)
	}

	// Longitude degrees shrink with cos(lat).
	c := model.Position{Lat: 60.0, Lon: 0.0}
	d := model.Position{Lat: 60.0, Lon: 1.0}
	got = Distance(c, d)
	want := MetersPerDegree * math.Cos(60.0*math.Pi/180)
	if math.Abs(got-want) > 50 {
		t.Errorf("longitude degree distance at 60N = %f, want ~%f", got, want)
	}

	if Distance(a, a) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestDistance3D(t *testing.T) {
	a := model.Position{Lat: 0, Lon: 0, Alt: 0}
	b := model.Position{Lat: 0, Lon: 0, Alt: 100}
	if got := Distance3D(a, b); math.Abs(got-100) > 1e-9 {
		t.Errorf("vertical distance = %f, want 100", got)
	}
}

func TestSegmentIntersectsPolygon(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 model.Position
		want   bool
	}{
		{"crossing through", model.Position{Lat: 0.5, Lon: -1}, model.Position{Lat: 0.5, Lon: 2}, true},
		{"fully inside", model.Position{Lat: 0.4, Lon: 0.4}, model.Position{Lat: 0.6, Lon: 0.6}, true},
		{"fully outside", model.Position{Lat: 2, Lon: 2}, model.Position{Lat: 3, Lon: 3}, false},
		{"one end inside", model.Position{Lat: 0.5, Lon: 0.5}, model.Position{Lat: 0.5, Lon: 2}, true},
		{"touching a vertex", model.Position{Lat: 1, Lon: 1}, model.Position{Lat: 2, Lon: 2}, true},
		{"parallel outside", model.Position{Lat: -0.5, Lon: 0}, model.Position{Lat: -0.5, Lon: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentIntersectsPolygon(tt.p1, tt.p2, square); got != tt.want {
				t.Errorf("SegmentIntersectsPolygon = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentCrossesPolygon(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 model.Position
		want   bool
	}{
		{"crossing through", model.Position{Lat: 0.5, Lon: -1}, model.Position{Lat: 0.5, Lon: 2}, true},
		{"exits one side", model.Position{Lat: 0.5, Lon: 0.5}, model.Position{Lat: 0.5, Lon: 2}, true},
		{"fully inside", model.Position{Lat: 0.4, Lon: 0.4}, model.Position{Lat: 0.6, Lon: 0.6}, false},
		{"fully outside", model.Position{Lat: 2, Lon: 2}, model.Position{Lat: 3, Lon: 3}, false},
		{"touching a vertex", model.Position{Lat: 1, Lon: 1}, model.Position{Lat: 2, Lon: 2}, false},
		{"endpoint on edge", model.Position{Lat: 0.5, Lon: 1}, model.Position{Lat: 0.5, Lon: 0.5}, false},
		{"collinear along edge", model.Position{Lat: 0, Lon: 0.2}, model.Position{Lat: 0, Lon: 0.8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentCrossesPolygon(tt.p1, tt.p2, square); got != tt.want {
				t.Errorf("SegmentCrossesPolygon = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonArea(t *testing.T) {
	// A 0.01 x 0.01 degree square at the equator is roughly 1.11 km on a
	// side, so ~1.24e6 square meters.
	small := []model.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.01},
		{Lat: 0.01, Lon: 0.01},
		{Lat: 0.01, Lon: 0},
	}
	got := PolygonArea(small)
	want := (0.01 * MetersPerDegree) * (0.01 * MetersPerDegree)
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("PolygonArea = %f, want ~%f", got, want)
	}

	if PolygonArea(square[:2]) != 0 {
		t.Error("degenerate polygon should have zero area")
	}
}

func TestPathLength(t *testing.T) {
	wps := []model.Waypoint{
		{Position: model.Position{Lat: 0, Lon: 0, Alt: 50}, Seq: 0},
		{Position: model.Position{Lat: 0, Lon: 0.01, Alt: 50}, Seq: 1},
		{Position: model.Position{Lat: 0, Lon: 0.02, Alt: 50}, Seq: 2},
	}
	got := PathLength(wps)
	want := 2 * 0.01 * MetersPerDegree
	if math.Abs(got-want) > 5 {
		t.Errorf("PathLength = %f, want ~%f", got, want)
	}

	if PathLength(nil) != 0 {
		t.Error("empty path should have zero length")
	}
}
