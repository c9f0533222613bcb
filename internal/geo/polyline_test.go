package geo

import (
	"testing"
)

func TestParseLatLngs_Valid(t *testing.T) {
	points, err := ParseLatLngs("[[-23.98,-46.30],[-24.01,-46.35]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Lat != -23.98 || points[0].Lng != -46.30 {
		t.Errorf("unexpected first point %+v", points[0])
	}
}

func TestParseLatLngs_SinglePoint(t *testing.T) {
	points, err := ParseLatLngs("[[-23.98,-46.30]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("expected 1 point, got %d", len(points))
	}
}

func TestParseLatLngs_Invalid(t *testing.T) {
	if _, err := ParseLatLngs("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseLatLngs("[[-23.98]]"); err == nil {
		t.Error("expected error for short coordinate")
	}
}

func TestLineString(t *testing.T) {
	points, _ := ParseLatLngs("[[-23.98,-46.30],[-24.01,-46.35],[-24.10,-46.40]]")
	ls, err := LineString(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq := ls.Coordinates()
	if seq.Length() != 3 {
		t.Errorf("expected 3 coordinates, got %d", seq.Length())
	}
	// lng/lat order in geometry space
	if xy := seq.GetXY(0); xy.X != -46.30 || xy.Y != -23.98 {
		t.Errorf("unexpected first coordinate %+v", xy)
	}
}

func TestLineString_TooShort(t *testing.T) {
	if _, err := LineString(nil); err == nil {
		t.Error("expected error for empty polyline")
	}
}
