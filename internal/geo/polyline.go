package geo

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/iotlog/fleetengine/pkg/core"
)

// ParseLatLngs parses a drawing-tool payload into coordinate pairs.
// Input format: "[[lat1,lng1],[lat2,lng2],...]". A single point is a
// legal in-progress line.
func ParseLatLngs(input string) ([]core.LatLng, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	points := make([]core.LatLng, 0, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		points = append(points, core.LatLng{Lat: coord[0], Lng: coord[1]})
	}
	return points, nil
}

// LineString builds a simplefeatures LineString (lng/lat order) from a
// measurement polyline, for export and geometry interop.
func LineString(points []core.LatLng) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(points))
	}

	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq)
}
