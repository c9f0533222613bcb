package geo

import (
	"math"

	pmgeo "github.com/paulmach/go.geo"
	"github.com/wroge/wgs84"

	"github.com/iotlog/fleetengine/pkg/core"
)

// Unit is a display unit for distances.
type Unit string

const (
	UnitNauticalMiles Unit = "nm"
	UnitKilometers    Unit = "km"
)

// Conversion contract: these constants are exact, not approximations.
const (
	MetersPerNauticalMile = 1852.0
	MetersPerKilometer    = 1000.0
)

// PathLength returns the cumulative great-circle distance in meters
// across consecutive points. Fewer than two points measure 0.
func PathLength(points []core.LatLng) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	prev := pmgeo.NewPoint(points[0].Lng, points[0].Lat)
	for _, p := range points[1:] {
		next := pmgeo.NewPoint(p.Lng, p.Lat)
		total += prev.GeoDistanceFrom(next, true)
		prev = next
	}
	return total
}

// ConvertDistance converts meters into the given display unit.
// Unknown units pass meters through unchanged.
func ConvertDistance(meters float64, unit Unit) float64 {
	switch unit {
	case UnitNauticalMiles:
		return meters / MetersPerNauticalMile
	case UnitKilometers:
		return meters / MetersPerKilometer
	default:
		return meters
	}
}

// EstimatedDuration returns the hours needed to travel the path at the
// assumed speed in knots. Degenerate paths and non-positive speeds
// report 0 rather than Inf/NaN.
func EstimatedDuration(points []core.LatLng, speedKnots float64) float64 {
	if len(points) < 2 || speedKnots <= 0 {
		return 0
	}
	return PathLength(points) / MetersPerNauticalMile / speedKnots
}

// Bearing returns the initial great-circle bearing from a to b in
// degrees, normalized to [0, 360). Used to orient the animated marker
// along its current segment.
func Bearing(a, b core.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Project3857 converts a WGS84 coordinate to Web Mercator. Render
// payloads carry both systems so map clients with no projection
// support can place markers directly.
func Project3857(p core.LatLng) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(p.Lng, p.Lat, 0)
	return x, y
}
