package core

// HISTORY DATA
// Route history arrives from the fleet API as bare JSON tuples, one per
// position fix: [timestampSeconds, lat, lng, ...optional fields].
// The tuple shape is the wire contract; accessors below are the only
// sanctioned way to read a field.

// Field offsets within a HistoryPoint tuple.
const (
	HistTimestamp = 0
	HistLat       = 1
	HistLng       = 2
)

// HistoryPoint is one timestamped position fix of a single vessel.
// Timestamps are epoch seconds. Tuples shorter than three elements are
// tolerated (they carry no renderable position).
type HistoryPoint []float64

// Timestamp returns the epoch-seconds timestamp, or 0 for a short tuple.
func (p HistoryPoint) Timestamp() float64 {
	if len(p) <= HistTimestamp {
		return 0
	}
	return p[HistTimestamp]
}

// LatLng returns the position and whether the tuple carries one.
func (p HistoryPoint) LatLng() (LatLng, bool) {
	if len(p) <= HistLng {
		return LatLng{}, false
	}
	return LatLng{Lat: p[HistLat], Lng: p[HistLng]}, true
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimeBoundsMillis returns the scrubber bounds of an ordered history:
// first and last timestamp converted to epoch millis. ok is false for
// an empty history.
func TimeBoundsMillis(history []HistoryPoint) (startMs, endMs int64, ok bool) {
	if len(history) == 0 {
		return 0, 0, false
	}
	return int64(history[0].Timestamp() * 1000), int64(history[len(history)-1].Timestamp() * 1000), true
}
