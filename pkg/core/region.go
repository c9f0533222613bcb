package core

import (
	"encoding/json"
	"fmt"
)

// REGION DATA
// Region playback arrives as time slices: [timestampSeconds, [vessel,
// vessel, ...]] where each vessel is a fixed-position array. The field
// order below mirrors the AIS aggregation endpoint and must not be
// reordered; consumers index through the named constants only.

// Field offsets within a VesselSnapshot array.
const (
	RegionTimestamp   = 0
	RegionLat         = 1
	RegionLon         = 2
	RegionSpeed       = 3
	RegionCourse      = 4
	RegionHeading     = 5
	RegionVesselID    = 6
	RegionName        = 7
	RegionMMSI        = 8
	RegionVesselClass = 9
	RegionVesselType  = 10
)

// VesselSnapshot is one vessel's state inside a region time slice.
// Elements are whatever JSON produced (float64, string or nil), so all
// reads go through the typed accessors.
type VesselSnapshot []any

func (v VesselSnapshot) float(idx int) (float64, bool) {
	if idx >= len(v) {
		return 0, false
	}
	f, ok := v[idx].(float64)
	return f, ok
}

func (v VesselSnapshot) str(idx int) string {
	if idx >= len(v) {
		return ""
	}
	s, _ := v[idx].(string)
	return s
}

// Timestamp returns the fix timestamp in epoch seconds.
func (v VesselSnapshot) Timestamp() (float64, bool) { return v.float(RegionTimestamp) }

// LatLng returns the vessel position and whether one is present.
// Snapshots without a latitude are dark targets and are not rendered.
func (v VesselSnapshot) LatLng() (LatLng, bool) {
	lat, ok := v.float(RegionLat)
	if !ok {
		return LatLng{}, false
	}
	lon, ok := v.float(RegionLon)
	if !ok {
		return LatLng{}, false
	}
	return LatLng{Lat: lat, Lng: lon}, true
}

// Speed returns speed over ground in knots.
func (v VesselSnapshot) Speed() (float64, bool) { return v.float(RegionSpeed) }

// Course returns course over ground in degrees.
func (v VesselSnapshot) Course() (float64, bool) { return v.float(RegionCourse) }

// Orientation returns the rendering angle: heading when reported,
// course otherwise.
func (v VesselSnapshot) Orientation() float64 {
	if h, ok := v.float(RegionHeading); ok {
		return h
	}
	c, _ := v.float(RegionCourse)
	return c
}

// VesselID returns the stable vessel identifier used as marker key.
func (v VesselSnapshot) VesselID() string {
	if s := v.str(RegionVesselID); s != "" {
		return s
	}
	// Some feeds carry numeric ids.
	if f, ok := v.float(RegionVesselID); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

// Name returns the vessel name.
func (v VesselSnapshot) Name() string { return v.str(RegionName) }

// MMSI returns the vessel MMSI as reported.
func (v VesselSnapshot) MMSI() string {
	if s := v.str(RegionMMSI); s != "" {
		return s
	}
	if f, ok := v.float(RegionMMSI); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

// Class returns the AIS vessel class string (e.g. "TANKER").
func (v VesselSnapshot) Class() string { return v.str(RegionVesselClass) }

// Type returns the operator-assigned vessel type (e.g. "TUG", "PLT").
func (v VesselSnapshot) Type() string { return v.str(RegionVesselType) }

// RegionTimeSlice is all vessel snapshots of a region at one moment.
type RegionTimeSlice struct {
	Timestamp float64 // epoch seconds
	Vessels   []VesselSnapshot
}

// UnmarshalJSON decodes the wire tuple [ts, [vessel, ...]].
func (s *RegionTimeSlice) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("region slice is not an array: %w", err)
	}
	if len(parts) < 2 {
		return fmt.Errorf("region slice has %d elements, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Timestamp); err != nil {
		return fmt.Errorf("region slice timestamp: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Vessels); err != nil {
		return fmt.Errorf("region slice vessels: %w", err)
	}
	return nil
}

// MarshalJSON encodes the wire tuple [ts, [vessel, ...]].
func (s RegionTimeSlice) MarshalJSON() ([]byte, error) {
	vessels := s.Vessels
	if vessels == nil {
		vessels = []VesselSnapshot{}
	}
	return json.Marshal([]any{s.Timestamp, vessels})
}

// TimeBoundsMillisRegion returns the scrubber bounds of ordered region
// slices in epoch millis. ok is false when there are no slices.
func TimeBoundsMillisRegion(slices []RegionTimeSlice) (startMs, endMs int64, ok bool) {
	if len(slices) == 0 {
		return 0, 0, false
	}
	return int64(slices[0].Timestamp * 1000), int64(slices[len(slices)-1].Timestamp * 1000), true
}
