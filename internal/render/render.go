// Package render defines the map-rendering capabilities the playback
// engine drives. The map itself (tiles, DOM, icons) lives in the
// browser; implementations of these interfaces forward placement
// commands to it. Rendering is fire-and-forget: a renderer that cannot
// draw drops the command, it never fails playback.
package render

import "github.com/iotlog/fleetengine/pkg/core"

// MarkerOptions describes a marker to place on the map.
type MarkerOptions struct {
	ID       string
	Position core.LatLng
	Color    string  // icon fill, resolved from the vessel class table
	Rotation float64 // degrees clockwise from north
	Label    string  // permanent tooltip text, empty for none
	Popup    string  // popup body, empty for none
}

// Marker is a handle to one placed marker.
type Marker interface {
	SetPosition(pos core.LatLng)
	SetRotation(deg float64)
	Remove()
}

// Map is the drawing surface capability set.
type Map interface {
	AddMarker(opts MarkerOptions) Marker
	RemoveMarker(id string)
	SetPolyline(id string, points []core.LatLng)
	RemovePolyline(id string)
}

// NopMap discards every command. Used headless and in tests that do
// not assert on rendering.
type NopMap struct{}

type nopMarker struct{}

func (nopMarker) SetPosition(core.LatLng) {}
func (nopMarker) SetRotation(float64)     {}
func (nopMarker) Remove()                 {}

func (NopMap) AddMarker(MarkerOptions) Marker       { return nopMarker{} }
func (NopMap) RemoveMarker(string)                  {}
func (NopMap) SetPolyline(string, []core.LatLng)    {}
func (NopMap) RemovePolyline(string)                {}
