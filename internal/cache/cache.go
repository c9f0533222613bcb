// Package cache holds in-memory lookup state shared between render
// passes. Region playback re-renders on every cursor move, so marker
// handles are cached instead of being torn down and recreated for
// every vessel each pass.
package cache

import (
	"sync"

	"github.com/iotlog/fleetengine/internal/render"
)

// VesselCache maps vessel identifiers to their live marker handles.
type VesselCache struct {
	m       sync.Mutex
	markers map[string]render.Marker
}

func NewVesselCache() *VesselCache {
	return &VesselCache{
		markers: make(map[string]render.Marker),
	}
}

// Get retrieves the marker handle for a vessel.
func (c *VesselCache) Get(id string) (render.Marker, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	mk, ok := c.markers[id]
	return mk, ok
}

// Set stores a marker handle for a vessel.
func (c *VesselCache) Set(id string, mk render.Marker) {
	c.m.Lock()
	defer c.m.Unlock()
	c.markers[id] = mk
}

// Delete drops a vessel from the cache without removing its marker.
func (c *VesselCache) Delete(id string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.markers, id)
}

// IDs returns the cached vessel identifiers.
func (c *VesselCache) IDs() []string {
	c.m.Lock()
	defer c.m.Unlock()
	ids := make([]string, 0, len(c.markers))
	for id := range c.markers {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the number of cached markers.
func (c *VesselCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.markers)
}

// Reset removes every cached marker from the map and clears the cache.
func (c *VesselCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	for _, mk := range c.markers {
		mk.Remove()
	}
	c.markers = make(map[string]render.Marker)
}

// SafeCounter is a thread-safe counter.
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
