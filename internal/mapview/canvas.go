package mapview

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
)

// Canvas is an in-memory Map that can be served as GeoJSON.
type Canvas struct {
	mu      sync.RWMutex
	camera  domain.CameraPosition
	markers []domain.Marker
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) MoveCamera(pos domain.CameraPosition) {
	c.mu.Lock()
	c.camera = pos
	c.mu.Unlock()
}

func (c *Canvas) AddMarker(m domain.Marker) {
	c.mu.Lock()
	c.markers = append(c.markers, m)
	c.mu.Unlock()
}

func (c *Canvas) ClearMarkers() {
	c.mu.Lock()
	c.markers = nil
	c.mu.Unlock()
}

// Camera returns the current camera position.
func (c *Canvas) Camera() domain.CameraPosition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.camera
}

// Markers returns a copy of the plotted markers in insertion order.
func (c *Canvas) Markers() []domain.Marker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Marker, len(c.markers))
	copy(out, c.markers)
	return out
}

// FeatureCollection renders every marker as a GeoJSON point feature.
// The camera is carried as a foreign member.
func (c *Canvas) FeatureCollection() *geojson.FeatureCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, m := range c.markers {
		f := geojson.NewFeature(orb.Point{m.Position.Lng, m.Position.Lat})
		f.ID = m.ID
		f.Properties["title"] = m.Title
		f.Properties["snippet"] = m.Snippet
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"camera": map[string]any{
			"lat":  c.camera.Target.Lat,
			"lng":  c.camera.Target.Lng,
			"zoom": c.camera.Zoom,
		},
	}
	return fc
}
