// Package mapview drives the parking map: it positions the camera over Seoul,
// loads one district's realtime parking data and plots a marker per lot.
package mapview

import "github.com/samvad-hq/seoul-parking-map/internal/domain"

// Map is the drawing surface the screen controls.
type Map interface {
	MoveCamera(pos domain.CameraPosition)
	AddMarker(m domain.Marker)
	ClearMarkers()
}
