package domain

import "fmt"

// Domain contains core models shared by the API client, map view and watcher.

// LatLng is a WGS 84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point carries real coordinates.
// The parking service reports missing positions as 0,0.
func (p LatLng) Valid() bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// CameraPosition is what the map widget is pointed at.
type CameraPosition struct {
	Target LatLng  `json:"target"`
	Zoom   float64 `json:"zoom"`
}

const DefaultZoom = 12

// SeoulCenter is Seoul City Hall.
var SeoulCenter = LatLng{Lat: 37.566696, Lng: 126.977942}

// SeoulCamera is the initial camera for the parking map.
func SeoulCamera() CameraPosition {
	return CameraPosition{Target: SeoulCenter, Zoom: DefaultZoom}
}

type ParkingLot struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	Tel           string `json:"tel,omitempty"`
	Capacity      int    `json:"capacity"`
	Occupied      int    `json:"occupied"`
	Paid          bool   `json:"paid"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	Position      LatLng `json:"position"`
	RealtimeState string `json:"realtime_state,omitempty"`
}

// Available returns the number of free spaces, never negative.
func (l ParkingLot) Available() int {
	if free := l.Capacity - l.Occupied; free > 0 {
		return free
	}
	return 0
}

// Marker is a single pin on the map.
type Marker struct {
	ID       string `json:"id"`
	Position LatLng `json:"position"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// MarkerFor converts a lot into a marker. ok is false for lots without coordinates.
func MarkerFor(l ParkingLot) (Marker, bool) {
	if !l.Position.Valid() {
		return Marker{}, false
	}
	return Marker{
		ID:       l.Code,
		Position: l.Position,
		Title:    l.Name,
		Snippet:  fmt.Sprintf("%d/%d available", l.Available(), l.Capacity),
	}, true
}
