package domain

import "testing"

func TestMarkerForSkipsMissingCoordinates(t *testing.T) {
	if _, ok := MarkerFor(ParkingLot{Code: "1"}); ok {
		t.Fatalf("expected no marker for lot at 0,0")
	}

	m, ok := MarkerFor(ParkingLot{
		Code:     "171721",
		Name:     "세종로 공영주차장(시)",
		Capacity: 1260,
		Occupied: 1300,
		Position: LatLng{Lat: 37.57340269, Lng: 126.97588429},
	})
	if !ok {
		t.Fatalf("expected marker")
	}
	if m.ID != "171721" || m.Title != "세종로 공영주차장(시)" {
		t.Fatalf("unexpected marker %#v", m)
	}
	if m.Snippet != "0/1260 available" {
		t.Fatalf("unexpected snippet %q", m.Snippet)
	}
}

func TestSeoulCamera(t *testing.T) {
	cam := SeoulCamera()
	if cam.Zoom != 12 || cam.Target.Lat != 37.566696 || cam.Target.Lng != 126.977942 {
		t.Fatalf("unexpected camera %#v", cam)
	}
}
