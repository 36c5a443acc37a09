package mapview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samvad-hq/seoul-parking-map/pkg/seoulapi"
)

func newLoadedServer(t *testing.T) *httptest.Server {
	t.Helper()
	data := decodeFixture(t, twoLotsFixture)
	fetcher := &fakeFetcher{respond: func(context.Context) seoulapi.Outcome {
		return seoulapi.Outcome{Data: data}
	}}
	canvas := NewCanvas()
	screen := NewScreen(fetcher, "강남구", nil)
	screen.OnMapReady(canvas)
	waitDone(t, screen)

	srv := httptest.NewServer(NewRouter(canvas, screen, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newLoadedServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMapEndpointReportsStatus(t *testing.T) {
	srv := newLoadedServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/map")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Camera struct {
			Target struct{ Lat, Lng float64 } `json:"target"`
			Zoom   float64                    `json:"zoom"`
		} `json:"camera"`
		District string `json:"district"`
		State    string `json:"state"`
		Markers  int    `json:"markers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Camera.Zoom != 12 || body.District != "강남구" || body.State != string(StateLoaded) || body.Markers != 2 {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestMarkersGeoJSON(t *testing.T) {
	srv := newLoadedServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/map/markers.geojson")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content type = %q", ct)
	}

	var fc geojson.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	pt, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok || pt.Lon() != 127.05621 || pt.Lat() != 37.48337 {
		t.Fatalf("unexpected geometry %#v", fc.Features[0].Geometry)
	}
	if fc.Features[0].Properties.MustString("title", "") != "개포동 공영주차장(구)" {
		t.Fatalf("unexpected properties %#v", fc.Features[0].Properties)
	}
	if _, ok := fc.ExtraMembers["camera"]; !ok {
		t.Fatalf("expected camera member")
	}
}
