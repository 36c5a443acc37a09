package mapview

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
)

const requestTimeout = 10 * time.Second

type mapResponse struct {
	Camera domain.CameraPosition `json:"camera"`
	Status
}

// NewRouter exposes the canvas and screen state over HTTP.
func NewRouter(canvas *Canvas, screen *Screen, log logger.Logger) http.Handler {
	log = logger.Ensure(log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, log)
	})

	r.Route("/api/v1/map", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, mapResponse{
				Camera: canvas.Camera(),
				Status: screen.Status(),
			}, log)
		})
		r.Get("/markers.geojson", func(w http.ResponseWriter, _ *http.Request) {
			raw, err := canvas.FeatureCollection().MarshalJSON()
			if err != nil {
				log.ErrorObj("render geojson failed", "mapview_geojson_error", map[string]any{"error": err.Error()})
				http.Error(w, "render failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			_, _ = w.Write(raw)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WarnObj("write response failed", "mapview_response_error", map[string]any{"error": err.Error()})
	}
}
