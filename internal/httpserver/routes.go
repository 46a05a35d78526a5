package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes returns the dashboard router:
//   - GET  /                    - the live document
//   - GET  /api/dashboard       - JSON snapshot
//   - POST /range/{range}       - select the chart range
//   - POST /mount/{fragment}    - load a fragment into the content region
//   - GET  /metrics             - Prometheus metrics
//   - GET  /healthz             - liveness
func Routes(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.ServeDocument)
	r.Get("/api/dashboard", h.ServeSnapshot)
	r.Post("/range/{range}", h.HandleSelectRange)
	r.Post("/mount/{fragment}", h.HandleMount)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
