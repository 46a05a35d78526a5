// Package httpserver serves the live dashboard document and its actions
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/gauge"
	"github.com/abelzeko/station-dashboard/internal/shell"
	"github.com/abelzeko/station-dashboard/internal/usecases"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// RangeSelector is the range control of the feed poller
type RangeSelector interface {
	CurrentRange() entities.Range
	SelectRange(rng entities.Range) error
	Running() bool
}

// Handler serves the dashboard endpoints
type Handler struct {
	shell  *shell.Shell
	poller RangeSelector
	gauges *gauge.Adapter
	charts *chart.Adapter
	logger *zap.Logger
}

// NewHandler creates a handler over the mounted dashboard
func NewHandler(sh *shell.Shell, poller RangeSelector, gauges *gauge.Adapter, charts *chart.Adapter, logger *zap.Logger) *Handler {
	return &Handler{shell: sh, poller: poller, gauges: gauges, charts: charts, logger: logger}
}

// GaugeView is the displayed state of one gauge
type GaugeView struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Zone  string  `json:"zone"`
}

// Snapshot is the JSON view of the dashboard
type Snapshot struct {
	Fragment string               `json:"fragment"`
	Polling  bool                 `json:"polling"`
	Range    entities.Range       `json:"range"`
	Ranges   []entities.Range     `json:"ranges"`
	Readouts map[string]string    `json:"readouts"`
	Gauges   map[string]GaugeView `json:"gauges"`
	Chart    *chart.State         `json:"chart"`
}

// ServeDocument writes the current dashboard document. ?open=params mounts
// the parameters page first.
func (h *Handler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("open") == "params" && h.shell.Current() != shell.ParamsFragment {
		if err := h.shell.Mount(r.Context(), shell.ParamsFragment); err != nil {
			h.logger.Warn("Error mounting parameters page", zap.Error(err))
		}
	}

	html, err := h.shell.HTML()
	if err != nil {
		h.logger.Error("Error rendering document", zap.Error(err))
		http.Error(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// ServeSnapshot writes the dashboard state as JSON
func (h *Handler) ServeSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := Snapshot{
		Fragment: h.shell.Current(),
		Polling:  h.poller.Running(),
		Range:    h.poller.CurrentRange(),
		Ranges:   h.shell.RangeControls(),
		Readouts: view.Snapshot(h.shell),
		Gauges: map[string]GaugeView{
			"soil":  gaugeView(h.gauges.Soil()),
			"river": gaugeView(h.gauges.River()),
		},
	}
	if state, ok := h.charts.Snapshot(); ok {
		snap.Chart = &state
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleSelectRange switches the chart range
func (h *Handler) HandleSelectRange(w http.ResponseWriter, r *http.Request) {
	rng, err := entities.ParseRange(chi.URLParam(r, "range"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fetching := true
	if err := h.poller.SelectRange(rng); err != nil {
		if !errors.Is(err, usecases.ErrNotStarted) {
			h.logger.Error("Error selecting range", zap.Error(err))
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fetching = false
	}
	writeJSON(w, http.StatusOK, map[string]any{"range": rng, "fetching": fetching})
}

// HandleMount loads a fragment into the content region
func (h *Handler) HandleMount(w http.ResponseWriter, r *http.Request) {
	fragment := chi.URLParam(r, "fragment")
	if err := h.shell.Mount(r.Context(), fragment); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, shell.ErrUnknownFragment) {
			status = http.StatusNotFound
		}
		writeJSONError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"current": h.shell.Current()})
}

func gaugeView(g *gauge.Gauge) GaugeView {
	cfg := g.Config()
	return GaugeView{Value: g.Value(), Min: cfg.Min, Max: cfg.Max, Zone: g.Zone().Color}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
