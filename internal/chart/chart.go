// Package chart keeps the historical time-series chart in sync with the
// selected range
package chart

import (
	"sync"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
)

// SeriesSpec fixes the label and line color of one series slot
type SeriesSpec struct {
	Label string
	Color string
}

// Slots lists the series in display order. Slot i always holds the same
// metric.
var Slots = [entities.SeriesCount]SeriesSpec{
	{Label: "Soil (%)", Color: "green"},
	{Label: "Temp (°C)", Color: "red"},
	{Label: "Humidity (%)", Color: "blue"},
	{Label: "Rain Max (mm/min)", Color: "aqua"},
	{Label: "Rain Total (mm)", Color: "skyblue"},
	{Label: "River Height (m)", Color: "purple"},
}

// Dataset is one line of the chart
type Dataset struct {
	Label string     `json:"label"`
	Color string     `json:"color"`
	Data  []*float64 `json:"data"`
}

// Options are the fixed rendering options of the chart
type Options struct {
	Responsive          bool   `json:"responsive"`
	MaintainAspectRatio bool   `json:"maintainAspectRatio"`
	XAxis               string `json:"xAxis"`
	MaxTicks            int    `json:"maxTicks"`
	HoverMode           string `json:"hoverMode"`
	HoverIntersect      bool   `json:"hoverIntersect"`
	Legend              bool   `json:"legend"`
}

// DefaultOptions is a responsive category line chart with a shared
// crosshair across series
func DefaultOptions() Options {
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		XAxis:               "category",
		MaxTicks:            12,
		HoverMode:           "index",
		HoverIntersect:      false,
		Legend:              true,
	}
}

// State is the mutable chart instance
type State struct {
	Range    entities.Range                `json:"range"`
	Labels   []string                      `json:"labels"`
	Datasets [entities.SeriesCount]Dataset `json:"datasets"`
	Options  Options                       `json:"options"`
}

// Points returns the number of points in the first series
func (s State) Points() int {
	return len(s.Datasets[0].Data)
}

func (s State) clone() State {
	out := s
	out.Labels = append([]string(nil), s.Labels...)
	for i := range s.Datasets {
		out.Datasets[i].Data = append([]*float64(nil), s.Datasets[i].Data...)
	}
	return out
}

// Renderer draws the chart. Create is called once for the first render,
// Update for every later one, Destroy only on Reset.
type Renderer interface {
	Create(state State)
	Update(state State)
	Destroy()
}

// Adapter owns the single chart instance
type Adapter struct {
	renderer Renderer
	logger   *zap.Logger

	mu      sync.RWMutex
	state   *State
	created int
	updates int
}

// NewAdapter creates an adapter without a chart; the chart is created on the
// first render
func NewAdapter(renderer Renderer, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{renderer: renderer, logger: logger}
}

// Render shows the series for a range. The first call creates the chart;
// later calls replace the labels and each slot's data in place.
func (a *Adapter) Render(rng entities.Range, series entities.HistoricalSeries) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.render(rng, series)
}

func (a *Adapter) render(rng entities.Range, series entities.HistoricalSeries) {
	data := series.Series()

	if a.state == nil {
		st := State{Range: rng, Options: DefaultOptions()}
		st.Labels = append([]string(nil), series.Labels...)
		for i, spec := range Slots {
			st.Datasets[i] = Dataset{Label: spec.Label, Color: spec.Color, Data: append([]*float64(nil), data[i]...)}
		}
		a.state = &st
		a.created++

		a.logger.Info("Created chart",
			zap.String("range", rng.String()),
			zap.Int("points", len(series.Labels)))
		if a.renderer != nil {
			a.renderer.Create(st.clone())
		}
		return
	}

	a.state.Range = rng
	a.state.Labels = append([]string(nil), series.Labels...)
	for i := range a.state.Datasets {
		a.state.Datasets[i].Data = append([]*float64(nil), data[i]...)
	}
	a.updates++

	a.logger.Debug("Updated chart",
		zap.String("range", rng.String()),
		zap.Int("points", len(series.Labels)))
	if a.renderer != nil {
		a.renderer.Update(a.state.clone())
	}
}

// Clear empties the labels and every series without destroying the chart.
// Before the chart exists there is nothing to clear.
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == nil {
		a.logger.Debug("No chart to clear")
		return
	}
	a.render(a.state.Range, entities.HistoricalSeries{})
}

// Reset destroys the chart; the next render creates a new one
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == nil {
		return
	}
	a.state = nil
	if a.renderer != nil {
		a.renderer.Destroy()
	}
}

// Snapshot returns a copy of the chart state and whether a chart exists
func (a *Adapter) Snapshot() (State, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.state == nil {
		return State{}, false
	}
	return a.state.clone(), true
}

// Redraw pushes the current state to the renderer again, used after the
// canvas has been replaced
func (a *Adapter) Redraw() {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.state != nil && a.renderer != nil {
		a.renderer.Update(a.state.clone())
	}
}

// Instances returns how many times a chart has been created
func (a *Adapter) Instances() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.created
}

// Updates returns how many in-place updates have been applied
func (a *Adapter) Updates() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updates
}
