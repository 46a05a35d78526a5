// Package gauge holds the soil and river radial gauges
package gauge

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
)

// Renderer draws a gauge. Draw is called with the new value each time it
// changes.
type Renderer interface {
	Draw(name string, value, lo, hi float64, zone Zone)
}

// Gauge is one radial gauge. It is created once and mutated in place.
type Gauge struct {
	cfg      Config
	renderer Renderer

	mu    sync.RWMutex
	value float64
}

// New validates the configuration and returns a gauge showing the domain
// minimum
func New(cfg Config, renderer Renderer) (*Gauge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s gauge: %w", cfg.Name, err)
	}
	g := &Gauge{cfg: cfg, renderer: renderer, value: cfg.Min}
	g.draw(cfg.Min)
	return g, nil
}

// Set updates the displayed value. Absent or non-numeric input is ignored
// and the previous value stays on display. It reports whether the value
// changed.
func (g *Gauge) Set(f entities.Field) bool {
	v, ok := f.Float64()
	if !ok {
		return false
	}

	g.mu.Lock()
	g.value = v
	g.mu.Unlock()

	g.draw(v)
	return true
}

// Value returns the displayed value
func (g *Gauge) Value() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Zone returns the color zone of the displayed value
func (g *Gauge) Zone() Zone {
	return g.cfg.ZoneFor(g.Value())
}

// Config returns the gauge configuration
func (g *Gauge) Config() Config {
	return g.cfg
}

// Redraw pushes the current value to the renderer again, used after the
// canvas has been replaced
func (g *Gauge) Redraw() {
	g.draw(g.Value())
}

func (g *Gauge) draw(v float64) {
	if g.renderer == nil {
		return
	}
	g.renderer.Draw(g.cfg.Name, v, g.cfg.Min, g.cfg.Max, g.cfg.ZoneFor(v))
}

// Adapter exposes the two dashboard gauges
type Adapter struct {
	soil   *Gauge
	river  *Gauge
	logger *zap.Logger
}

// NewAdapter builds the soil and river gauges
func NewAdapter(soilRenderer, riverRenderer Renderer, riverCeiling float64, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	soil, err := New(SoilConfig(), soilRenderer)
	if err != nil {
		return nil, err
	}
	river, err := New(RiverConfig(riverCeiling), riverRenderer)
	if err != nil {
		return nil, err
	}
	return &Adapter{soil: soil, river: river, logger: logger}, nil
}

// SetSoil updates the soil gauge; absent values are a no-op
func (a *Adapter) SetSoil(v entities.Field) {
	a.set(a.soil, v)
}

// SetRiver updates the river gauge; absent values are a no-op
func (a *Adapter) SetRiver(v entities.Field) {
	a.set(a.river, v)
}

func (a *Adapter) set(g *Gauge, v entities.Field) {
	if g.Set(v) {
		return
	}
	if v.Present() {
		a.logger.Warn("Ignoring non-numeric gauge value",
			zap.String("gauge", g.cfg.Name),
			zap.String("value", v.String()))
	}
}

// Soil returns the soil gauge
func (a *Adapter) Soil() *Gauge {
	return a.soil
}

// River returns the river gauge
func (a *Adapter) River() *Gauge {
	return a.river
}

// Redraw redraws both gauges
func (a *Adapter) Redraw() {
	a.soil.Redraw()
	a.river.Redraw()
}
