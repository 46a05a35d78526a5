// Package view defines the dashboard's element identifiers and the text
// surface the poller writes readouts into
package view

import "sync"

// Readout element identifiers
const (
	Soil          = "soil"
	Temp          = "temp"
	Hum           = "hum"
	Rain          = "rain"
	River         = "river"
	RainSince9    = "rain-since-9"
	ForecastMin   = "forecast-min"
	ForecastMax   = "forecast-max"
	ForecastProb  = "forecast-rain-prob"
	ForecastRain  = "forecast-rain-intensity"
	AlertLevel    = "alert-level"
	SoilGauge     = "soilGauge"
	RiverGauge    = "riverGauge"
	SensorChart   = "sensorChart"
	ContentRegion = "main-content"
)

// LatestIDs are the readouts owned by the latest-reading feed
var LatestIDs = []string{Soil, Temp, Hum, Rain, River, RainSince9}

// ForecastIDs are the readouts owned by the forecast feed
var ForecastIDs = []string{ForecastMin, ForecastMax, ForecastProb, ForecastRain}

// ReadoutIDs lists every text readout
func ReadoutIDs() []string {
	ids := append([]string(nil), LatestIDs...)
	ids = append(ids, ForecastIDs...)
	return append(ids, AlertLevel)
}

// Surface is where readout text is displayed. Writes to an unknown element
// are dropped.
type Surface interface {
	SetText(id, text string)
	Text(id string) string
}

// MemorySurface keeps readout text in memory
type MemorySurface struct {
	mu    sync.RWMutex
	texts map[string]string
}

// NewMemorySurface creates an empty surface
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{texts: make(map[string]string)}
}

// SetText replaces the text of an element
func (m *MemorySurface) SetText(id, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[id] = text
}

// Text returns the text of an element
func (m *MemorySurface) Text(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.texts[id]
}

// Snapshot returns the text of every readout
func Snapshot(s Surface) map[string]string {
	out := make(map[string]string)
	for _, id := range ReadoutIDs() {
		out[id] = s.Text(id)
	}
	return out
}
