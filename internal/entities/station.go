// Package entities contains the core domain objects for the station dashboard
package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRange is returned when a range selector is not one of the known windows
var ErrUnknownRange = errors.New("unknown range")

// Range selects the time window of the historical series. Window boundaries
// are owned by the backend.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// Ranges returns every selectable range in display order
func Ranges() []Range {
	return []Range{RangeDay, RangeWeek, RangeMonth, RangeYear}
}

// ParseRange validates a range selector such as "week"
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Ranges() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

func (r Range) String() string {
	return string(r)
}

// Reading is one point-in-time snapshot of the station sensors
type Reading struct {
	Soil      Field `json:"soil"`       // Soil moisture in %
	Temp      Field `json:"temp"`       // Air temperature in °C
	Hum       Field `json:"hum"`        // Relative humidity in %
	Rain      Field `json:"rain"`       // Instantaneous rainfall in mm
	TotalRain Field `json:"total_rain"` // Rainfall since the daily reference time
	River     Field `json:"river"`      // River height in m
}

// ForecastDay is the local forecast for today
type ForecastDay struct {
	MinTemp         Field `json:"min_temp"`
	MaxTemp         Field `json:"max_temp"`
	PrecipProb      Field `json:"precip_prob"`
	PrecipIntensity Field `json:"precip_intensity"`
}

// Forecast wraps the forecast payload. A nil Day means the backend had no
// forecast for today, which is not the same as a day with missing fields.
type Forecast struct {
	Day *ForecastDay
}

// Available reports whether a forecast exists for today
func (f Forecast) Available() bool {
	return f.Day != nil
}

// UnmarshalJSON decodes a {"forecast": {...}} payload. An empty object, a
// missing or null forecast member and an empty forecast member all decode
// to a forecast that is not available.
func (f *Forecast) UnmarshalJSON(b []byte) error {
	*f = Forecast{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return fmt.Errorf("failed to decode forecast: %w", err)
	}
	raw, ok := top["forecast"]
	if !ok {
		return nil
	}

	// null decodes to an empty map
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return fmt.Errorf("failed to decode forecast day: %w", err)
	}
	if len(members) == 0 {
		return nil
	}

	var day ForecastDay
	if err := json.Unmarshal(raw, &day); err != nil {
		return fmt.Errorf("failed to decode forecast day: %w", err)
	}
	f.Day = &day
	return nil
}

// MarshalJSON writes the payload shape read by UnmarshalJSON; an
// unavailable forecast is written as {}
func (f Forecast) MarshalJSON() ([]byte, error) {
	if f.Day == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		Forecast *ForecastDay `json:"forecast"`
	}{f.Day})
}

// Alert carries the pre-computed alert level
type Alert struct {
	Level Field `json:"level"`
}

// SeriesCount is the number of metric series in a historical payload
const SeriesCount = 6

// HistoricalSeries is the chart payload for one range. All series share the
// length of Labels; mismatches are not reconciled.
type HistoricalSeries struct {
	Labels    []string   `json:"labels"`
	Soil      []*float64 `json:"soil"`
	Temp      []*float64 `json:"temp"`
	Hum       []*float64 `json:"hum"`
	RainMax   []*float64 `json:"rain_max"`
	RainTotal []*float64 `json:"rain_total"`
	River     []*float64 `json:"river"`
}

// Series returns the metric series in their fixed slot order:
// soil, temp, humidity, rain max, rain total, river height.
func (h HistoricalSeries) Series() [SeriesCount][]*float64 {
	return [SeriesCount][]*float64{h.Soil, h.Temp, h.Hum, h.RainMax, h.RainTotal, h.River}
}

// Len returns the number of category labels
func (h HistoricalSeries) Len() int {
	return len(h.Labels)
}
