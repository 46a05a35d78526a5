// Package readout turns station payloads into display strings
package readout

import (
	"github.com/abelzeko/station-dashboard/internal/entities"
)

// Fixed display strings
const (
	Placeholder = "-"
	ErrorText   = "Error"
	NoForecast  = "No current forecast"
	NoData      = "No data"
)

// Unit suffixes. Rainfall readouts carry no suffix.
const (
	UnitPercent = "%"
	UnitCelsius = "°C"
	UnitMeters  = " m"
)

// Latest holds the display strings for the latest-reading readouts
type Latest struct {
	Soil      string
	Temp      string
	Hum       string
	Rain      string
	TotalRain string
	River     string
}

// ForecastText holds the display strings for the four forecast readouts
type ForecastText struct {
	MinTemp         string
	MaxTemp         string
	PrecipProb      string
	PrecipIntensity string
}

// WithUnit renders a present field with its unit appended, or the placeholder
func WithUnit(f entities.Field, unit string) string {
	if !f.Present() {
		return Placeholder
	}
	return f.String() + unit
}

// Plain renders a present field verbatim, or the placeholder
func Plain(f entities.Field) string {
	return WithUnit(f, "")
}

// FormatLatest maps a reading onto its readouts. Values are not rounded.
func FormatLatest(r entities.Reading) Latest {
	return Latest{
		Soil:      WithUnit(r.Soil, UnitPercent),
		Temp:      WithUnit(r.Temp, UnitCelsius),
		Hum:       WithUnit(r.Hum, UnitPercent),
		Rain:      Plain(r.Rain),
		TotalRain: Plain(r.TotalRain),
		River:     WithUnit(r.River, UnitMeters),
	}
}

// FormatForecast renders today's forecast. A missing forecast shows the
// no-forecast message on every field; a missing field inside a present
// forecast shows the placeholder for that field only.
func FormatForecast(f entities.Forecast) ForecastText {
	if !f.Available() {
		return uniformForecast(NoForecast)
	}
	day := f.Day
	return ForecastText{
		MinTemp:         "Min temp: " + Plain(day.MinTemp),
		MaxTemp:         "Max temp: " + Plain(day.MaxTemp),
		PrecipProb:      "Probability of rain: " + WithUnit(day.PrecipProb, UnitPercent),
		PrecipIntensity: "Intensity of rain: " + Plain(day.PrecipIntensity),
	}
}

// ForecastError is the readout state after a failed forecast fetch
func ForecastError() ForecastText {
	return uniformForecast(ErrorText)
}

func uniformForecast(text string) ForecastText {
	return ForecastText{MinTemp: text, MaxTemp: text, PrecipProb: text, PrecipIntensity: text}
}

// FormatAlert renders the alert level, or the no-data message when absent
func FormatAlert(a entities.Alert) string {
	if !a.Level.Present() {
		return NoData
	}
	return a.Level.String()
}
