package gauge

import (
	"errors"
	"fmt"
)

// Zone table errors
var (
	ErrNoZones     = errors.New("gauge has no color zones")
	ErrZoneBounds  = errors.New("color zones do not match the gauge domain")
	ErrZoneOverlap = errors.New("color zones overlap")
	ErrZoneGap     = errors.New("color zones leave a gap")
)

// epsilon absorbs float noise when comparing adjacent zone edges
const epsilon = 1e-9

// Zone is one color band of a gauge. Zones are inclusive on both edges;
// the next zone starts one Step above the previous Max.
type Zone struct {
	Min   float64
	Max   float64
	Color string
}

// Config describes a gauge domain and its color zones
type Config struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64 // smallest distance between adjacent zones
	Zones []Zone
}

// SoilConfig is the soil moisture gauge, 0 to 100 %
func SoilConfig() Config {
	return Config{
		Name: "soil",
		Min:  0,
		Max:  100,
		Step: 1,
		Zones: []Zone{
			{Min: 0, Max: 15, Color: "red"},
			{Min: 16, Max: 80, Color: "green"},
			{Min: 81, Max: 100, Color: "red"},
		},
	}
}

// RiverAlarmStart is where the red river zone begins, in metres
const RiverAlarmStart = 1.81

// RiverConfig is the river height gauge from 0 to ceiling metres
func RiverConfig(ceiling float64) Config {
	return Config{
		Name: "river",
		Min:  0,
		Max:  ceiling,
		Step: 0.01,
		Zones: []Zone{
			{Min: 0, Max: 1.2, Color: "green"},
			{Min: 1.21, Max: 1.5, Color: "yellow"},
			{Min: 1.51, Max: 1.8, Color: "orange"},
			{Min: RiverAlarmStart, Max: ceiling, Color: "red"},
		},
	}
}

// Validate checks that the zones are ordered, do not overlap and cover the
// whole domain
func (c Config) Validate() error {
	if c.Max <= c.Min {
		return fmt.Errorf("%w: %s max %v must exceed min %v", ErrZoneBounds, c.Name, c.Max, c.Min)
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("%w: %s", ErrNoZones, c.Name)
	}
	if first := c.Zones[0]; abs(first.Min-c.Min) > epsilon {
		return fmt.Errorf("%w: %s first zone starts at %v, domain at %v", ErrZoneBounds, c.Name, first.Min, c.Min)
	}
	if last := c.Zones[len(c.Zones)-1]; abs(last.Max-c.Max) > epsilon {
		return fmt.Errorf("%w: %s last zone ends at %v, domain at %v", ErrZoneBounds, c.Name, last.Max, c.Max)
	}

	for i, z := range c.Zones {
		if z.Max < z.Min {
			return fmt.Errorf("%w: %s zone %d is inverted (%v > %v)", ErrZoneBounds, c.Name, i, z.Min, z.Max)
		}
		if i == 0 {
			continue
		}
		prev := c.Zones[i-1]
		gap := z.Min - prev.Max
		if gap <= epsilon {
			return fmt.Errorf("%w: %s zone %d starts at %v, previous ends at %v", ErrZoneOverlap, c.Name, i, z.Min, prev.Max)
		}
		if gap > c.Step+epsilon {
			return fmt.Errorf("%w: %s between %v and %v", ErrZoneGap, c.Name, prev.Max, z.Min)
		}
	}
	return nil
}

// ZoneFor returns the zone a value falls in. Values between two adjacent
// zones belong to the upper one; values outside the domain take the
// nearest end zone.
func (c Config) ZoneFor(v float64) Zone {
	for _, z := range c.Zones {
		if v <= z.Max+epsilon {
			return z
		}
	}
	return c.Zones[len(c.Zones)-1]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
