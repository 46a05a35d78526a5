// Package conf loads the dashboard settings and builds the logger
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/gauge"
)

// Fragment sources
const (
	FragmentsEmbedded = "embedded"
	FragmentsBackend  = "backend"
)

// EnvPrefix prefixes every environment override, e.g. STATION_BACKEND_URL
const EnvPrefix = "STATION"

// Settings is the complete dashboard configuration
type Settings struct {
	Backend struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"` // 0 means requests never time out
	} `mapstructure:"backend"`

	Poll struct {
		Interval time.Duration `mapstructure:"interval"`
		Range    string        `mapstructure:"range"`
	} `mapstructure:"poll"`

	Gauge struct {
		RiverMax float64 `mapstructure:"river_max"`
	} `mapstructure:"gauge"`

	Fragments struct {
		Source string `mapstructure:"source"` // embedded or backend
		Home   string `mapstructure:"home"`
	} `mapstructure:"fragments"`

	HTTP struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"http"`

	Telegram struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"telegram"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.timeout", time.Duration(0))

	v.SetDefault("poll.interval", 60*time.Second)
	v.SetDefault("poll.range", string(entities.RangeDay))

	v.SetDefault("gauge.river_max", 5.0)

	v.SetDefault("fragments.source", FragmentsEmbedded)
	v.SetDefault("fragments.home", "home.html")

	v.SetDefault("http.listen", ":8080")

	v.SetDefault("telegram.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads defaults, the optional config file and the environment into
// Settings and validates them
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("error binding telegram token: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// Validate checks settings that would otherwise fail at runtime
func Validate(s *Settings) error {
	if s.Backend.URL == "" {
		return errors.New("backend.url must be set")
	}
	if s.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", s.Backend.Timeout)
	}
	if s.Poll.Interval < time.Second {
		return fmt.Errorf("poll.interval must be at least 1s, got %s", s.Poll.Interval)
	}
	if _, err := entities.ParseRange(s.Poll.Range); err != nil {
		return fmt.Errorf("poll.range: %w", err)
	}
	if s.Gauge.RiverMax <= gauge.RiverAlarmStart {
		return fmt.Errorf("gauge.river_max must exceed %.2f, got %g", gauge.RiverAlarmStart, s.Gauge.RiverMax)
	}
	switch s.Fragments.Source {
	case FragmentsEmbedded, FragmentsBackend:
	default:
		return fmt.Errorf("fragments.source must be %q or %q, got %q", FragmentsEmbedded, FragmentsBackend, s.Fragments.Source)
	}
	if s.Fragments.Home == "" {
		return errors.New("fragments.home must be set")
	}
	return nil
}

// InitialRange returns the parsed poll.range
func (s *Settings) InitialRange() entities.Range {
	rng, err := entities.ParseRange(s.Poll.Range)
	if err != nil {
		return entities.RangeDay
	}
	return rng
}
