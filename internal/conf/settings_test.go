package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abelzeko/station-dashboard/internal/entities"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", s.Backend.URL)
	assert.Equal(t, time.Duration(0), s.Backend.Timeout)
	assert.Equal(t, 60*time.Second, s.Poll.Interval)
	assert.Equal(t, entities.RangeDay, s.InitialRange())
	assert.InDelta(t, 5.0, s.Gauge.RiverMax, 0)
	assert.Equal(t, FragmentsEmbedded, s.Fragments.Source)
	assert.Equal(t, "home.html", s.Fragments.Home)
	assert.Equal(t, ":8080", s.HTTP.Listen)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STATION_BACKEND_URL", "http://pi.local:5000")
	t.Setenv("STATION_POLL_INTERVAL", "30s")
	t.Setenv("STATION_POLL_RANGE", "week")
	t.Setenv("STATION_GAUGE_RIVER_MAX", "3.5")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")

	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://pi.local:5000", s.Backend.URL)
	assert.Equal(t, 30*time.Second, s.Poll.Interval)
	assert.Equal(t, entities.RangeWeek, s.InitialRange())
	assert.InDelta(t, 3.5, s.Gauge.RiverMax, 1e-9)
	assert.Equal(t, "token-from-env", s.Telegram.Token)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: http://backend.test
  timeout: 10s
poll:
  range: month
fragments:
  source: backend
log:
  level: debug
  development: true
`), 0o600))

	s, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test", s.Backend.URL)
	assert.Equal(t, 10*time.Second, s.Backend.Timeout)
	assert.Equal(t, entities.RangeMonth, s.InitialRange())
	assert.Equal(t, FragmentsBackend, s.Fragments.Source)
	assert.Equal(t, 60*time.Second, s.Poll.Interval, "unset keys keep their defaults")
	assert.True(t, s.Log.Development)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		s, err := Load(viper.New(), "")
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"empty backend", func(s *Settings) { s.Backend.URL = "" }},
		{"negative timeout", func(s *Settings) { s.Backend.Timeout = -time.Second }},
		{"interval too short", func(s *Settings) { s.Poll.Interval = 500 * time.Millisecond }},
		{"unknown range", func(s *Settings) { s.Poll.Range = "decade" }},
		{"river ceiling inside alarm zone", func(s *Settings) { s.Gauge.RiverMax = 1.5 }},
		{"unknown fragment source", func(s *Settings) { s.Fragments.Source = "s3" }},
		{"empty home fragment", func(s *Settings) { s.Fragments.Home = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			assert.Error(t, Validate(s))
		})
	}
}

func TestNewLogger(t *testing.T) {
	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	logger, err := NewLogger(s)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "debug is disabled at info level")

	s.Log.Level = "debug"
	s.Log.Development = true
	logger, err = NewLogger(s)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	s.Log.Level = "chatty"
	_, err = NewLogger(s)
	require.Error(t, err)
}
