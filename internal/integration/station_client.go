// Package integration handles external service interactions
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
)

// ErrUnexpectedStatus is returned for any non-2xx backend response
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Backend endpoints
const (
	LatestPath   = "/api/latest"
	HistoricPath = "/api/historic/"
	ForecastPath = "/api/forecast/today"
	AlertPath    = "/api/alert/latest"
)

// StationClient reads the station backend
type StationClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewStationClient creates a new backend client. A zero timeout means
// requests never time out and a hung request leaves its readouts stale.
func NewStationClient(baseURL string, timeout time.Duration, logger *zap.Logger) *StationClient {
	if baseURL == "" {
		// Default backend URL
		baseURL = "http://localhost:5000"
	}
	return &StationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the backend base URL
func (c *StationClient) BaseURL() string {
	return c.baseURL
}

// FetchLatest retrieves the latest sensor reading
func (c *StationClient) FetchLatest(ctx context.Context) (*entities.Reading, error) {
	body, err := c.get(ctx, LatestPath)
	if err != nil {
		return nil, err
	}

	var reading entities.Reading
	if err := json.Unmarshal(body, &reading); err != nil {
		c.logger.Warn("Error parsing latest reading", zap.Error(err))
		return nil, fmt.Errorf("failed to parse latest reading: %w", err)
	}
	return &reading, nil
}

// FetchHistoric retrieves the chart series for a range
func (c *StationClient) FetchHistoric(ctx context.Context, rng entities.Range) (*entities.HistoricalSeries, error) {
	body, err := c.get(ctx, HistoricPath+rng.String())
	if err != nil {
		return nil, err
	}

	var series entities.HistoricalSeries
	if err := json.Unmarshal(body, &series); err != nil {
		c.logger.Warn("Error parsing historical series", zap.String("range", rng.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to parse %s series: %w", rng, err)
	}

	c.logger.Debug("Parsed historical series",
		zap.String("range", rng.String()),
		zap.Int("labels", len(series.Labels)))
	return &series, nil
}

// FetchForecast retrieves today's forecast. An empty body, an empty object,
// or a missing/empty "forecast" member all mean no forecast for today.
func (c *StationClient) FetchForecast(ctx context.Context) (*entities.Forecast, error) {
	body, err := c.get(ctx, ForecastPath)
	if err != nil {
		return nil, err
	}

	forecast, err := parseForecast(body)
	if err != nil {
		c.logger.Warn("Error parsing forecast", zap.Error(err))
		return nil, fmt.Errorf("failed to parse forecast: %w", err)
	}
	if !forecast.Available() {
		c.logger.Info("No forecast available for today")
	}
	return forecast, nil
}

func parseForecast(body []byte) (*entities.Forecast, error) {
	var forecast entities.Forecast
	if len(bytes.TrimSpace(body)) == 0 {
		return &forecast, nil
	}
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// FetchAlert retrieves the latest alert level
func (c *StationClient) FetchAlert(ctx context.Context) (*entities.Alert, error) {
	body, err := c.get(ctx, AlertPath)
	if err != nil {
		return nil, err
	}

	var alert entities.Alert
	if err := json.Unmarshal(body, &alert); err != nil {
		c.logger.Warn("Error parsing alert", zap.Error(err))
		return nil, fmt.Errorf("failed to parse alert: %w", err)
	}
	return &alert, nil
}

// get performs a GET and returns the body of a 2xx response
func (c *StationClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.fetch(ctx, path, "application/json")
}

// FetchFragment retrieves an HTML page fragment served by the backend
func (c *StationClient) FetchFragment(ctx context.Context, name string) (string, error) {
	body, err := c.fetch(ctx, "/"+strings.TrimLeft(name, "/"), "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *StationClient) fetch(ctx context.Context, path, accept string) ([]byte, error) {
	url := c.baseURL + path
	c.logger.Debug("Sending HTTP request to station backend", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", accept)

	res, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Error fetching data", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer res.Body.Close()

	// Check for successful response
	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Warn("Received unexpected status code",
			zap.String("path", path),
			zap.Int("status", res.StatusCode))
		io.Copy(io.Discard, res.Body) //nolint:errcheck // draining only
		return nil, fmt.Errorf("%w: %d %s for %s", ErrUnexpectedStatus, res.StatusCode, http.StatusText(res.StatusCode), path)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Warn("Error reading response body", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	c.logger.Debug("Received HTTP response",
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(body)))
	return body, nil
}
