package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// Poller is the part of the feed poller the bot drives
type Poller interface {
	CurrentRange() entities.Range
	SelectRange(rng entities.Range) error
	RunCycle(ctx context.Context)
}

// ChartSource exposes the current chart state
type ChartSource interface {
	Snapshot() (chart.State, bool)
}

// CommandHandler answers bot commands from the live dashboard state
type CommandHandler struct {
	surface view.Surface
	charts  ChartSource
	poller  Poller
	logger  *zap.Logger
}

// NewCommandHandler creates a handler over the dashboard surface
func NewCommandHandler(surface view.Surface, charts ChartSource, poller Poller, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{surface: surface, charts: charts, poller: poller, logger: logger}
}

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/latest - Show the latest station readings\n" +
	"/forecast - Show today's forecast\n" +
	"/alert - Show the current alert level\n" +
	"/chart - Summarise the historical chart\n" +
	"/range [day|week|month|year] - Show or change the chart range\n" +
	"/refresh - Refresh every feed now\n" +
	"/help - Show this help message"

// Reply returns the response to a command
func (h *CommandHandler) Reply(ctx context.Context, command, args string) string {
	switch command {
	case "start":
		return "Welcome to the Station Dashboard bot! Use /latest for the current readings or /help for more information."

	case "help":
		return helpText

	case "latest":
		return FormatLatest(view.Snapshot(h.surface))

	case "forecast":
		return FormatForecast(view.Snapshot(h.surface))

	case "alert":
		return FormatAlert(view.Snapshot(h.surface))

	case "chart":
		state, ok := h.charts.Snapshot()
		return FormatChart(state, ok)

	case "range":
		return h.handleRange(args)

	case "refresh":
		h.poller.RunCycle(ctx)
		return "Refreshed.\n\n" + FormatLatest(view.Snapshot(h.surface))

	default:
		h.logger.Info("Received unknown command", zap.String("command", command))
		return "Unknown command. Use /help to see available commands."
	}
}

func (h *CommandHandler) handleRange(args string) string {
	args = strings.TrimSpace(args)
	if args == "" {
		return fmt.Sprintf("Current range: %s\nUse /range [day|week|month|year] to change it.", h.poller.CurrentRange())
	}

	rng, err := entities.ParseRange(args)
	if err != nil {
		return fmt.Sprintf("Unknown range '%s'. Use one of: day, week, month, year.", args)
	}
	if err := h.poller.SelectRange(rng); err != nil {
		// The range is kept and used once polling resumes
		h.logger.Warn("Range selected while polling is stopped", zap.String("range", rng.String()), zap.Error(err))
	}
	return fmt.Sprintf("Chart range set to %s.", rng)
}

// FormatLatest formats the latest-reading readouts
func FormatLatest(readouts map[string]string) string {
	var result strings.Builder
	result.WriteString("Latest station readings:\n\n")
	result.WriteString(fmt.Sprintf("🌱 Soil moisture: %s\n", readouts[view.Soil]))
	result.WriteString(fmt.Sprintf("🌡️ Temperature: %s\n", readouts[view.Temp]))
	result.WriteString(fmt.Sprintf("💨 Humidity: %s\n", readouts[view.Hum]))
	result.WriteString(fmt.Sprintf("🌧️ Rainfall: %s\n", readouts[view.Rain]))
	result.WriteString(fmt.Sprintf("☔ Rain since 9am: %s\n", readouts[view.RainSince9]))
	result.WriteString(fmt.Sprintf("💧 River height: %s", readouts[view.River]))
	return result.String()
}

// FormatForecast formats the forecast readouts
func FormatForecast(readouts map[string]string) string {
	lines := []string{"Today's forecast:", ""}
	for _, id := range view.ForecastIDs {
		lines = append(lines, readouts[id])
	}
	return strings.Join(lines, "\n")
}

// FormatAlert formats the alert readout
func FormatAlert(readouts map[string]string) string {
	return fmt.Sprintf("⚠️ Alert level: %s", readouts[view.AlertLevel])
}

// FormatChart summarises the chart with the last value of each series
func FormatChart(state chart.State, ok bool) string {
	if !ok {
		return "No chart data yet."
	}
	if len(state.Labels) == 0 {
		return fmt.Sprintf("No chart data for range %s.", state.Range)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Chart for range %s (%d points, %s to %s):\n\n",
		state.Range, len(state.Labels), state.Labels[0], state.Labels[len(state.Labels)-1]))
	for _, ds := range state.Datasets {
		result.WriteString(fmt.Sprintf("• %s: %s\n", ds.Label, lastValue(ds.Data)))
	}
	return strings.TrimRight(result.String(), "\n")
}

func lastValue(data []*float64) string {
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] != nil {
			return strconv.FormatFloat(*data[i], 'f', -1, 64)
		}
	}
	return "-"
}
