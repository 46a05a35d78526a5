package shell

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/gauge"
)

// GaugeCanvas paints a gauge onto a canvas element's data attributes
type GaugeCanvas struct {
	shell *Shell
	id    string
}

// GaugeCanvas returns the renderer for the gauge canvas with the given id
func (s *Shell) GaugeCanvas(id string) *GaugeCanvas {
	return &GaugeCanvas{shell: s, id: id}
}

// Draw implements gauge.Renderer
func (c *GaugeCanvas) Draw(name string, value, lo, hi float64, zone gauge.Zone) {
	c.shell.mu.Lock()
	defer c.shell.mu.Unlock()

	sel := c.shell.doc.Find("#" + c.id)
	if sel.Length() == 0 {
		return
	}
	sel.SetAttr("data-gauge", name)
	sel.SetAttr("data-value", formatFloat(value))
	sel.SetAttr("data-min", formatFloat(lo))
	sel.SetAttr("data-max", formatFloat(hi))
	sel.SetAttr("data-zone", zone.Color)
}

// ChartCanvas paints the chart state onto a canvas element's data attributes
type ChartCanvas struct {
	shell *Shell
	id    string
}

// ChartCanvas returns the renderer for the chart canvas with the given id
func (s *Shell) ChartCanvas(id string) *ChartCanvas {
	return &ChartCanvas{shell: s, id: id}
}

// Create implements chart.Renderer
func (c *ChartCanvas) Create(state chart.State) {
	c.paint(state)
}

// Update implements chart.Renderer
func (c *ChartCanvas) Update(state chart.State) {
	c.paint(state)
}

// Destroy implements chart.Renderer
func (c *ChartCanvas) Destroy() {
	c.shell.mu.Lock()
	defer c.shell.mu.Unlock()

	sel := c.shell.doc.Find("#" + c.id)
	for _, attr := range []string{"data-range", "data-labels", "data-datasets", "data-options"} {
		sel.RemoveAttr(attr)
	}
}

func (c *ChartCanvas) paint(state chart.State) {
	if state.Labels == nil {
		state.Labels = []string{}
	}
	for i := range state.Datasets {
		if state.Datasets[i].Data == nil {
			state.Datasets[i].Data = []*float64{}
		}
	}

	labels, err := json.Marshal(state.Labels)
	if err != nil {
		c.shell.logger.Error("Error encoding chart labels", zap.Error(err))
		return
	}
	datasets, err := json.Marshal(state.Datasets)
	if err != nil {
		c.shell.logger.Error("Error encoding chart datasets", zap.Error(err))
		return
	}
	options, err := json.Marshal(state.Options)
	if err != nil {
		c.shell.logger.Error("Error encoding chart options", zap.Error(err))
		return
	}

	c.shell.mu.Lock()
	defer c.shell.mu.Unlock()

	sel := c.shell.doc.Find("#" + c.id)
	if sel.Length() == 0 {
		return
	}
	sel.SetAttr("data-range", state.Range.String())
	sel.SetAttr("data-labels", string(labels))
	sel.SetAttr("data-datasets", string(datasets))
	sel.SetAttr("data-options", string(options))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	_ gauge.Renderer = (*GaugeCanvas)(nil)
	_ chart.Renderer = (*ChartCanvas)(nil)
)
