package shell

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/gauge"
	"github.com/abelzeko/station-dashboard/internal/integration"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// fakeLifecycle counts lifecycle calls
type fakeLifecycle struct {
	mu     sync.Mutex
	starts int
	stops  int
	ctx    context.Context
}

func (f *fakeLifecycle) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.ctx = ctx
	return nil
}

func (f *fakeLifecycle) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func newTestShell(t *testing.T, loader Loader) (*Shell, *fakeLifecycle) {
	t.Helper()
	s, err := New(loader, Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	lc := &fakeLifecycle{}
	s.Bind(context.Background(), lc)
	return s, lc
}

// mockHTMLServer creates a test server that serves fragments by path
func mockHTMLServer(fragments map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, ok := fragments[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, html)
	}))
}

func TestMountHomeStartsPolling(t *testing.T) {
	s, lc := newTestShell(t, EmbeddedLoader())

	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	assert.Equal(t, HomeFragment, s.Current())
	assert.Equal(t, 1, s.Initializers())
	assert.Equal(t, 1, lc.starts)
	assert.Equal(t, 0, lc.stops)
	for _, id := range view.ReadoutIDs() {
		assert.Equal(t, "-", s.Text(id), id)
	}
	for _, id := range []string{view.SoilGauge, view.RiverGauge, view.SensorChart} {
		_, ok := s.Attr(id, "id")
		assert.True(t, ok, id)
	}
}

func TestMountHomeTwiceDeduplicatesInitializer(t *testing.T) {
	s, lc := newTestShell(t, EmbeddedLoader())

	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	assert.Equal(t, 1, s.Initializers())
	assert.Equal(t, 2, lc.starts, "re-selecting home initializes again")

	html, err := s.HTML()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, `id="`+InitializerID+`"`))
}

func TestMountOtherFragmentStopsPolling(t *testing.T) {
	s, lc := newTestShell(t, EmbeddedLoader())
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	require.NoError(t, s.Mount(context.Background(), ParamsFragment))

	assert.Equal(t, ParamsFragment, s.Current())
	assert.Equal(t, 1, lc.stops)
	assert.Contains(t, s.ContentText(), "Alert parameters")

	// Readouts are gone with the dashboard
	s.SetText(view.Soil, "45%")
	assert.Empty(t, s.Text(view.Soil))
	assert.Empty(t, s.RangeControls())
}

func TestMountFailureShowsMessage(t *testing.T) {
	s, lc := newTestShell(t, EmbeddedLoader())
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	err := s.Mount(context.Background(), "missing.html")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFragment)

	assert.Equal(t, FailedText, s.ContentText())
	assert.Empty(t, s.Current())
	assert.Equal(t, 1, lc.stops)
}

func TestMountUsesBoundContext(t *testing.T) {
	s, err := New(EmbeddedLoader(), Options{})
	require.NoError(t, err)

	type ctxKey struct{}
	runCtx := context.WithValue(context.Background(), ctxKey{}, "run")
	lc := &fakeLifecycle{}
	s.Bind(runCtx, lc)

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Mount(reqCtx, HomeFragment))
	cancel()

	assert.Equal(t, "run", lc.ctx.Value(ctxKey{}))
	assert.NoError(t, lc.ctx.Err())
}

func TestMountWithoutLifecycle(t *testing.T) {
	s, err := New(EmbeddedLoader(), Options{})
	require.NoError(t, err)

	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	require.NoError(t, s.Mount(context.Background(), ParamsFragment))
}

func TestBackendFragments(t *testing.T) {
	server := mockHTMLServer(map[string]string{
		"home.html": `<span id="soil">-</span><button class="range-btn" data-range="week">Week</button>`,
	})
	defer server.Close()

	client := integration.NewStationClient(server.URL, 0, zap.NewNop())
	s, lc := newTestShell(t, LoaderFunc(client.FetchFragment))

	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	assert.Equal(t, "-", s.Text(view.Soil))
	assert.Equal(t, []entities.Range{entities.RangeWeek}, s.RangeControls())
	assert.Equal(t, 1, lc.starts)

	err := s.Mount(context.Background(), ParamsFragment)
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrUnexpectedStatus)
	assert.Equal(t, FailedText, s.ContentText())
}

func TestFSLoader(t *testing.T) {
	loader := NewFSLoader(fstest.MapFS{
		"home.html": {Data: []byte(`<p id="soil"></p>`)},
	})

	html, err := loader.Load(context.Background(), "home.html")
	require.NoError(t, err)
	assert.Equal(t, `<p id="soil"></p>`, html)

	_, err = loader.Load(context.Background(), "params.html")
	assert.ErrorIs(t, err, ErrUnknownFragment)

	_, err = loader.Load(context.Background(), "../secrets.html")
	assert.ErrorIs(t, err, ErrUnknownFragment)
}

func TestRangeControls(t *testing.T) {
	loader := NewFSLoader(fstest.MapFS{
		"home.html": {Data: []byte(`
<button class="range-btn" data-range="day">Day</button>
<button class="range-btn" data-range="Month">Month</button>
<button class="range-btn" data-range="decade">Decade</button>
<button class="range-btn">No range</button>`)},
	})
	s, _ := newTestShell(t, loader)
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	assert.Equal(t, []entities.Range{entities.RangeDay, entities.RangeMonth}, s.RangeControls())

	s, _ = newTestShell(t, EmbeddedLoader())
	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	assert.Equal(t, entities.Ranges(), s.RangeControls())
}

func TestSetTextOnMountedReadouts(t *testing.T) {
	s, _ := newTestShell(t, EmbeddedLoader())
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	s.SetText(view.Soil, "45%")
	s.SetText(view.AlertLevel, "<b>High</b>")

	assert.Equal(t, "45%", s.Text(view.Soil))
	assert.Equal(t, "<b>High</b>", s.Text(view.AlertLevel), "text is not parsed as markup")
	assert.Equal(t, "45%", view.Snapshot(s)[view.Soil])
}

func TestGaugeCanvasRedrawnAfterRemount(t *testing.T) {
	s, err := New(EmbeddedLoader(), Options{})
	require.NoError(t, err)

	gauges, err := gauge.NewAdapter(s.GaugeCanvas(view.SoilGauge), s.GaugeCanvas(view.RiverGauge), 5, zap.NewNop())
	require.NoError(t, err)
	s.Bind(context.Background(), &fakeLifecycle{}, gauges)

	// Not mounted yet
	gauges.SetSoil(entities.NewField("45"))
	_, ok := s.Attr(view.SoilGauge, "data-value")
	assert.False(t, ok)

	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	value, _ := s.Attr(view.SoilGauge, "data-value")
	zone, _ := s.Attr(view.SoilGauge, "data-zone")
	assert.Equal(t, "45", value)
	assert.Equal(t, "green", zone)

	river, _ := s.Attr(view.RiverGauge, "data-value")
	riverMax, _ := s.Attr(view.RiverGauge, "data-max")
	assert.Equal(t, "0", river)
	assert.Equal(t, "5", riverMax)

	gauges.SetRiver(entities.NewField("1.9"))
	zone, _ = s.Attr(view.RiverGauge, "data-zone")
	assert.Equal(t, "red", zone)

	require.NoError(t, s.Mount(context.Background(), ParamsFragment))
	require.NoError(t, s.Mount(context.Background(), HomeFragment))
	value, _ = s.Attr(view.RiverGauge, "data-value")
	assert.Equal(t, "1.9", value)
}

func TestChartCanvas(t *testing.T) {
	s, err := New(EmbeddedLoader(), Options{})
	require.NoError(t, err)
	charts := chart.NewAdapter(s.ChartCanvas(view.SensorChart), zap.NewNop())
	s.Bind(context.Background(), &fakeLifecycle{}, charts)
	require.NoError(t, s.Mount(context.Background(), HomeFragment))

	v := 1.5
	charts.Render(entities.RangeWeek, entities.HistoricalSeries{
		Labels:    []string{"Mon"},
		Soil:      []*float64{&v},
		Temp:      []*float64{&v},
		Hum:       []*float64{&v},
		RainMax:   []*float64{nil},
		RainTotal: []*float64{&v},
		River:     []*float64{&v},
	})

	rng, _ := s.Attr(view.SensorChart, "data-range")
	assert.Equal(t, "week", rng)
	labels, _ := s.Attr(view.SensorChart, "data-labels")
	assert.JSONEq(t, `["Mon"]`, labels)

	raw, _ := s.Attr(view.SensorChart, "data-datasets")
	var datasets []chart.Dataset
	require.NoError(t, json.Unmarshal([]byte(raw), &datasets))
	require.Len(t, datasets, entities.SeriesCount)
	assert.Equal(t, "Soil (%)", datasets[0].Label)
	assert.Equal(t, "purple", datasets[5].Color)
	assert.Nil(t, datasets[3].Data[0])

	charts.Clear()
	labels, _ = s.Attr(view.SensorChart, "data-labels")
	assert.JSONEq(t, `[]`, labels)

	charts.Reset()
	_, ok := s.Attr(view.SensorChart, "data-labels")
	assert.False(t, ok)
}

func TestNewRequiresLoader(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}
