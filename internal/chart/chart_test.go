package chart

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
)

type fakeRenderer struct {
	creates  int
	updates  int
	destroys int
	last     State
}

func (f *fakeRenderer) Create(s State) { f.creates++; f.last = s }
func (f *fakeRenderer) Update(s State) { f.updates++; f.last = s }
func (f *fakeRenderer) Destroy()       { f.destroys++ }

func ptr(v float64) *float64 { return &v }

// weekSeries builds n points where slot i holds values i*100 + point
func weekSeries(n int) entities.HistoricalSeries {
	h := entities.HistoricalSeries{}
	cols := make([][]*float64, entities.SeriesCount)
	for p := 0; p < n; p++ {
		h.Labels = append(h.Labels, fmt.Sprintf("D%d", p+1))
		for i := range cols {
			cols[i] = append(cols[i], ptr(float64(i*100+p)))
		}
	}
	h.Soil, h.Temp, h.Hum, h.RainMax, h.RainTotal, h.River = cols[0], cols[1], cols[2], cols[3], cols[4], cols[5]
	return h
}

func TestRenderCreatesOnFirstUse(t *testing.T) {
	r := &fakeRenderer{}
	a := NewAdapter(r, zap.NewNop())

	_, ok := a.Snapshot()
	require.False(t, ok)

	a.Render(entities.RangeWeek, weekSeries(7))

	st, ok := a.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 1, r.creates)
	assert.Equal(t, 0, r.updates)
	assert.Equal(t, entities.RangeWeek, st.Range)
	assert.Equal(t, []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7"}, st.Labels)
	assert.Equal(t, DefaultOptions(), st.Options)

	for i, ds := range st.Datasets {
		assert.Equal(t, Slots[i].Label, ds.Label)
		assert.Equal(t, Slots[i].Color, ds.Color)
		require.Len(t, ds.Data, 7)
		assert.InDelta(t, float64(i*100), *ds.Data[0], 1e-9)
	}
}

func TestRenderUpdatesInPlace(t *testing.T) {
	r := &fakeRenderer{}
	a := NewAdapter(r, zap.NewNop())

	a.Render(entities.RangeDay, weekSeries(24))
	a.Render(entities.RangeWeek, weekSeries(7))

	assert.Equal(t, 1, a.Instances(), "chart must not be recreated")
	assert.Equal(t, 1, a.Updates())
	assert.Equal(t, 1, r.creates)
	assert.Equal(t, 1, r.updates)
	assert.Equal(t, entities.RangeWeek, r.last.Range)
	assert.Equal(t, 7, r.last.Points())

	for i, ds := range r.last.Datasets {
		assert.Equal(t, Slots[i].Color, ds.Color, "slot colors keep their order")
		assert.InDelta(t, float64(i*100+6), *ds.Data[6], 1e-9)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	a := NewAdapter(nil, zap.NewNop())

	a.Render(entities.RangeMonth, weekSeries(30))
	first, _ := a.Snapshot()
	a.Render(entities.RangeMonth, weekSeries(30))
	second, _ := a.Snapshot()

	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Datasets, second.Datasets)
}

func TestClearKeepsInstance(t *testing.T) {
	r := &fakeRenderer{}
	a := NewAdapter(r, zap.NewNop())

	a.Render(entities.RangeWeek, weekSeries(7))
	a.Clear()

	st, ok := a.Snapshot()
	require.True(t, ok)
	assert.Empty(t, st.Labels)
	for _, ds := range st.Datasets {
		assert.Empty(t, ds.Data)
	}
	assert.Equal(t, 0, r.destroys)

	a.Render(entities.RangeWeek, weekSeries(7))
	st, _ = a.Snapshot()
	assert.Equal(t, 7, st.Points(), "render after clear still works")
	assert.Equal(t, 1, a.Instances())
}

func TestClearWithoutChartIsNoop(t *testing.T) {
	r := &fakeRenderer{}
	a := NewAdapter(r, zap.NewNop())

	a.Clear()

	_, ok := a.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, r.creates)
	assert.Zero(t, r.updates)
}

func TestSnapshotIsACopy(t *testing.T) {
	a := NewAdapter(nil, zap.NewNop())
	in := weekSeries(3)
	a.Render(entities.RangeDay, in)

	*in.Soil[0] = 999
	in.Labels[0] = "changed"

	st, _ := a.Snapshot()
	st.Labels[1] = "mutated"

	again, _ := a.Snapshot()
	assert.Equal(t, "D1", again.Labels[0])
	assert.Equal(t, "D2", again.Labels[1])
	// Point values are shared pointers; the slices themselves are copies.
	assert.Len(t, again.Datasets[0].Data, 3)
}

func TestResetDestroys(t *testing.T) {
	r := &fakeRenderer{}
	a := NewAdapter(r, zap.NewNop())

	a.Render(entities.RangeDay, weekSeries(2))
	a.Reset()
	assert.Equal(t, 1, r.destroys)

	_, ok := a.Snapshot()
	assert.False(t, ok)

	a.Render(entities.RangeDay, weekSeries(2))
	assert.Equal(t, 2, a.Instances())
}

func TestAdapterWithoutLogger(t *testing.T) {
	a := NewAdapter(nil, nil)

	assert.NotPanics(t, func() {
		a.Render(entities.RangeDay, entities.HistoricalSeries{})
		a.Render(entities.RangeDay, weekSeries(3))
		a.Clear()
		a.Reset()
	})
	assert.Equal(t, 1, a.Instances())
}
