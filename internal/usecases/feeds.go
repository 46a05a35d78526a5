package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/metrics"
	"github.com/abelzeko/station-dashboard/internal/readout"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// ticket tags a fetch with its feed's sequence number at issue time
type ticket struct {
	feed   Feed
	seq    uint64
	issued time.Time
}

func (p *FeedPoller) issue(feed Feed) ticket {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()
	p.issued[feed]++
	if p.metrics != nil {
		p.metrics.FetchStarted()
	}
	return ticket{feed: feed, seq: p.issued[feed], issued: time.Now()}
}

// settle applies a fetch result unless a newer response of the same feed
// has already been applied. Results that arrive after their context was
// cancelled are dropped.
func (p *FeedPoller) settle(ctx context.Context, t ticket, err error, apply func()) {
	p.applyMu.Lock()
	if p.metrics != nil {
		p.metrics.FetchSettled()
	}
	if ctx.Err() != nil {
		p.applyMu.Unlock()
		p.logger.Debug("Dropping result of cancelled fetch", zap.String("feed", string(t.feed)))
		return
	}
	if t.seq < p.applied[t.feed] {
		p.applyMu.Unlock()
		p.logger.Info("Discarding stale response",
			zap.String("feed", string(t.feed)),
			zap.Uint64("seq", t.seq),
			zap.Error(err))
		if p.metrics != nil {
			p.metrics.RecordFetch(string(t.feed), metrics.StatusStale, 0)
		}
		return
	}
	p.applied[t.feed] = t.seq
	apply()
	p.applyMu.Unlock()

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		p.logger.Warn("Feed fetch failed", zap.String("feed", string(t.feed)), zap.Error(err))
	} else {
		p.logger.Debug("Feed applied", zap.String("feed", string(t.feed)), zap.Uint64("seq", t.seq))
	}
	if p.metrics != nil {
		p.metrics.RecordFetch(string(t.feed), status, time.Since(t.issued).Seconds())
	}
	if p.onApply != nil {
		p.onApply(t.feed, err)
	}
}

func (p *FeedPoller) refreshLatest(ctx context.Context, t ticket) {
	reading, err := p.source.FetchLatest(ctx)
	p.settle(ctx, t, err, func() {
		if err != nil {
			// Gauges and rain since 9am keep their last value
			p.setLatestError()
			return
		}
		p.gauges.SetSoil(reading.Soil)
		p.gauges.SetRiver(reading.River)
		p.setLatest(readout.FormatLatest(*reading))
	})
}

func (p *FeedPoller) refreshHistoric(ctx context.Context, t ticket, rng entities.Range) {
	series, err := p.source.FetchHistoric(ctx, rng)
	p.settle(ctx, t, err, func() {
		if err != nil {
			p.chart.Clear()
			return
		}
		p.chart.Render(rng, *series)
	})
}

func (p *FeedPoller) refreshForecast(ctx context.Context, t ticket) {
	forecast, err := p.source.FetchForecast(ctx)
	p.settle(ctx, t, err, func() {
		if err != nil {
			p.setForecast(readout.ForecastError())
			return
		}
		p.setForecast(readout.FormatForecast(*forecast))
	})
}

func (p *FeedPoller) refreshAlert(ctx context.Context, t ticket) {
	alert, err := p.source.FetchAlert(ctx)
	p.settle(ctx, t, err, func() {
		if err != nil {
			p.surface.SetText(view.AlertLevel, readout.ErrorText)
			return
		}
		p.surface.SetText(view.AlertLevel, readout.FormatAlert(*alert))
	})
}

func (p *FeedPoller) setLatest(l readout.Latest) {
	p.surface.SetText(view.Soil, l.Soil)
	p.surface.SetText(view.Temp, l.Temp)
	p.surface.SetText(view.Hum, l.Hum)
	p.surface.SetText(view.Rain, l.Rain)
	p.surface.SetText(view.RainSince9, l.TotalRain)
	p.surface.SetText(view.River, l.River)
}

func (p *FeedPoller) setLatestError() {
	for _, id := range []string{view.Soil, view.Temp, view.Hum, view.Rain, view.River} {
		p.surface.SetText(id, readout.ErrorText)
	}
}

func (p *FeedPoller) setForecast(f readout.ForecastText) {
	p.surface.SetText(view.ForecastMin, f.MinTemp)
	p.surface.SetText(view.ForecastMax, f.MaxTemp)
	p.surface.SetText(view.ForecastProb, f.PrecipProb)
	p.surface.SetText(view.ForecastRain, f.PrecipIntensity)
}
