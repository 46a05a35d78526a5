// Package usecases contains the dashboard refresh engine
package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/gauge"
	"github.com/abelzeko/station-dashboard/internal/metrics"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// ErrNotStarted is returned when a fetch is requested while the poller is
// stopped
var ErrNotStarted = errors.New("poller is not started")

// DefaultInterval is the refresh cadence
const DefaultInterval = 60 * time.Second

// Feed names one independent data source
type Feed string

const (
	FeedLatest   Feed = "latest"
	FeedHistoric Feed = "historic"
	FeedForecast Feed = "forecast"
	FeedAlert    Feed = "alert"
)

// StationSource fetches the four feeds from the backend
type StationSource interface {
	FetchLatest(ctx context.Context) (*entities.Reading, error)
	FetchHistoric(ctx context.Context, rng entities.Range) (*entities.HistoricalSeries, error)
	FetchForecast(ctx context.Context) (*entities.Forecast, error)
	FetchAlert(ctx context.Context) (*entities.Alert, error)
}

// Options tune a FeedPoller
type Options struct {
	Interval     time.Duration
	InitialRange entities.Range
	Scheduler    Scheduler
	Metrics      *metrics.FeedMetrics
	// OnApply is called after a feed result (or failure) has been applied
	OnApply func(feed Feed, err error)
}

// FeedPoller refreshes the dashboard: all feeds on start and on every
// interval tick, and the historical feed alone on a range selection.
type FeedPoller struct {
	source    StationSource
	surface   view.Surface
	gauges    *gauge.Adapter
	chart     *chart.Adapter
	logger    *zap.Logger
	metrics   *metrics.FeedMetrics
	scheduler Scheduler
	interval  time.Duration
	onApply   func(Feed, error)

	rangeMu      sync.RWMutex
	currentRange entities.Range

	// applyMu serialises view mutation and guards the sequence counters
	applyMu sync.Mutex
	issued  map[Feed]uint64
	applied map[Feed]uint64

	lifeMu       sync.RWMutex
	running      bool
	runCtx       context.Context
	cancel       context.CancelFunc
	stopSchedule func()
	wg           sync.WaitGroup
}

// NewFeedPoller creates a stopped poller
func NewFeedPoller(source StationSource, surface view.Surface, gauges *gauge.Adapter, charts *chart.Adapter, logger *zap.Logger, opts Options) (*FeedPoller, error) {
	if source == nil || surface == nil || gauges == nil || charts == nil {
		return nil, errors.New("poller needs a source, a surface, gauges and a chart")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.InitialRange == "" {
		opts.InitialRange = entities.RangeDay
	}
	if _, err := entities.ParseRange(opts.InitialRange.String()); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewCronScheduler(logger)
	}

	return &FeedPoller{
		source:       source,
		surface:      surface,
		gauges:       gauges,
		chart:        charts,
		logger:       logger,
		metrics:      opts.Metrics,
		scheduler:    opts.Scheduler,
		interval:     opts.Interval,
		onApply:      opts.OnApply,
		currentRange: opts.InitialRange,
		issued:       make(map[Feed]uint64),
		applied:      make(map[Feed]uint64),
	}, nil
}

// CurrentRange returns the selected historical range
func (p *FeedPoller) CurrentRange() entities.Range {
	p.rangeMu.RLock()
	defer p.rangeMu.RUnlock()
	return p.currentRange
}

// Running reports whether the poller is started
func (p *FeedPoller) Running() bool {
	p.lifeMu.RLock()
	defer p.lifeMu.RUnlock()
	return p.running
}

// Start fires a full refresh cycle and registers the interval. Starting a
// running poller replaces its interval and fires a fresh cycle.
func (p *FeedPoller) Start(ctx context.Context) error {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	if p.running {
		p.logger.Info("Restarting feed poller")
		p.stopSchedule()
		p.stopSchedule = nil
	} else {
		p.logger.Info("Starting feed poller",
			zap.Duration("interval", p.interval),
			zap.String("range", p.CurrentRange().String()))
		p.runCtx, p.cancel = context.WithCancel(ctx)
		p.running = true
	}

	stop, err := p.scheduler.Every(p.interval, func() { p.dispatch("interval") })
	if err != nil {
		p.cancel()
		p.running = false
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	p.stopSchedule = stop

	p.dispatchLocked("start")
	return nil
}

// Stop cancels the interval and in-flight fetches and waits for them to
// return
func (p *FeedPoller) Stop() {
	p.lifeMu.Lock()
	if !p.running {
		p.lifeMu.Unlock()
		return
	}
	p.logger.Info("Stopping feed poller")
	p.stopSchedule()
	p.stopSchedule = nil
	p.cancel()
	p.running = false
	p.lifeMu.Unlock()

	p.wg.Wait()
	p.logger.Info("Feed poller stopped")
}

// Wait blocks until every fetch issued so far has settled
func (p *FeedPoller) Wait() {
	p.wg.Wait()
}

// SelectRange switches the historical range and refetches only the
// historical feed. The range is updated even when the poller is stopped.
func (p *FeedPoller) SelectRange(rng entities.Range) error {
	rng, err := entities.ParseRange(rng.String())
	if err != nil {
		return err
	}

	p.rangeMu.Lock()
	p.currentRange = rng
	p.rangeMu.Unlock()

	p.logger.Info("Range selected", zap.String("range", rng.String()))
	if p.metrics != nil {
		p.metrics.RecordRangeSelection(rng.String())
	}

	p.lifeMu.RLock()
	defer p.lifeMu.RUnlock()
	if !p.running {
		return ErrNotStarted
	}
	t := p.issue(FeedHistoric)
	p.spawn(func(ctx context.Context) { p.refreshHistoric(ctx, t, rng) })
	return nil
}

// RunCycle performs one full refresh cycle on ctx and waits for every feed
// to settle
func (p *FeedPoller) RunCycle(ctx context.Context) {
	var wg sync.WaitGroup
	for _, fn := range p.cycleJobs() {
		wg.Add(1)
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}
	wg.Wait()
}

func (p *FeedPoller) dispatch(trigger string) {
	p.lifeMu.RLock()
	defer p.lifeMu.RUnlock()
	if !p.running {
		p.logger.Debug("Skipping refresh cycle, poller stopped", zap.String("trigger", trigger))
		return
	}
	p.dispatchLocked(trigger)
}

// dispatchLocked fires a cycle; lifeMu must be held
func (p *FeedPoller) dispatchLocked(trigger string) {
	p.logger.Debug("Starting refresh cycle", zap.String("trigger", trigger))
	if p.metrics != nil {
		p.metrics.RecordCycle(trigger)
	}
	for _, fn := range p.cycleJobs() {
		p.spawn(fn)
	}
}

// cycleJobs issues the cycle's tickets and returns its three independent
// branches: latest, historical, and forecast followed by alert
func (p *FeedPoller) cycleJobs() []func(context.Context) {
	latest := p.issue(FeedLatest)
	historic := p.issue(FeedHistoric)
	rng := p.CurrentRange()
	forecast := p.issue(FeedForecast)

	return []func(context.Context){
		func(ctx context.Context) { p.refreshLatest(ctx, latest) },
		func(ctx context.Context) { p.refreshHistoric(ctx, historic, rng) },
		func(ctx context.Context) {
			p.refreshForecast(ctx, forecast)
			if ctx.Err() != nil {
				return
			}
			// The alert request is issued only once the forecast has settled
			p.refreshAlert(ctx, p.issue(FeedAlert))
		},
	}
}

// spawn runs fn on the run context; lifeMu must be held
func (p *FeedPoller) spawn(fn func(context.Context)) {
	ctx := p.runCtx
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn(ctx)
	}()
}
