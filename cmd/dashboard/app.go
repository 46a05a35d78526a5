package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/chart"
	"github.com/abelzeko/station-dashboard/internal/conf"
	"github.com/abelzeko/station-dashboard/internal/gauge"
	"github.com/abelzeko/station-dashboard/internal/integration"
	"github.com/abelzeko/station-dashboard/internal/metrics"
	"github.com/abelzeko/station-dashboard/internal/shell"
	"github.com/abelzeko/station-dashboard/internal/usecases"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// dashboard is the assembled refresh engine and its document
type dashboard struct {
	settings *conf.Settings
	logger   *zap.Logger
	registry *prometheus.Registry
	client   *integration.StationClient
	shell    *shell.Shell
	gauges   *gauge.Adapter
	charts   *chart.Adapter
	poller   *usecases.FeedPoller
}

func newDashboard(settings *conf.Settings, logger *zap.Logger, onApply func(usecases.Feed, error)) (*dashboard, error) {
	client := integration.NewStationClient(settings.Backend.URL, settings.Backend.Timeout, logger.Named("backend"))

	var loader shell.Loader = shell.EmbeddedLoader()
	if settings.Fragments.Source == conf.FragmentsBackend {
		loader = shell.LoaderFunc(client.FetchFragment)
	}
	sh, err := shell.New(loader, shell.Options{Home: settings.Fragments.Home, Logger: logger.Named("shell")})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize shell: %w", err)
	}

	gauges, err := gauge.NewAdapter(sh.GaugeCanvas(view.SoilGauge), sh.GaugeCanvas(view.RiverGauge), settings.Gauge.RiverMax, logger.Named("gauge"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gauges: %w", err)
	}
	charts := chart.NewAdapter(sh.ChartCanvas(view.SensorChart), logger.Named("chart"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	feedMetrics, err := metrics.NewFeedMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	poller, err := usecases.NewFeedPoller(client, sh, gauges, charts, logger.Named("poller"), usecases.Options{
		Interval:     settings.Poll.Interval,
		InitialRange: settings.InitialRange(),
		Scheduler:    usecases.NewCronScheduler(logger.Named("cron")),
		Metrics:      feedMetrics,
		OnApply:      onApply,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize poller: %w", err)
	}

	return &dashboard{
		settings: settings,
		logger:   logger,
		registry: registry,
		client:   client,
		shell:    sh,
		gauges:   gauges,
		charts:   charts,
		poller:   poller,
	}, nil
}

// mountHome binds the poller to the shell and mounts the dashboard, which
// starts polling for as long as ctx lives
func (d *dashboard) mountHome(ctx context.Context) error {
	d.shell.Bind(ctx, d.poller, d.gauges, d.charts)
	return d.shell.Mount(ctx, d.shell.Home())
}

// shutdown stops polling once ctx is done
func (d *dashboard) shutdown(ctx context.Context) error {
	<-ctx.Done()
	d.poller.Stop()
	return nil
}
