package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abelzeko/station-dashboard/internal/api"
	"github.com/abelzeko/station-dashboard/internal/usecases"
	"github.com/abelzeko/station-dashboard/internal/view"
)

func watchCommand(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the station and print readouts as they refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			var (
				mu sync.Mutex
				d  *dashboard
			)
			onApply := func(feed usecases.Feed, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					opts.logger.Debug("Feed failed", zap.String("feed", string(feed)), zap.Error(err))
				}
				fmt.Fprintf(out, "[%s] %s\n%s\n\n", time.Now().Format("15:04:05"), feed, d.summary(feed))
			}
			if once {
				onApply = nil
			}

			var err error
			d, err = newDashboard(opts.settings, opts.logger, onApply)
			if err != nil {
				return err
			}

			if once {
				return d.printOnce(cmd, out)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if err := d.mountHome(ctx); err != nil {
				return err
			}
			g.Go(func() error { return d.shutdown(ctx) })
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single refresh cycle, print it and exit")
	return cmd
}

// printOnce mounts the dashboard without starting the interval, runs one
// cycle and prints every readout
func (d *dashboard) printOnce(cmd *cobra.Command, out io.Writer) error {
	if err := d.shell.Mount(cmd.Context(), d.shell.Home()); err != nil {
		return err
	}
	d.poller.RunCycle(cmd.Context())

	for _, feed := range []usecases.Feed{usecases.FeedLatest, usecases.FeedForecast, usecases.FeedAlert, usecases.FeedHistoric} {
		fmt.Fprintf(out, "%s\n\n", d.summary(feed))
	}
	return nil
}

// summary renders the readouts owned by a feed
func (d *dashboard) summary(feed usecases.Feed) string {
	readouts := view.Snapshot(d.shell)
	switch feed {
	case usecases.FeedLatest:
		return api.FormatLatest(readouts)
	case usecases.FeedForecast:
		return api.FormatForecast(readouts)
	case usecases.FeedAlert:
		return api.FormatAlert(readouts)
	default:
		return api.FormatChart(d.charts.Snapshot())
	}
}
