package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abelzeko/station-dashboard/internal/httpserver"
)

func serveCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live dashboard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDashboard(opts.settings, opts.logger, nil)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if err := d.mountHome(ctx); err != nil {
				// The failure message is on the page and the dashboard can be remounted
				opts.logger.Warn("Initial dashboard mount failed", zap.Error(err))
			}

			handler := httpserver.NewHandler(d.shell, d.poller, d.gauges, d.charts, opts.logger.Named("http"))
			g.Go(func() error {
				return httpserver.Serve(ctx, opts.settings.HTTP.Listen, httpserver.Routes(handler, d.registry), opts.logger)
			})
			g.Go(func() error { return d.shutdown(ctx) })
			return g.Wait()
		},
	}

	cmd.Flags().String("listen", "", "HTTP listen address")
	bindFlag(opts.v, "http.listen", cmd, "listen")
	return cmd
}
