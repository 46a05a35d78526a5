package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abelzeko/station-dashboard/internal/api"
)

func botCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Answer dashboard queries on Telegram",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.settings.Telegram.Token == "" {
				return errors.New("telegram token is not set, use TELEGRAM_BOT_TOKEN or telegram.token")
			}

			d, err := newDashboard(opts.settings, opts.logger, nil)
			if err != nil {
				return err
			}

			handler := api.NewCommandHandler(d.shell, d.charts, d.poller, opts.logger.Named("bot"))
			telegramBot, err := api.NewTelegramBot(opts.settings.Telegram.Token, handler, opts.logger.Named("bot"))
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if err := d.mountHome(ctx); err != nil {
				opts.logger.Warn("Initial dashboard mount failed", zap.Error(err))
			}
			g.Go(func() error { return telegramBot.Start(ctx) })
			g.Go(func() error { return d.shutdown(ctx) })
			return g.Wait()
		},
	}
}
