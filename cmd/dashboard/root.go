package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/conf"
)

// rootOptions carries the loaded configuration to sub-commands
type rootOptions struct {
	configFile string
	v          *viper.Viper
	settings   *conf.Settings
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "station-dashboard",
		Short:         "Environmental station telemetry dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	flags.String("backend", "", "Station backend base URL")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	bindFlag(opts.v, "backend.url", rootCmd, "backend")
	bindFlag(opts.v, "log.level", rootCmd, "log-level")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := conf.Load(opts.v, opts.configFile)
		if err != nil {
			return err
		}
		logger, err := conf.NewLogger(settings)
		if err != nil {
			return err
		}
		opts.settings = settings
		opts.logger = logger
		return nil
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		if opts.logger != nil {
			_ = opts.logger.Sync()
		}
	}

	rootCmd.AddCommand(
		serveCommand(opts),
		watchCommand(opts),
		botCommand(opts),
	)
	return rootCmd
}

// bindFlag binds a persistent or local flag to a settings key
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.Flags().Lookup(name)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("error binding flag %s: %v", name, err))
	}
}
