package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var logFile string
	var logger *zap.Logger

	rootCmd := &cobra.Command{
		Use:           "clawfarm",
		Short:         "clawfarm: multi-account token farmer for the claw plaza economy",
		Long:          "clawfarm drives a fleet of plaza accounts toward their trust targets: it mines slot tokens, posts moments on cooldown, solves server challenges through a language model, and serves a live status dashboard.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			logger, err = buildLogger(verbose, logFile)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}
	app.logger = func() *zap.Logger { return logger }
	logFile = app.cfg.LogFile

	rootCmd.AddCommand(
		newVersionCmd(),
		newFarmCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}

// buildLogger writes console output and, when logFile is set, mirrors it
// into an append-only run log.
func buildLogger(verbose bool, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if logFile != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}

	return cfg.Build()
}
