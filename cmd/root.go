package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"webhub/browser"
	"webhub/config"
	"webhub/pipeline"
)

// app is filled in by the root command before any subcommand runs.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "webhub",
		Short: "Browser-backed web search and page retrieval tools",
		Long: `webhub drives a headless Chrome to run web searches and read pages,
either from the command line or as MCP tools for an agent hub.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newFetchCmd(a),
	)
	return cmd
}

func (a *app) pipeline() *pipeline.Pipeline {
	launcher := browser.NewChromeLauncher(a.logger, a.cfg.Browser)
	return pipeline.New(a.logger, launcher, a.cfg.Search)
}

// newLogger builds a production (JSON) logger, or a development one when
// the format is "console".
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
