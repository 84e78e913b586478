package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/app"
	"github.com/hamed0406/healthwatch/internal/cli"
	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/logging"
)

var (
	listOnly  bool
	inputMode bool
)

func init() {
	runCmd.Flags().BoolVarP(&listOnly, "list", "l", false, "print the loaded configuration and exit")
	runCmd.Flags().BoolVarP(&inputMode, "input", "i", false, "read commands from stdin while monitoring")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start monitoring the configured services",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if listOnly {
			cli.PrintConfig(cmd.OutOrStdout(), cfg)
			return nil
		}

		logger, err := logging.NewLogger(cfg.DebugLvl, cfg.LogDir)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		d, err := app.New(cfg, logger)
		if err != nil {
			logger.Error("startup_failed", zap.Error(err))
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if inputMode {
			p := &cli.Prompt{
				In:       cmd.InOrStdin(),
				Out:      cmd.OutOrStdout(),
				Services: d.Store.Snapshots,
			}
			go func() {
				defer cancel()
				if err := p.Run(ctx); err != nil {
					logger.Warn("prompt_failed", zap.Error(err))
				}
			}()
		}

		return d.Run(ctx)
	},
}
