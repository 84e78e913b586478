package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/healthwatch/internal/cli"
	"github.com/hamed0406/healthwatch/internal/domain"
)

var (
	apiURL     string
	apiKey     string
	checkNow   bool
	apiTimeout time.Duration
)

func init() {
	defaultURL := os.Getenv("HEALTHWATCH_API")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	statusCmd.Flags().StringVar(&apiURL, "api", defaultURL, "status API base URL")
	statusCmd.Flags().StringVar(&apiKey, "key", os.Getenv("HEALTHWATCH_API_KEY"), "API key sent as X-API-Key")
	statusCmd.Flags().BoolVar(&checkNow, "check", false, "run a check cycle for [id] before printing (admin key)")
	statusCmd.Flags().DurationVar(&apiTimeout, "timeout", 0, "give up after this long (0 waits until interrupted)")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show service state from a running daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := cli.NewClient(apiURL, apiKey)
		ctx := cmd.Context()
		if apiTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, apiTimeout)
			defer cancel()
		}

		if len(args) == 0 {
			if checkNow {
				return fmt.Errorf("--check needs a service id")
			}
			snaps, err := client.ListServices(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch services: %w", err)
			}
			cli.PrintStatus(cmd.OutOrStdout(), snaps)
			return nil
		}

		get := client.GetService
		if checkNow {
			get = client.CheckNow
		}
		snap, err := get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", args[0], err)
		}
		cli.PrintStatus(cmd.OutOrStdout(), []domain.ServiceSnapshot{*snap})
		return nil
	},
}
