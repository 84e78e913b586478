package main

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "healthwatch",
	Short: "Scheduled health checks with threshold alerting",
	Long: `healthwatch probes HTTP, DNS, TCP and ICMP services on cron schedules,
tracks their latency and sends pass/fail notifications once a failure
threshold is crossed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "cfg", "c", "./settings.json", "path to the settings file (json, yaml or toml)")
}
