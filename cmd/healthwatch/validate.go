package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings file without starting any probes",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := config.Load(cfgPath)
		if err != nil {
			for _, e := range multierr.Errors(err) {
				fmt.Fprintln(out, "✖", e)
			}
			return fmt.Errorf("%s is invalid", cfgPath)
		}
		preflight(out, cfg, time.Now())
		return nil
	},
}

func preflight(w io.Writer, cfg *config.Config, now time.Time) {
	ok := func(msg string) { fmt.Fprintln(w, "✔", msg) }
	warn := func(msg string) { fmt.Fprintln(w, "⚠", msg) }

	ok(fmt.Sprintf("%s: %d service(s)", cfgPath, len(cfg.Services)))

	for _, s := range cfg.Services {
		next, err := scheduler.NextAfter(s.Check.Cron, now)
		if err != nil {
			warn(fmt.Sprintf("%s: %v", s.Name, err))
			continue
		}
		ok(fmt.Sprintf("%s (%s) next run %s", s.Name, s.Check.Type, next.Format(time.RFC3339)))
		if s.AlertFail == nil {
			warn(s.Name + " has no alert_fail; failures are only logged")
		}
	}

	st := cfg.Status
	if st.Addr == "" {
		warn("status.addr empty; status API disabled")
		return
	}
	ok("status.addr=" + st.Addr)
	if len(st.ReadKeys) == 0 && len(st.AdminKeys) == 0 {
		warn("no read_keys or admin_keys; read routes are open")
	}
	if len(st.AdminKeys) == 0 {
		warn("no admin_keys; manual checks are open")
	}
	if len(st.CORSOrigins) == 0 {
		warn("cors_origins empty; browsers will be blocked cross-origin")
	}
}
