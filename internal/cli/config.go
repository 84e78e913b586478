package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hamed0406/healthwatch/internal/config"
)

// PrintConfig writes the loaded configuration for --list.
func PrintConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, Banner.Render("healthwatch configuration"))
	row(w, "Debug Level", cfg.DebugLvl)
	row(w, "Log Dir", orNone(cfg.LogDir))
	row(w, "Shutdown Grace", cfg.ShutdownGrace.String())
	row(w, "Status API", orNone(cfg.Status.Addr))
	fmt.Fprintln(w)
	fmt.Fprintln(w, Subtitle.Render(fmt.Sprintf("%d service(s)", len(cfg.Services))))

	for i, s := range cfg.Services {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", Bold.Render(fmt.Sprintf("#%d %s", i+1, s.Name)), DimText.Render(orNone(s.UID)))
		row(w, "Cron", s.Check.Cron)
		row(w, "Check Type", Kind.Render(s.Check.Type))
		for _, line := range checkDetails(s.Check) {
			row(w, "", line)
		}
		row(w, "Fail Threshold", strconv.Itoa(s.FailThreshold()))
		row(w, "Latency Window", strconv.Itoa(s.LatencyWindow()))
		row(w, "Alert Pass", alertSummary(s.AlertPass))
		row(w, "Alert Fail", alertSummary(s.AlertFail))
	}
}

func checkDetails(c config.Check) []string {
	switch {
	case c.HTTP != nil:
		out := []string{
			fmt.Sprintf("%s %s (timeout %ds)", strings.ToUpper(orDefault(c.HTTP.Method, "GET")), c.HTTP.URL, c.HTTP.Timeout),
		}
		if len(c.HTTP.OKCodes) > 0 {
			out = append(out, fmt.Sprintf("ok codes %v", c.HTTP.OKCodes))
		}
		if len(c.HTTP.Headers) > 0 {
			keys := make([]string, 0, len(c.HTTP.Headers))
			for k := range c.HTTP.Headers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out = append(out, "headers "+strings.Join(keys, ", "))
		}
		if c.HTTP.IsInsecure {
			out = append(out, Warning.Render("TLS verification disabled"))
		}
		return out
	case c.DNS != nil:
		return []string{fmt.Sprintf("resolve %s (timeout %ds)", c.DNS.Host, c.DNS.Timeout)}
	case c.TCP != nil:
		return []string{fmt.Sprintf("connect %s (timeout %ds)", c.TCP.Address, c.TCP.Timeout)}
	case c.ICMP != nil:
		return []string{fmt.Sprintf("ping %s x%d (timeout %ds)", c.ICMP.Host, c.ICMP.Count, c.ICMP.Timeout)}
	}
	return nil
}

func alertSummary(a *config.Alert) string {
	if a == nil {
		return DimText.Render("none")
	}
	target := ""
	switch {
	case a.Discord != nil && a.Type == "discord":
		target = a.Discord.WebhookURL
	case a.Slack != nil && a.Type == "slack":
		target = a.Slack.WebhookURL
	case a.HTTP != nil && a.Type == "http":
		target = strings.ToUpper(orDefault(a.HTTP.Method, "POST")) + " " + a.HTTP.URL
	case a.Kafka != nil && a.Type == "kafka":
		target = a.Kafka.Topic + " @ " + strings.Join(a.Kafka.Brokers, ",")
	case a.NATS != nil && a.Type == "nats":
		target = a.NATS.Subject + " @ " + a.NATS.URL
	}
	return Kind.Render(a.Type) + " " + target
}

func orNone(s string) string { return orDefault(s, "none") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
