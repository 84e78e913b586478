package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// PrintStatus writes the service listing used by input mode and the
// status subcommand.
func PrintStatus(w io.Writer, snaps []domain.ServiceSnapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, DimText.Render("No services found..."))
		return
	}
	fmt.Fprintln(w, Banner.Render("Listing services...")+Subtitle.Render(fmt.Sprintf("  %d service(s)", len(snaps))))

	for _, s := range snaps {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", Bold.Render(s.Name), DimText.Render("("+s.UID+")"))
		row(w, "Status", StatusText(s.Status.String()))
		row(w, "Latency Min", ms(s.LatencyMin))
		row(w, "Latency Max", ms(s.LatencyMax))
		row(w, "Latency Avg", ms(s.LatencyAvg))
		row(w, "Latency Last", ms(s.LatencyLast))
		row(w, "Check Type", Kind.Render(s.CheckType))
		row(w, "Fails Current", fmt.Sprintf("%d/%d", s.FailsCurrent, s.FailThreshold))
		row(w, "Fails Total", strconv.Itoa(s.FailsTotal))
		if s.LastCheckedAt != nil {
			row(w, "Last Check", s.LastCheckedAt.Local().Format("2006-01-02 15:04:05"))
		}
		if s.LastReason != "" {
			row(w, "Last Reason", Unhealthy.Render(s.LastReason))
		}
	}
}

func row(w io.Writer, key, val string) {
	fmt.Fprintf(w, "    %s %s\n", Key.Render(key), val)
}

func ms(v *int64) string {
	if v == nil {
		return DimText.Render("n/a")
	}
	return strconv.FormatInt(*v, 10) + "ms"
}
