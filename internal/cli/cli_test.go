package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/domain"
)

func i64(v int64) *int64 { return &v }

func snapshots() []domain.ServiceSnapshot {
	return []domain.ServiceSnapshot{{
		Name:          "web",
		UID:           "web-1",
		Status:        domain.StatusUnhealthy,
		CheckType:     "http",
		FailsCurrent:  2,
		FailsTotal:    5,
		FailThreshold: 3,
		LastReason:    "timeout",
	}, {
		Name:          "db",
		UID:           "db-1",
		Status:        domain.StatusHealthy,
		CheckType:     "tcp",
		FailThreshold: 3,
		LatencyMin:    i64(3),
		LatencyMax:    i64(9),
		LatencyAvg:    i64(5),
		LatencyLast:   i64(4),
	}}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStatus(&buf, snapshots())
	out := buf.String()
	for _, want := range []string{"web", "Unhealthy", "2/3", "n/a", "timeout", "db", "Healthy", "3ms", "9ms", "5ms", "4ms", "tcp"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestPrintStatus_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintStatus(&buf, nil)
	if !strings.Contains(buf.String(), "No services found") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPrintConfig(t *testing.T) {
	three := 3
	cfg := &config.Config{
		DebugLvl: "info",
		Services: []config.Service{{
			Name:            "web",
			FailsCntToAlert: &three,
			Check: config.Check{
				Cron: "0 * * * * *",
				Type: "http",
				HTTP: &config.HTTPCheck{URL: "https://example.com", Timeout: 10, IsInsecure: true},
			},
			AlertFail: &config.Alert{Type: "slack", Slack: &config.ChatAlert{WebhookURL: "https://hooks.slack.test/x"}},
		}},
	}
	var buf bytes.Buffer
	PrintConfig(&buf, cfg)
	out := buf.String()
	for _, want := range []string{"web", "0 * * * * *", "GET https://example.com", "TLS verification disabled", "slack https://hooks.slack.test/x", "none"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	p := &Prompt{
		In:       strings.NewReader("list\nbogus\nQ\nlist\n"),
		Out:      &out,
		Services: snapshots,
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "Listing services") {
		t.Fatalf("list not handled:\n%s", s)
	}
	if !strings.Contains(s, "Invalid command: bogus") {
		t.Fatalf("invalid command not reported:\n%s", s)
	}
	if strings.Count(s, "Listing services") != 1 {
		t.Fatalf("commands after q must not run:\n%s", s)
	}
}

func TestPrompt_StopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&Prompt{In: r, Out: &bytes.Buffer{}, Services: snapshots}).Run(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not stop on cancel")
	}
}
