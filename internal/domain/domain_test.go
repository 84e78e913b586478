package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStatus_StringAndText(t *testing.T) {
	cases := []struct {
		s    Status
		str  string
		text string
	}{
		{StatusInit, "Init", "init"},
		{StatusChecking, "Checking", "checking"},
		{StatusHealthy, "Healthy", "healthy"},
		{StatusUnhealthy, "Unhealthy", "unhealthy"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.str {
			t.Fatalf("String()=%q want %q", got, c.str)
		}
		b, _ := c.s.MarshalText()
		if string(b) != c.text {
			t.Fatalf("MarshalText()=%q want %q", b, c.text)
		}
		var back Status
		if err := back.UnmarshalText(b); err != nil || back != c.s {
			t.Fatalf("UnmarshalText(%q)=%v,%v want %v", b, back, err, c.s)
		}
	}

	var s Status
	if err := s.UnmarshalText([]byte("sideways")); err == nil {
		t.Fatalf("want error for unknown status")
	}
}

func TestServiceSnapshot_EmptyLatencyIsNull(t *testing.T) {
	snap := ServiceSnapshot{
		Name:   "api",
		UID:    "u1",
		Status: StatusUnhealthy,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"status":"unhealthy"`) {
		t.Fatalf("status not rendered as text: %s", out)
	}
	if !strings.Contains(out, `"latency_min_ms":null`) {
		t.Fatalf("empty latency should be null, got %s", out)
	}
	if strings.Contains(out, "last_checked_at") {
		t.Fatalf("unset last_checked_at should be omitted: %s", out)
	}
}

func TestEvent_JSON(t *testing.T) {
	ev := Event{
		Kind:         EventFail,
		Service:      "api",
		Status:       StatusUnhealthy,
		FailsCurrent: 3,
		At:           time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"kind":"fail"`) || !strings.Contains(string(b), `"fails_current":3`) {
		t.Fatalf("unexpected event json: %s", b)
	}
}
