package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the health state of a monitored service.
type Status int

const (
	StatusInit Status = iota
	StatusChecking
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "Init"
	case StatusChecking:
		return "Checking"
	case StatusHealthy:
		return "Healthy"
	case StatusUnhealthy:
		return "Unhealthy"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "init":
		*s = StatusInit
	case "checking":
		*s = StatusChecking
	case "healthy":
		*s = StatusHealthy
	case "unhealthy":
		*s = StatusUnhealthy
	default:
		return fmt.Errorf("unknown status %q", string(b))
	}
	return nil
}

// ServiceSnapshot is a consistent, read-only view of one service.
// Latency fields are nil when no successful probe has been recorded.
type ServiceSnapshot struct {
	Name          string     `json:"name"`
	UID           string     `json:"uid"`
	Status        Status     `json:"status"`
	CheckType     string     `json:"check_type"`
	Cron          string     `json:"cron"`
	FailsCurrent  int        `json:"fails_current"`
	FailsTotal    int        `json:"fails_total"`
	FailThreshold int        `json:"fail_threshold"`
	LatencyWindow int        `json:"latency_window"`
	LatencyMin    *int64     `json:"latency_min_ms"`
	LatencyMax    *int64     `json:"latency_max_ms"`
	LatencyAvg    *int64     `json:"latency_avg_ms"`
	LatencyLast   *int64     `json:"latency_last_ms"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	LastReason    string     `json:"last_reason,omitempty"`
}
