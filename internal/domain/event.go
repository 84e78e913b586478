package domain

import "time"

// EventKind tells a notifier which side of the alerting condition fired.
type EventKind string

const (
	EventFail EventKind = "fail"
	EventPass EventKind = "pass"
)

// Event describes one health transition handed to a notifier.
type Event struct {
	Kind          EventKind `json:"kind"`
	Service       string    `json:"service"`
	UID           string    `json:"uid"`
	Status        Status    `json:"status"`
	FailsCurrent  int       `json:"fails_current"`
	FailsTotal    int       `json:"fails_total"`
	FailThreshold int       `json:"fail_threshold"`
	Reason        string    `json:"reason,omitempty"`
	StatusCode    int       `json:"status_code,omitempty"`
	At            time.Time `json:"at"`
}
