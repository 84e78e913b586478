// Package metrics exposes probe, notification and health-state counters.
//
// Components take a Recorder and default to NoopRecorder, so nothing needs a
// nil check when the status server (and its /metrics route) is disabled.
package metrics

import "time"

// ResultLabel is the outcome label attached to probe and delivery counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// Result maps a boolean outcome to its label.
func Result(ok bool) ResultLabel {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// Service identifies the series of one monitored service. Names may repeat
// across services; the uid does not.
type Service struct {
	Name string
	UID  string
}

// Recorder receives observations from the monitor. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveProbe(svc Service, kind string, d time.Duration, result ResultLabel)
	IncNotification(svc Service, event, channel string, result ResultLabel)
	SetServiceState(svc Service, healthy bool, failsCurrent int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveProbe(Service, string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncNotification(Service, string, string, ResultLabel)     {}
func (NoopRecorder) SetServiceState(Service, bool, int)                       {}
