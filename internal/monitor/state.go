package monitor

import "github.com/hamed0406/healthwatch/internal/domain"

// HealthState is the per-service state machine and its failure counters.
type HealthState struct {
	Status       domain.Status
	FailsCurrent int
	FailsTotal   int
}

// Transition describes the side effects owed for one completed probe.
type Transition struct {
	From domain.Status
	To   domain.Status

	// Log is set for the first failure of a run and for every recovery
	// into HEALTHY from any other state.
	Log bool

	// Alert names the notifier that is due, or is empty.
	Alert domain.EventKind

	// FailsBefore is FailsCurrent as it stood before this probe.
	FailsBefore int
}

// Next applies one probe result to s. s.Status must be the status committed
// before the cycle started, not CHECKING.
//
// A threshold of 0 alerts on every failure and on every recovery that
// follows at least one failure. A threshold N > 0 alerts once when a run of
// consecutive failures first reaches N, and alerts recovery only for runs
// that reached N.
func (s HealthState) Next(ok bool, threshold int) (HealthState, Transition) {
	tr := Transition{From: s.Status, FailsBefore: s.FailsCurrent}
	next := s

	if !ok {
		tr.To = domain.StatusUnhealthy
		tr.Log = s.FailsCurrent == 0
		if threshold == 0 || s.FailsCurrent+1 == threshold {
			tr.Alert = domain.EventFail
		}
		next.Status = domain.StatusUnhealthy
		next.FailsCurrent++
		next.FailsTotal++
		return next, tr
	}

	tr.To = domain.StatusHealthy
	next.Status = domain.StatusHealthy
	next.FailsCurrent = 0
	if s.Status == domain.StatusHealthy {
		return next, tr
	}
	tr.Log = true
	if (threshold == 0 && s.FailsCurrent > 0) || (threshold > 0 && s.FailsCurrent >= threshold) {
		tr.Alert = domain.EventPass
	}
	return next, tr
}
