// Package monitor owns the per-service health state machine and runs the
// probe → transition → notify cycle that the scheduler triggers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/metrics"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/probe"
)

var (
	ErrNoName           = errors.New("service name is required")
	ErrNoChecker        = errors.New("service checker is required")
	ErrNegativeSettings = errors.New("fail threshold and latency window must be >= 0")
)

type Options struct {
	Name    string
	UID     string
	Cron    string
	Checker probe.Checker

	// PassNotifier and FailNotifier are optional.
	PassNotifier notify.Notifier
	FailNotifier notify.Notifier

	FailThreshold int
	LatencyWindow int

	Logger  *zap.Logger
	Metrics metrics.Recorder
}

// Service is one monitored target. All mutation happens inside
// RunCheckCycle; the accessors are safe to call at any time.
type Service struct {
	name      string
	uid       string
	cron      string
	checker   probe.Checker
	pass      notify.Notifier
	fail      notify.Notifier
	threshold int

	logger  *zap.Logger
	metrics metrics.Recorder

	// cycleMu serializes whole cycles; stateMu guards the committed fields
	// below and is only held for short reads and writes.
	cycleMu     sync.Mutex
	stateMu     sync.RWMutex
	state       HealthState
	lastChecked time.Time
	lastReason  string

	latency *LatencyHistory
}

func New(opts Options) (*Service, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, ErrNoName
	}
	if opts.Checker == nil {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNoChecker)
	}
	if opts.FailThreshold < 0 || opts.LatencyWindow < 0 {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNegativeSettings)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	uid := opts.UID
	if uid == "" {
		uid = opts.Name
	}
	return &Service{
		name:      opts.Name,
		uid:       uid,
		cron:      opts.Cron,
		checker:   opts.Checker,
		pass:      opts.PassNotifier,
		fail:      opts.FailNotifier,
		threshold: opts.FailThreshold,
		logger:    opts.Logger.With(zap.String("service", opts.Name), zap.String("uid", uid)),
		metrics:   opts.Metrics,
		state:     HealthState{Status: domain.StatusInit},
		latency:   NewLatencyHistory(opts.LatencyWindow),
	}, nil
}

func (s *Service) Name() string             { return s.name }
func (s *Service) UID() string              { return s.uid }
func (s *Service) Cron() string             { return s.cron }
func (s *Service) CheckType() string        { return string(s.checker.Kind()) }
func (s *Service) FailThreshold() int       { return s.threshold }
func (s *Service) Latency() *LatencyHistory { return s.latency }

func (s *Service) metricsID() metrics.Service {
	return metrics.Service{Name: s.name, UID: s.uid}
}

func (s *Service) State() HealthState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Service) Status() domain.Status { return s.State().Status }
func (s *Service) FailsCurrent() int     { return s.State().FailsCurrent }
func (s *Service) FailsTotal() int       { return s.State().FailsTotal }

func (s *Service) LatencyMin() (int64, bool)  { return s.latency.Min() }
func (s *Service) LatencyMax() (int64, bool)  { return s.latency.Max() }
func (s *Service) LatencyAvg() (int64, bool)  { return s.latency.Avg() }
func (s *Service) LatencyLast() (int64, bool) { return s.latency.Last() }

// Snapshot returns the most recently committed view of the service.
func (s *Service) Snapshot() domain.ServiceSnapshot {
	s.stateMu.RLock()
	st, checked, reason := s.state, s.lastChecked, s.lastReason
	s.stateMu.RUnlock()
	lat := s.latency.Stats()

	snap := domain.ServiceSnapshot{
		Name:          s.name,
		UID:           s.uid,
		Status:        st.Status,
		CheckType:     s.CheckType(),
		Cron:          s.cron,
		FailsCurrent:  st.FailsCurrent,
		FailsTotal:    st.FailsTotal,
		FailThreshold: s.threshold,
		LatencyWindow: s.latency.Capacity(),
		LatencyMin:    lat.Min,
		LatencyMax:    lat.Max,
		LatencyAvg:    lat.Avg,
		LatencyLast:   lat.Last,
		LastReason:    reason,
	}
	if !checked.IsZero() {
		snap.LastCheckedAt = &checked
	}
	return snap
}

// RunCheckCycle probes the target once, commits the resulting state and
// delivers any notification that became due. Overlapping calls for the same
// service wait for each other. A cycle whose ctx is cancelled during the
// probe is abandoned without touching the counters.
func (s *Service) RunCheckCycle(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	s.stateMu.Lock()
	prev := s.state
	s.state.Status = domain.StatusChecking
	s.stateMu.Unlock()

	start := time.Now()
	out := s.probe(ctx)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		s.stateMu.Lock()
		s.state.Status = prev.Status
		s.stateMu.Unlock()
		s.logger.Debug("check_abandoned", zap.Error(ctx.Err()))
		return
	}

	s.metrics.ObserveProbe(s.metricsID(), s.CheckType(), elapsed, metrics.Result(out.OK))
	if out.OK {
		s.latency.Record(elapsed.Milliseconds())
	}

	next, tr := prev.Next(out.OK, s.threshold)
	now := time.Now().UTC()

	s.stateMu.Lock()
	s.state = next
	s.lastChecked = now
	s.lastReason = string(out.Reason)
	s.stateMu.Unlock()
	s.metrics.SetServiceState(s.metricsID(), out.OK, next.FailsCurrent)

	s.logger.Debug("check_completed",
		zap.Bool("ok", out.OK),
		zap.String("result", out.String()),
		zap.Int64("latency_ms", elapsed.Milliseconds()),
		zap.Int("fails_current", next.FailsCurrent),
	)
	if tr.Log {
		if out.OK {
			s.logger.Info("service_healthy",
				zap.Stringer("from", tr.From),
				zap.Int("failures", tr.FailsBefore),
			)
		} else {
			s.logger.Error("service_unhealthy",
				zap.String("reason", string(out.Reason)),
				zap.Int("status_code", out.StatusCode),
				zap.String("detail", out.Message),
			)
		}
	}

	if tr.Alert == "" {
		return
	}
	ev := domain.Event{
		Kind:          tr.Alert,
		Service:       s.name,
		UID:           s.uid,
		Status:        next.Status,
		FailsCurrent:  next.FailsCurrent,
		FailsTotal:    next.FailsTotal,
		FailThreshold: s.threshold,
		Reason:        string(out.Reason),
		StatusCode:    out.StatusCode,
		At:            now,
	}
	n := s.fail
	if tr.Alert == domain.EventPass {
		n = s.pass
		ev.FailsCurrent = tr.FailsBefore
	}
	s.deliver(ctx, n, ev)
}

// probe runs the checker, turning a panic into a failed outcome.
func (s *Service) probe(ctx context.Context) (out probe.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = probe.Outcome{Reason: probe.ReasonTransport, Message: fmt.Sprintf("checker panic: %v", r)}
		}
	}()
	return s.checker.Probe(ctx)
}

func (s *Service) deliver(ctx context.Context, n notify.Notifier, ev domain.Event) {
	if n == nil {
		return
	}
	err := n.Deliver(ctx, ev)
	s.metrics.IncNotification(s.metricsID(), string(ev.Kind), string(n.Kind()), metrics.Result(err == nil))
	if err != nil {
		s.logger.Error("notify_failed",
			zap.String("event", string(ev.Kind)),
			zap.String("channel", string(n.Kind())),
			zap.String("reason", string(notify.ReasonOf(err))),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("notify_sent",
		zap.String("event", string(ev.Kind)),
		zap.String("channel", string(n.Kind())),
	)
}
