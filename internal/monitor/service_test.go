package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/probe"
)

// scriptChecker returns the scripted results in order and then repeats the last one.
type scriptChecker struct {
	mu      sync.Mutex
	results []bool
	delay   time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (c *scriptChecker) Kind() probe.Kind { return probe.KindHTTP }

func (c *scriptChecker) Probe(ctx context.Context) probe.Outcome {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxInFlight.Load()
		if n <= m || c.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	i := int(c.calls.Add(1)) - 1
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	ok := c.results[len(c.results)-1]
	if i < len(c.results) {
		ok = c.results[i]
	}
	c.mu.Unlock()

	if ok {
		return probe.Outcome{OK: true, StatusCode: 200, Message: "200 OK"}
	}
	return probe.Outcome{Reason: probe.ReasonBadStatus, StatusCode: 503, Message: "503 Service Unavailable"}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (n *recordingNotifier) Kind() notify.Kind { return notify.KindHTTP }

func (n *recordingNotifier) Deliver(_ context.Context, ev domain.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) Events() []domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Event(nil), n.events...)
}

type fixture struct {
	svc  *Service
	pass *recordingNotifier
	fail *recordingNotifier
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T, threshold, window int, checker probe.Checker) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	f := fixture{pass: &recordingNotifier{}, fail: &recordingNotifier{}, logs: logs}
	svc, err := New(Options{
		Name:          "api",
		UID:           "api-1",
		Cron:          "* * * * * *",
		Checker:       checker,
		PassNotifier:  f.pass,
		FailNotifier:  f.fail,
		FailThreshold: threshold,
		LatencyWindow: window,
		Logger:        zap.New(core),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func cycles(svc *Service, n int) {
	for i := 0; i < n; i++ {
		svc.RunCheckCycle(context.Background())
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Checker: &scriptChecker{results: []bool{true}}})
	require.ErrorIs(t, err, ErrNoName)

	_, err = New(Options{Name: "x"})
	require.ErrorIs(t, err, ErrNoChecker)

	_, err = New(Options{Name: "x", Checker: &scriptChecker{results: []bool{true}}, FailThreshold: -1})
	require.ErrorIs(t, err, ErrNegativeSettings)

	svc, err := New(Options{Name: "x", Checker: &scriptChecker{results: []bool{true}}})
	require.NoError(t, err)
	require.Equal(t, "x", svc.UID())
	require.Equal(t, domain.StatusInit, svc.Status())
	require.Equal(t, "http", svc.CheckType())
}

func TestRunCheckCycle_ThresholdThenRecovery(t *testing.T) {
	f := newFixture(t, 3, 10, &scriptChecker{results: []bool{false, false, false, true}})

	cycles(f.svc, 2)
	require.Empty(t, f.fail.Events())

	cycles(f.svc, 1)
	require.Len(t, f.fail.Events(), 1)
	ev := f.fail.Events()[0]
	require.Equal(t, domain.EventFail, ev.Kind)
	require.Equal(t, 3, ev.FailsCurrent)
	require.Equal(t, 503, ev.StatusCode)
	require.Equal(t, "bad_status", ev.Reason)
	require.Equal(t, domain.StatusUnhealthy, f.svc.Status())
	require.Equal(t, 3, f.svc.FailsCurrent())
	require.Equal(t, 3, f.svc.FailsTotal())

	cycles(f.svc, 1)
	require.Len(t, f.fail.Events(), 1)
	require.Len(t, f.pass.Events(), 1)
	require.Equal(t, 3, f.pass.Events()[0].FailsCurrent)
	require.Equal(t, domain.StatusHealthy, f.svc.Status())
	require.Equal(t, 0, f.svc.FailsCurrent())
	require.Equal(t, 3, f.svc.FailsTotal())
	require.Equal(t, 1, f.svc.Latency().Len())
}

func TestRunCheckCycle_TransientBlipSendsNothing(t *testing.T) {
	f := newFixture(t, 3, 10, &scriptChecker{results: []bool{false, false, true}})
	cycles(f.svc, 3)
	require.Empty(t, f.fail.Events())
	require.Empty(t, f.pass.Events())
	require.Equal(t, 0, f.svc.FailsCurrent())
	require.Equal(t, 2, f.svc.FailsTotal())
}

func TestRunCheckCycle_ZeroThresholdAlertsEveryFailure(t *testing.T) {
	f := newFixture(t, 0, 10, &scriptChecker{results: []bool{false, false, false, true}})
	cycles(f.svc, 4)
	require.Len(t, f.fail.Events(), 3)
	require.Len(t, f.pass.Events(), 1)
}

func TestRunCheckCycle_HealthyStaysSilent(t *testing.T) {
	f := newFixture(t, 3, 10, &scriptChecker{results: []bool{true}})
	cycles(f.svc, 1)
	require.Equal(t, 1, f.logs.FilterMessage("service_healthy").Len())

	before := f.logs.Len()
	cycles(f.svc, 3)
	require.Equal(t, before, f.logs.Len(), "no log lines while already healthy")
	require.Empty(t, f.pass.Events())
	require.Equal(t, 4, f.svc.Latency().Len())
}

func TestRunCheckCycle_LogsFirstFailureOnly(t *testing.T) {
	f := newFixture(t, 5, 10, &scriptChecker{results: []bool{false}})
	cycles(f.svc, 4)
	entries := f.logs.FilterMessage("service_unhealthy").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestRunCheckCycle_LatencyWindow(t *testing.T) {
	f := newFixture(t, 3, 5, &scriptChecker{results: []bool{true}})
	cycles(f.svc, 7)
	require.Equal(t, 5, f.svc.Latency().Len())
	_, ok := f.svc.LatencyLast()
	require.True(t, ok)
}

func TestRunCheckCycle_FailuresDoNotRecordLatency(t *testing.T) {
	f := newFixture(t, 3, 5, &scriptChecker{results: []bool{false}})
	cycles(f.svc, 3)
	_, ok := f.svc.LatencyMin()
	require.False(t, ok)
	snap := f.svc.Snapshot()
	require.Nil(t, snap.LatencyMin)
	require.Nil(t, snap.LatencyLast)
	require.NotNil(t, snap.LastCheckedAt)
	require.Equal(t, "bad_status", snap.LastReason)
}

func TestRunCheckCycle_DeliveryFailureIsLoggedOnly(t *testing.T) {
	f := newFixture(t, 1, 5, &scriptChecker{results: []bool{false, true}})
	f.fail.err = &notify.DeliveryError{Reason: notify.ReasonBadStatus, StatusCode: 500}

	cycles(f.svc, 1)
	entries := f.logs.FilterMessage("notify_failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "bad_status", entries[0].ContextMap()["reason"])
	require.Equal(t, domain.StatusUnhealthy, f.svc.Status())

	cycles(f.svc, 1)
	require.Equal(t, domain.StatusHealthy, f.svc.Status())
	require.Len(t, f.pass.Events(), 1)
}

func TestRunCheckCycle_OverlappingTicksSerialize(t *testing.T) {
	checker := &scriptChecker{results: []bool{false}, delay: 5 * time.Millisecond}
	f := newFixture(t, 3, 5, checker)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.RunCheckCycle(context.Background())
		}()
	}

	// Readers must not block behind in-flight cycles.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = f.svc.Snapshot()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot blocked behind check cycles")
	}

	wg.Wait()
	require.EqualValues(t, 1, checker.maxInFlight.Load())
	require.Equal(t, n, f.svc.FailsTotal())
	require.Equal(t, n, f.svc.FailsCurrent())
	require.Len(t, f.fail.Events(), 1)
}

func TestRunCheckCycle_CancelledProbeLeavesStateUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &cancellingChecker{cancel: cancel}
	f := newFixture(t, 1, 5, checker)

	f.svc.RunCheckCycle(ctx)
	require.Equal(t, domain.StatusInit, f.svc.Status())
	require.Equal(t, 0, f.svc.FailsTotal())
	require.Empty(t, f.fail.Events())

	// Already-cancelled contexts skip the probe entirely.
	f.svc.RunCheckCycle(ctx)
	require.Equal(t, 1, checker.calls)
}

type cancellingChecker struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingChecker) Kind() probe.Kind { return probe.KindTCP }

func (c *cancellingChecker) Probe(ctx context.Context) probe.Outcome {
	c.calls++
	c.cancel()
	return probe.Outcome{Reason: probe.ReasonTimeout, Message: ctx.Err().Error()}
}

func TestRunCheckCycle_CheckerPanicCountsAsFailure(t *testing.T) {
	f := newFixture(t, 1, 5, panicChecker{})
	require.NotPanics(t, func() { f.svc.RunCheckCycle(context.Background()) })
	require.Equal(t, domain.StatusUnhealthy, f.svc.Status())
	require.Len(t, f.fail.Events(), 1)
	require.Equal(t, "transport", f.fail.Events()[0].Reason)
}

type panicChecker struct{}

func (panicChecker) Kind() probe.Kind { return probe.KindDNS }
func (panicChecker) Probe(context.Context) probe.Outcome {
	panic(errors.New("boom"))
}
