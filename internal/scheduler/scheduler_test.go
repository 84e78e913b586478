package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidateCron(t *testing.T) {
	for _, expr := range []string{"0 * * * * *", "*/5 * * * *", "@every 30s", "@hourly", "CRON_TZ=UTC 0 * * * * *", "TZ=UTC */5 * * * *"} {
		require.NoError(t, ValidateCron(expr), expr)
	}
	for _, expr := range []string{"", "this is not a cron", "61 * * * *", "* * * * * * *"} {
		require.Error(t, ValidateCron(expr), expr)
	}
}

func TestNextAfter(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 30, 0, time.UTC)
	next, err := NextAfter("0 * * * * *", base)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 1, 10, 1, 0, 0, time.UTC), next)

	_, err = NextAfter("nope", base)
	require.Error(t, err)
}

func TestHasSeconds(t *testing.T) {
	for expr, want := range map[string]bool{
		"0 * * * * *":                    true,
		"*/5 * * * *":                    false,
		"@every 30s":                     false,
		"CRON_TZ=UTC 0 * * * * *":        true,
		"TZ=Europe/Berlin */5 * * * *":   false,
		"CRON_TZ=Asia/Tokyo 0 0 9 * * *": true,
	} {
		require.Equal(t, want, hasSeconds(expr), expr)
	}
}

func TestScheduler_Register(t *testing.T) {
	t.Run("rejects invalid cron", func(t *testing.T) {
		s, err := New(zap.NewNop(), time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Shutdown() })

		err = s.Register(context.Background(), Job{Key: "a", Name: "a", Cron: "not a cron", Run: func(context.Context) {}})
		require.Error(t, err)
		require.Equal(t, 0, s.Len())
	})

	t.Run("rejects duplicate key", func(t *testing.T) {
		s, err := New(zap.NewNop(), time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Shutdown() })

		job := Job{Key: "a", Name: "a", Cron: "0 */4 * * *", Run: func(context.Context) {}}
		require.NoError(t, s.Register(context.Background(), job))
		require.ErrorIs(t, s.Register(context.Background(), job), ErrDuplicateJob)
	})

	t.Run("accepts a location prefix", func(t *testing.T) {
		s, err := New(zap.NewNop(), time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Shutdown() })

		for i, expr := range []string{"CRON_TZ=UTC 0 * * * * *", "TZ=UTC */5 * * * *"} {
			key := string(rune('a' + i))
			require.NoError(t, s.Register(context.Background(), Job{Key: key, Name: key, Cron: expr, Run: func(context.Context) {}}), expr)
		}
		require.Equal(t, 2, s.Len())
	})
}

func TestScheduler_FiresAndRecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s, err := New(zap.New(core), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	var calls atomic.Int32
	require.NoError(t, s.Register(context.Background(), Job{
		Key:  "tick",
		Name: "tick",
		Cron: "* * * * * *",
		Run: func(ctx context.Context) {
			if calls.Add(1) == 1 {
				panic("first run explodes")
			}
		},
	}))
	s.Start()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	require.GreaterOrEqual(t, logs.FilterMessage("job_panic").Len(), 1)

	next, ok := s.NextRun("tick")
	require.True(t, ok)
	require.False(t, next.IsZero())

	_, ok = s.NextRun("missing")
	require.False(t, ok)
}

func TestScheduler_CancelledContextSkipsRun(t *testing.T) {
	s, err := New(nil, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	require.NoError(t, s.Register(ctx, Job{Key: "k", Name: "k", Cron: "* * * * * *", Run: func(context.Context) { calls.Add(1) }}))
	s.Start()

	time.Sleep(1500 * time.Millisecond)
	require.EqualValues(t, 0, calls.Load())
}

func TestScheduler_LocationPrefixedSecondsJobFires(t *testing.T) {
	s, err := New(zap.NewNop(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	var calls atomic.Int32
	require.NoError(t, s.Register(context.Background(), Job{
		Key:  "tz",
		Name: "tz",
		Cron: "CRON_TZ=UTC * * * * * *",
		Run:  func(context.Context) { calls.Add(1) },
	}))
	s.Start()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_SlowJobNeverOverlaps(t *testing.T) {
	s, err := New(zap.NewNop(), 3*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	var inFlight, maxInFlight, calls atomic.Int32
	require.NoError(t, s.Register(context.Background(), Job{
		Key:  "slow",
		Name: "slow",
		Cron: "* * * * * *",
		Run: func(context.Context) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			calls.Add(1)
			time.Sleep(1500 * time.Millisecond)
		},
	}))
	s.Start()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 6*time.Second, 50*time.Millisecond)
	require.EqualValues(t, 1, maxInFlight.Load())
}
