// Package scheduler runs one cron-triggered job per monitored service.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var ErrDuplicateJob = errors.New("job already registered")

// ValidateCron reports whether expr is a 5 or 6 field cron expression or a
// descriptor such as @every 30s.
func ValidateCron(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errors.New("empty cron expression")
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	return nil
}

// NextAfter returns the first activation of expr strictly after t.
func NextAfter(expr string, t time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	return sched.Next(t), nil
}

// Job is one recurring task. Run receives the context passed to Register.
type Job struct {
	Key  string
	Name string
	Cron string
	Run  func(ctx context.Context)
}

type Scheduler struct {
	logger *zap.Logger
	cron   gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]gocron.Job
}

// New builds a stopped scheduler. stopTimeout bounds how long Shutdown
// waits for running jobs.
func New(logger *zap.Logger, stopTimeout time.Duration) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []gocron.SchedulerOption{gocron.WithLogger(zapLogger{logger.Sugar()})}
	if stopTimeout > 0 {
		opts = append(opts, gocron.WithStopTimeout(stopTimeout))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{logger: logger, cron: s, jobs: map[string]gocron.Job{}}, nil
}

// Register adds j to the scheduler. Ticks that arrive while a previous run
// of the same job is still going wait for it to finish. Panics inside Run
// are recovered and logged.
func (s *Scheduler) Register(ctx context.Context, j Job) error {
	if err := ValidateCron(j.Cron); err != nil {
		return err
	}
	if j.Run == nil {
		return fmt.Errorf("job %q has no task", j.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.Key]; ok {
		return fmt.Errorf("%s: %w", j.Key, ErrDuplicateJob)
	}

	job, err := s.cron.NewJob(
		gocron.CronJob(j.Cron, hasSeconds(j.Cron)),
		gocron.NewTask(func() { s.run(ctx, j) }),
		gocron.WithName(j.Name),
		gocron.WithTags(j.Key),
		gocron.WithSingletonMode(gocron.LimitModeWait),
	)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", j.Name, err)
	}
	s.jobs[j.Key] = job
	s.logger.Debug("job_registered",
		zap.String("job", j.Name),
		zap.String("key", j.Key),
		zap.String("cron", j.Cron),
		zap.String("job_id", job.ID().String()),
	)
	return nil
}

// hasSeconds reports whether expr carries a leading seconds field. A
// TZ= or CRON_TZ= location prefix is not a field.
func hasSeconds(expr string) bool {
	fields := strings.Fields(expr)
	if len(fields) > 0 && (strings.HasPrefix(fields[0], "TZ=") || strings.HasPrefix(fields[0], "CRON_TZ=")) {
		fields = fields[1:]
	}
	return len(fields) == 6
}

func (s *Scheduler) run(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job_panic", zap.String("job", j.Name), zap.Any("panic", r))
		}
	}()
	if ctx.Err() != nil {
		return
	}
	j.Run(ctx)
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler_started", zap.Int("jobs", s.Len()))
	s.cron.Start()
}

// Shutdown stops firing new ticks and waits (bounded by the stop timeout)
// for running jobs.
func (s *Scheduler) Shutdown() error {
	s.logger.Info("scheduler_stopping")
	return s.cron.Shutdown()
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// NextRun returns the next scheduled tick for the job registered under key.
func (s *Scheduler) NextRun(key string) (time.Time, bool) {
	s.mu.Lock()
	job, ok := s.jobs[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	next, err := job.NextRun()
	if err != nil || next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// zapLogger adapts zap to gocron's key/value logger.
type zapLogger struct{ l *zap.SugaredLogger }

func (z zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
