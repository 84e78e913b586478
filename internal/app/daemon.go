// Package app wires configuration, services, the scheduler and the status
// API into a running daemon.
package app

import (
	"context"
	"io"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/httpapi"
	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/metrics"
	"github.com/hamed0406/healthwatch/internal/monitor"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
	"github.com/hamed0406/healthwatch/internal/scheduler"
)

type Daemon struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *memory.Store
	Registry  *prom.Registry
	Scheduler *scheduler.Scheduler

	closers []io.Closer
}

// New builds every service and a stopped scheduler. Any error here is a
// startup failure.
func New(cfg *config.Config, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	store, closers, err := BuildServices(cfg, logger, rec)
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}
	sched, err := scheduler.New(logger, cfg.ShutdownGrace)
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}
	return &Daemon{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Registry:  reg,
		Scheduler: sched,
		closers:   closers,
	}, nil
}

// Schedule registers one job per service and returns how many were
// accepted. A service whose job cannot be registered is logged and left
// unscheduled.
func (d *Daemon) Schedule(ctx context.Context) int {
	n := 0
	for _, svc := range d.Store.List() {
		if err := d.Scheduler.Register(ctx, jobFor(svc)); err != nil {
			d.Logger.Error("job_register_failed",
				zap.String("service", svc.Name()),
				zap.String("uid", svc.UID()),
				zap.String("cron", svc.Cron()),
				zap.Error(err),
			)
			continue
		}
		d.Logger.Debug("job_registered",
			zap.String("service", svc.Name()),
			zap.String("cron", svc.Cron()),
		)
		n++
	}
	return n
}

// jobFor binds the job to the live service so every tick mutates the same
// instance.
func jobFor(svc *monitor.Service) scheduler.Job {
	return scheduler.Job{
		Key:  svc.UID(),
		Name: svc.Name(),
		Cron: svc.Cron(),
		Run:  svc.RunCheckCycle,
	}
}

// Run schedules every service, starts the status API when configured and
// blocks until ctx is done or the API fails.
func (d *Daemon) Run(ctx context.Context) error {
	scheduled := d.Schedule(ctx)
	d.Logger.Info("daemon_starting",
		zap.Int("services", d.Store.Len()),
		zap.Int("scheduled", scheduled),
	)
	d.Scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	if addr := d.Config.Status.Addr; addr != "" {
		st := d.Config.Status
		proxies, err := apimw.ParseProxies(st.TrustedProxies)
		if err != nil {
			return multierr.Combine(err, d.Scheduler.Shutdown(), closeAll(d.closers))
		}
		api := httpapi.NewServer(d.Logger, d.Store, httpapi.Options{
			Keys:           apimw.Keys{Read: st.ReadKeys, Admin: st.AdminKeys},
			RatePerMin:     st.RatePerMin,
			Burst:          st.Burst,
			CORSOrigins:    st.CORSOrigins,
			TrustedProxies: proxies,
			Metrics:        metrics.Handler(d.Registry),
		})
		g.Go(func() error { return api.ListenAndServe(gctx, addr, d.grace()) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := g.Wait()
	d.Logger.Info("daemon_stopping")
	return multierr.Combine(err, d.Scheduler.Shutdown(), closeAll(d.closers))
}

func (d *Daemon) grace() time.Duration {
	if d.Config.ShutdownGrace > 0 {
		return d.Config.ShutdownGrace
	}
	return 5 * time.Second
}

func closeAll(cs []io.Closer) error {
	var err error
	for _, c := range cs {
		err = multierr.Append(err, c.Close())
	}
	return err
}
