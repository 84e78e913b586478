package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthwatch"

// PrometheusRecorder implements Recorder on top of a Prometheus registry.
type PrometheusRecorder struct {
	probeDuration *prom.HistogramVec
	probeResults  *prom.CounterVec
	notifications *prom.CounterVec
	up            *prom.GaugeVec
	failsCurrent  *prom.GaugeVec
}

// NewPrometheusRecorder registers the collectors on reg, creating a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		probeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of individual probes",
			Buckets:   prom.DefBuckets,
		}, []string{"service", "uid", "kind"}),
		probeResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "probe_results_total",
			Help:      "Probe outcomes by service",
		}, []string{"service", "uid", "kind", "result"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by event and channel",
		}, []string{"service", "uid", "event", "channel", "result"}),
		up: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "1 when the last probe succeeded, 0 otherwise",
		}, []string{"service", "uid"}),
		failsCurrent: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "service_fails_current",
			Help:      "Consecutive failures since the last success",
		}, []string{"service", "uid"}),
	}
	reg.MustRegister(pr.probeDuration, pr.probeResults, pr.notifications, pr.up, pr.failsCurrent)
	return pr
}

func (p *PrometheusRecorder) ObserveProbe(svc Service, kind string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.probeDuration.WithLabelValues(svc.Name, svc.UID, kind).Observe(d.Seconds())
	p.probeResults.WithLabelValues(svc.Name, svc.UID, kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncNotification(svc Service, event, channel string, result ResultLabel) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(svc.Name, svc.UID, event, channel, string(result)).Inc()
}

func (p *PrometheusRecorder) SetServiceState(svc Service, healthy bool, failsCurrent int) {
	if p == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	p.up.WithLabelValues(svc.Name, svc.UID).Set(v)
	p.failsCurrent.WithLabelValues(svc.Name, svc.UID).Set(float64(failsCurrent))
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
