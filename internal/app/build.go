package app

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/config"
	"github.com/hamed0406/healthwatch/internal/metrics"
	"github.com/hamed0406/healthwatch/internal/monitor"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/probe"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
	"github.com/hamed0406/healthwatch/internal/transport"
)

// BuildServices turns every configured service into a monitor.Service.
// Services without a uid get a random one. The returned closers release
// notifier connections.
func BuildServices(cfg *config.Config, logger *zap.Logger, rec metrics.Recorder) (*memory.Store, []io.Closer, error) {
	store := memory.New()
	var closers []io.Closer

	for i, sc := range cfg.Services {
		checker, err := probe.New(ProbeSpec(sc.Check))
		if err != nil {
			return nil, closers, fmt.Errorf("services[%d] %s: %w", i, sc.Name, err)
		}
		pass, err := NewNotifier(sc.AlertPass)
		if err != nil {
			return nil, closers, fmt.Errorf("services[%d] %s alert_pass: %w", i, sc.Name, err)
		}
		closers = appendCloser(closers, pass)
		fail, err := NewNotifier(sc.AlertFail)
		if err != nil {
			return nil, closers, fmt.Errorf("services[%d] %s alert_fail: %w", i, sc.Name, err)
		}
		closers = appendCloser(closers, fail)

		uid := sc.UID
		if uid == "" {
			uid = uuid.NewString()
		}
		svc, err := monitor.New(monitor.Options{
			Name:          sc.Name,
			UID:           uid,
			Cron:          sc.Check.Cron,
			Checker:       checker,
			PassNotifier:  pass,
			FailNotifier:  fail,
			FailThreshold: sc.FailThreshold(),
			LatencyWindow: sc.LatencyWindow(),
			Logger:        logger,
			Metrics:       rec,
		})
		if err != nil {
			return nil, closers, fmt.Errorf("services[%d]: %w", i, err)
		}
		if err := store.Add(svc); err != nil {
			return nil, closers, err
		}
	}
	return store, closers, nil
}

func appendCloser(cs []io.Closer, n notify.Notifier) []io.Closer {
	if c, ok := n.(io.Closer); ok {
		return append(cs, c)
	}
	return cs
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// ProbeSpec maps a check block onto the probe variant it selects.
func ProbeSpec(c config.Check) probe.Spec {
	spec := probe.Spec{Kind: probe.Kind(c.Type)}
	switch {
	case c.HTTP != nil && spec.Kind == probe.KindHTTP:
		spec.HTTP = &probe.HTTPSpec{
			URL:        c.HTTP.URL,
			Method:     c.HTTP.Method,
			Timeout:    transport.Seconds(c.HTTP.Timeout, secs(config.DefaultHTTPTimeout)),
			Body:       c.HTTP.Body,
			BodyIsFile: c.HTTP.BodyIsFile,
			Headers:    c.HTTP.Headers,
			Insecure:   c.HTTP.IsInsecure,
			OKCodes:    c.HTTP.OKCodes,
		}
	case c.DNS != nil && spec.Kind == probe.KindDNS:
		spec.DNS = &probe.DNSSpec{
			Host:    c.DNS.Host,
			Timeout: transport.Seconds(c.DNS.Timeout, secs(config.DefaultNetTimeout)),
		}
	case c.TCP != nil && spec.Kind == probe.KindTCP:
		spec.TCP = &probe.TCPSpec{
			Address: c.TCP.Address,
			Timeout: transport.Seconds(c.TCP.Timeout, secs(config.DefaultNetTimeout)),
		}
	case c.ICMP != nil && spec.Kind == probe.KindICMP:
		spec.ICMP = &probe.ICMPSpec{
			Host:       c.ICMP.Host,
			Timeout:    transport.Seconds(c.ICMP.Timeout, secs(config.DefaultNetTimeout)),
			Count:      c.ICMP.Count,
			Privileged: c.ICMP.Privileged,
		}
	}
	return spec
}

// NewNotifier builds the notifier an alert block selects. A nil block
// yields a nil notifier.
func NewNotifier(a *config.Alert) (notify.Notifier, error) {
	if a == nil {
		return nil, nil
	}
	timeout := func(n int) time.Duration { return transport.Seconds(n, secs(config.DefaultAlertTimeout)) }
	chat := func(c *config.ChatAlert) notify.ChatSpec {
		return notify.ChatSpec{
			WebhookURL:   c.WebhookURL,
			Timeout:      timeout(c.Timeout),
			Insecure:     c.IsInsecure,
			ContentBasic: c.ContentBasic,
			ContentRaw:   c.ContentRaw,
		}
	}

	switch notify.Kind(a.Type) {
	case notify.KindDiscord:
		if a.Discord != nil {
			return notify.NewDiscord(chat(a.Discord)), nil
		}
	case notify.KindSlack:
		if a.Slack != nil {
			return notify.NewSlack(chat(a.Slack)), nil
		}
	case notify.KindHTTP:
		if h := a.HTTP; h != nil {
			return notify.NewWebhook(notify.WebhookSpec{
				Method:       h.Method,
				URL:          h.URL,
				Timeout:      timeout(h.Timeout),
				Headers:      h.Headers,
				Body:         h.Body,
				BodyIsFile:   h.BodyIsFile,
				Insecure:     h.IsInsecure,
				ContentBasic: h.ContentBasic,
			}), nil
		}
	case notify.KindKafka:
		if k := a.Kafka; k != nil {
			return notify.NewKafka(notify.KafkaSpec{
				Brokers:      k.Brokers,
				Topic:        k.Topic,
				Timeout:      timeout(k.Timeout),
				ContentBasic: k.ContentBasic,
			}), nil
		}
	case notify.KindNATS:
		if n := a.NATS; n != nil {
			return notify.NewNATS(notify.NATSSpec{
				URL:          n.URL,
				Subject:      n.Subject,
				Timeout:      timeout(n.Timeout),
				ContentBasic: n.ContentBasic,
			}), nil
		}
	default:
		return nil, fmt.Errorf("unknown alert type %q", a.Type)
	}
	return nil, fmt.Errorf("missing %s settings", a.Type)
}
