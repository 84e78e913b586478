package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.uber.org/multierr"

	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/scheduler"
)

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var err error
	if !levels[c.DebugLvl] {
		err = multierr.Append(err, fmt.Errorf("debug_lvl: unknown level %q", c.DebugLvl))
	}
	if c.ShutdownGrace < 0 {
		err = multierr.Append(err, errors.New("shutdown_grace: must be >= 0"))
	}
	if c.Status.Addr != "" {
		if _, _, e := net.SplitHostPort(c.Status.Addr); e != nil {
			err = multierr.Append(err, fmt.Errorf("status.addr: %w", e))
		}
	}
	if _, e := apimw.ParseProxies(c.Status.TrustedProxies); e != nil {
		err = multierr.Append(err, fmt.Errorf("status.trusted_proxies: %w", e))
	}
	if len(c.Services) == 0 {
		err = multierr.Append(err, errors.New("services: at least one service is required"))
	}

	uids := map[string]int{}
	for i, s := range c.Services {
		err = multierr.Append(err, s.validate(fmt.Sprintf("services[%d]", i)))
		if s.UID == "" {
			continue
		}
		if j, dup := uids[s.UID]; dup {
			err = multierr.Append(err, fmt.Errorf("services[%d].uid: %q already used by services[%d]", i, s.UID, j))
		}
		uids[s.UID] = i
	}
	return err
}

func (s Service) validate(at string) error {
	var err error
	if strings.TrimSpace(s.Name) == "" {
		err = multierr.Append(err, fmt.Errorf("%s.name: required", at))
	}
	if s.FailThreshold() < 0 {
		err = multierr.Append(err, fmt.Errorf("%s.fails_cnt_to_alert: must be >= 0", at))
	}
	if s.LatencyWindow() < 0 {
		err = multierr.Append(err, fmt.Errorf("%s.lats_max_track: must be >= 0", at))
	}
	if e := scheduler.ValidateCron(s.Check.Cron); e != nil {
		err = multierr.Append(err, fmt.Errorf("%s.check.cron: %w", at, e))
	}
	err = multierr.Append(err, s.Check.validate(at+".check"))
	if s.AlertPass != nil {
		err = multierr.Append(err, s.AlertPass.validate(at+".alert_pass"))
	}
	if s.AlertFail != nil {
		err = multierr.Append(err, s.AlertFail.validate(at+".alert_fail"))
	}
	return err
}

func (c Check) validate(at string) error {
	switch c.Type {
	case "http":
		if c.HTTP == nil {
			return fmt.Errorf("%s.http: settings required for type http", at)
		}
		return requireURL(at+".http.url", c.HTTP.URL)
	case "dns":
		if c.DNS == nil || strings.TrimSpace(c.DNS.Host) == "" {
			return fmt.Errorf("%s.dns.host: required for type dns", at)
		}
	case "tcp":
		if c.TCP == nil {
			return fmt.Errorf("%s.tcp: settings required for type tcp", at)
		}
		if _, _, e := net.SplitHostPort(c.TCP.Address); e != nil {
			return fmt.Errorf("%s.tcp.address: %w", at, e)
		}
	case "icmp":
		if c.ICMP == nil || strings.TrimSpace(c.ICMP.Host) == "" {
			return fmt.Errorf("%s.icmp.host: required for type icmp", at)
		}
	default:
		return fmt.Errorf("%s.type: unknown check type %q", at, c.Type)
	}
	return nil
}

func (a Alert) validate(at string) error {
	switch a.Type {
	case "discord", "slack":
		c := a.Discord
		if a.Type == "slack" {
			c = a.Slack
		}
		if c == nil {
			return fmt.Errorf("%s.%s: settings required for type %s", at, a.Type, a.Type)
		}
		return requireURL(fmt.Sprintf("%s.%s.webhook_url", at, a.Type), c.WebhookURL)
	case "http":
		if a.HTTP == nil {
			return fmt.Errorf("%s.http: settings required for type http", at)
		}
		return requireURL(at+".http.url", a.HTTP.URL)
	case "kafka":
		var err error
		if a.Kafka == nil || len(a.Kafka.Brokers) == 0 {
			err = multierr.Append(err, fmt.Errorf("%s.kafka.brokers: at least one broker required", at))
		}
		if a.Kafka == nil || a.Kafka.Topic == "" {
			err = multierr.Append(err, fmt.Errorf("%s.kafka.topic: required", at))
		}
		return err
	case "nats":
		var err error
		if a.NATS == nil || a.NATS.URL == "" {
			err = multierr.Append(err, fmt.Errorf("%s.nats.url: required", at))
		}
		if a.NATS == nil || a.NATS.Subject == "" {
			err = multierr.Append(err, fmt.Errorf("%s.nats.subject: required", at))
		}
		return err
	}
	return fmt.Errorf("%s.type: unknown alert type %q", at, a.Type)
}

func requireURL(field, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s: absolute http(s) URL required, got %q", field, raw)
	}
	return nil
}
