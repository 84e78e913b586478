package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCron          = "0 * * * * *"
	DefaultFailThreshold = 3
	DefaultLatencyWindow = 10
	DefaultHTTPTimeout   = 10 // seconds
	DefaultNetTimeout    = 5  // seconds, dns/tcp/icmp
	DefaultAlertTimeout  = 10 // seconds
)

type Config struct {
	DebugLvl      string        `mapstructure:"debug_lvl"`
	LogDir        string        `mapstructure:"log_dir"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
	Status        StatusConfig  `mapstructure:"status"`
	Services      []Service     `mapstructure:"services"`
}

// StatusConfig controls the optional status HTTP API. An empty Addr disables it.
type StatusConfig struct {
	Addr        string   `mapstructure:"addr"`
	ReadKeys    []string `mapstructure:"read_keys"`
	AdminKeys   []string `mapstructure:"admin_keys"`
	RatePerMin  int      `mapstructure:"rate_per_min"`
	Burst       int      `mapstructure:"burst"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For /
	// X-Real-IP headers are honoured. Empty means headers are ignored.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type Service struct {
	Name      string `mapstructure:"name"`
	UID       string `mapstructure:"uid"`
	Check     Check  `mapstructure:"check"`
	AlertPass *Alert `mapstructure:"alert_pass"`
	AlertFail *Alert `mapstructure:"alert_fail"`

	// nil means "not set"; 0 is a meaningful value for both.
	FailsCntToAlert *int `mapstructure:"fails_cnt_to_alert"`
	LatsMaxTrack    *int `mapstructure:"lats_max_track"`
}

// FailThreshold returns fails_cnt_to_alert with its default applied.
func (s Service) FailThreshold() int {
	if s.FailsCntToAlert == nil {
		return DefaultFailThreshold
	}
	return *s.FailsCntToAlert
}

// LatencyWindow returns lats_max_track with its default applied.
func (s Service) LatencyWindow() int {
	if s.LatsMaxTrack == nil {
		return DefaultLatencyWindow
	}
	return *s.LatsMaxTrack
}

type Check struct {
	Cron string     `mapstructure:"cron"`
	Type string     `mapstructure:"type"`
	HTTP *HTTPCheck `mapstructure:"http"`
	DNS  *DNSCheck  `mapstructure:"dns"`
	TCP  *TCPCheck  `mapstructure:"tcp"`
	ICMP *ICMPCheck `mapstructure:"icmp"`
}

type HTTPCheck struct {
	Method     string            `mapstructure:"method"`
	URL        string            `mapstructure:"url"`
	Timeout    int               `mapstructure:"timeout"`
	Body       string            `mapstructure:"body"`
	BodyIsFile bool              `mapstructure:"body_is_file"`
	Headers    map[string]string `mapstructure:"headers"`
	IsInsecure bool              `mapstructure:"is_insecure"`
	OKCodes    []int             `mapstructure:"ok_codes"`
}

type DNSCheck struct {
	Host    string `mapstructure:"host"`
	Timeout int    `mapstructure:"timeout"`
}

type TCPCheck struct {
	Address string `mapstructure:"address"`
	Timeout int    `mapstructure:"timeout"`
}

type ICMPCheck struct {
	Host       string `mapstructure:"host"`
	Timeout    int    `mapstructure:"timeout"`
	Count      int    `mapstructure:"count"`
	Privileged bool   `mapstructure:"privileged"`
}

type Alert struct {
	Type    string      `mapstructure:"type"`
	Discord *ChatAlert  `mapstructure:"discord"`
	Slack   *ChatAlert  `mapstructure:"slack"`
	HTTP    *HTTPAlert  `mapstructure:"http"`
	Kafka   *KafkaAlert `mapstructure:"kafka"`
	NATS    *NATSAlert  `mapstructure:"nats"`
}

type ChatAlert struct {
	WebhookURL   string `mapstructure:"webhook_url"`
	Timeout      int    `mapstructure:"timeout"`
	IsInsecure   bool   `mapstructure:"is_insecure"`
	ContentBasic string `mapstructure:"content_basic"`
	ContentRaw   string `mapstructure:"content_raw"`
}

type HTTPAlert struct {
	Method       string            `mapstructure:"method"`
	URL          string            `mapstructure:"url"`
	Timeout      int               `mapstructure:"timeout"`
	Headers      map[string]string `mapstructure:"headers"`
	Body         string            `mapstructure:"body"`
	BodyIsFile   bool              `mapstructure:"body_is_file"`
	IsInsecure   bool              `mapstructure:"is_insecure"`
	ContentBasic string            `mapstructure:"content_basic"`
}

type KafkaAlert struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	Timeout      int      `mapstructure:"timeout"`
	ContentBasic string   `mapstructure:"content_basic"`
}

type NATSAlert struct {
	URL          string `mapstructure:"url"`
	Subject      string `mapstructure:"subject"`
	Timeout      int    `mapstructure:"timeout"`
	ContentBasic string `mapstructure:"content_basic"`
}

// Load reads the file at path (JSON, YAML or TOML by extension), applies
// HEALTHWATCH_* environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HEALTHWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug_lvl", "info")
	v.SetDefault("log_dir", "")
	v.SetDefault("shutdown_grace", "5s")

	v.SetDefault("status.addr", "")
	v.SetDefault("status.rate_per_min", 120)
	v.SetDefault("status.burst", 20)
}

// applyDefaults resolves per-service defaults that viper cannot express for
// list elements.
func (c *Config) applyDefaults() {
	c.DebugLvl = strings.ToLower(strings.TrimSpace(c.DebugLvl))
	for i := range c.Services {
		s := &c.Services[i]
		if strings.TrimSpace(s.Check.Cron) == "" {
			s.Check.Cron = DefaultCron
		}
		s.Check.Type = strings.ToLower(strings.TrimSpace(s.Check.Type))
		if s.FailsCntToAlert == nil {
			n := DefaultFailThreshold
			s.FailsCntToAlert = &n
		}
		if s.LatsMaxTrack == nil {
			n := DefaultLatencyWindow
			s.LatsMaxTrack = &n
		}

		if h := s.Check.HTTP; h != nil {
			h.Timeout = orDefault(h.Timeout, DefaultHTTPTimeout)
		}
		if d := s.Check.DNS; d != nil {
			d.Timeout = orDefault(d.Timeout, DefaultNetTimeout)
		}
		if t := s.Check.TCP; t != nil {
			t.Timeout = orDefault(t.Timeout, DefaultNetTimeout)
		}
		if p := s.Check.ICMP; p != nil {
			p.Timeout = orDefault(p.Timeout, DefaultNetTimeout)
			p.Count = orDefault(p.Count, 1)
		}

		for _, a := range []*Alert{s.AlertPass, s.AlertFail} {
			if a != nil {
				a.applyDefaults()
			}
		}
	}
}

func (a *Alert) applyDefaults() {
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	for _, c := range []*ChatAlert{a.Discord, a.Slack} {
		if c != nil {
			c.Timeout = orDefault(c.Timeout, DefaultAlertTimeout)
		}
	}
	if a.HTTP != nil {
		a.HTTP.Timeout = orDefault(a.HTTP.Timeout, DefaultAlertTimeout)
	}
	if a.Kafka != nil {
		a.Kafka.Timeout = orDefault(a.Kafka.Timeout, DefaultAlertTimeout)
	}
	if a.NATS != nil {
		a.NATS.Timeout = orDefault(a.NATS.Timeout, DefaultAlertTimeout)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
