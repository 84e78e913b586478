package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

const defaultDNSTimeout = 5 * time.Second

// DNS resolution classes.
const (
	DNSResolves    = "RESOLVES"
	DNSNoARecord   = "NO_A_RECORD"
	DNSNXDomain    = "NXDOMAIN"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSSpec struct {
	Host    string
	Timeout time.Duration
}

// DNSStatus is the classified result of resolving one name.
type DNSStatus struct {
	Domain        string
	IPs           []net.IP
	Nameservers   []string
	Class         string
	Timeout       bool
	ResolverError string
}

type DNSChecker struct {
	Resolver *net.Resolver

	host    string
	timeout time.Duration
}

func NewDNSChecker(spec DNSSpec) *DNSChecker {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultDNSTimeout
	}
	return &DNSChecker{
		Resolver: &net.Resolver{}, // OS resolver
		host:     extractHost(spec.Host),
		timeout:  spec.Timeout,
	}
}

func (d *DNSChecker) Kind() Kind { return KindDNS }

func (d *DNSChecker) Probe(ctx context.Context) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	st := d.Resolve(ctx, d.host)
	switch {
	case st.Class == DNSResolves:
		return success(joinIPs(st.IPs), 0)
	case st.Class == DNSInvalidName:
		return failure(ReasonRequest, "invalid name %q", st.Domain)
	case st.Timeout:
		return failure(ReasonTimeout, "lookup %s timed out after %s", st.Domain, d.timeout)
	}
	if st.ResolverError != "" {
		return failure(ReasonResolve, "%s: %s", st.Class, st.ResolverError)
	}
	return failure(ReasonResolve, "%s", st.Class)
}

// Resolve classifies how domain resolves. Only the A/AAAA lookup decides
// health; the NS lookup only refines the failure class.
func (d *DNSChecker) Resolve(ctx context.Context, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}

	ips, err := d.Resolver.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.IPs = ips
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
		var de *net.DNSError
		switch {
		case errors.As(err, &de) && de.IsNotFound:
			s.Class = DNSNXDomain
		case errors.As(err, &de) && (de.IsTemporary || de.Timeout()):
			s.Class = DNSServfail
			s.Timeout = de.Timeout()
		case errors.Is(err, context.DeadlineExceeded):
			s.Class = DNSServfail
			s.Timeout = true
		}
	}
	if s.Timeout || ctx.Err() != nil {
		s.Timeout = true
		if s.Class == "" {
			s.Class = DNSServfail
		}
		return s
	}

	if ns, err := d.Resolver.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		s.Class = DNSNoARecord
	}

	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServfail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func joinIPs(ips []net.IP) string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return strings.Join(out, ",")
}
