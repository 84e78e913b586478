package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ping/ping"
)

const defaultICMPTimeout = 5 * time.Second

type ICMPSpec struct {
	Host       string
	Timeout    time.Duration
	Count      int
	Privileged bool
}

type ipResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ICMPChecker sends Count echo requests and succeeds on the first reply.
// Unprivileged mode needs net.ipv4.ping_group_range to include the process group.
// Name resolution and the echo exchange share one Timeout budget.
type ICMPChecker struct {
	spec     ICMPSpec
	resolver ipResolver
}

func NewICMPChecker(spec ICMPSpec) *ICMPChecker {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultICMPTimeout
	}
	if spec.Count <= 0 {
		spec.Count = 1
	}
	return &ICMPChecker{spec: spec, resolver: net.DefaultResolver}
}

func (c *ICMPChecker) Kind() Kind { return KindICMP }

func (c *ICMPChecker) Probe(ctx context.Context) Outcome {
	deadline := time.Now().Add(c.spec.Timeout)
	lookupCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	addrs, err := c.resolver.LookupIPAddr(lookupCtx, c.spec.Host)
	switch {
	case lookupCtx.Err() != nil:
		return failure(ReasonTimeout, "resolve %s: %v", c.spec.Host, lookupCtx.Err())
	case err != nil:
		return failure(ReasonResolve, "%v", err)
	case len(addrs) == 0:
		return failure(ReasonResolve, "no addresses for %s", c.spec.Host)
	}

	left := time.Until(deadline)
	if left <= 0 {
		return failure(ReasonTimeout, "resolve %s used the whole %s budget", c.spec.Host, c.spec.Timeout)
	}

	ip := addrs[0]
	p := ping.New(ip.IP.String())
	p.SetIPAddr(&ip)
	p.Count = c.spec.Count
	p.Timeout = left
	p.SetPrivileged(c.spec.Privileged)

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		p.Stop()
		<-done
		return failure(ReasonTimeout, "ping %s cancelled: %v", c.spec.Host, ctx.Err())
	}
	if err != nil {
		return failure(ReasonTransport, "%v", err)
	}

	st := p.Statistics()
	if st.PacketsRecv == 0 {
		return failure(ReasonNoReply, "no reply from %s within %s", c.spec.Host, c.spec.Timeout)
	}
	return success(fmt.Sprintf("%d/%d replies, avg %s", st.PacketsRecv, st.PacketsSent, st.AvgRtt), 0)
}
