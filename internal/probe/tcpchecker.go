package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/healthwatch/internal/transport"
)

const defaultTCPTimeout = 5 * time.Second

type TCPSpec struct {
	Address string
	Timeout time.Duration
}

// TCPChecker succeeds when a TCP connection to Address can be opened.
type TCPChecker struct {
	spec   TCPSpec
	dialer net.Dialer
}

func NewTCPChecker(spec TCPSpec) *TCPChecker {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTCPTimeout
	}
	return &TCPChecker{spec: spec, dialer: net.Dialer{Timeout: spec.Timeout}}
}

func (c *TCPChecker) Kind() Kind { return KindTCP }

func (c *TCPChecker) Probe(ctx context.Context) Outcome {
	if _, _, err := net.SplitHostPort(c.spec.Address); err != nil {
		return failure(ReasonRequest, "%v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.spec.Timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.spec.Address)
	if err != nil {
		if transport.IsTimeout(err) {
			return failure(ReasonTimeout, "connect %s timed out after %s", c.spec.Address, c.spec.Timeout)
		}
		return failure(ReasonTransport, "%v", err)
	}
	remote := conn.RemoteAddr().String()
	_ = conn.Close()
	return success("connected "+remote, 0)
}
