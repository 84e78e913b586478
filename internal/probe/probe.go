package probe

import (
	"context"
	"fmt"
)

// Kind names a probe protocol.
type Kind string

const (
	KindHTTP Kind = "http"
	KindDNS  Kind = "dns"
	KindTCP  Kind = "tcp"
	KindICMP Kind = "icmp"
)

// Reason classifies a failed probe.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonTimeout   Reason = "timeout"
	ReasonBadStatus Reason = "bad_status"
	ReasonTransport Reason = "transport"
	ReasonRequest   Reason = "request"
	ReasonResolve   Reason = "resolve"
	ReasonNoReply   Reason = "no_reply"
)

// Outcome is the binary result of a single probe.
//
// Fields:
//   - StatusCode: protocol status when one was observed (HTTP), 0 otherwise.
//   - Message: human readable detail, e.g. "200 OK" or the transport error.
type Outcome struct {
	OK         bool
	Reason     Reason
	StatusCode int
	Message    string
}

func (o Outcome) String() string {
	if o.OK {
		return "ok: " + o.Message
	}
	if o.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", o.Reason, o.StatusCode, o.Message)
	}
	return fmt.Sprintf("%s: %s", o.Reason, o.Message)
}

func success(msg string, code int) Outcome {
	return Outcome{OK: true, Message: msg, StatusCode: code}
}

func failure(r Reason, format string, args ...any) Outcome {
	return Outcome{Reason: r, Message: fmt.Sprintf(format, args...)}
}

// Checker performs one bounded-time probe against a configured target.
// Implementations make exactly one outbound call per Probe and never retry.
type Checker interface {
	Kind() Kind
	Probe(ctx context.Context) Outcome
}
