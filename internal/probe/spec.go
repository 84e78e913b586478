package probe

import (
	"errors"
	"fmt"
)

// Spec is the tagged configuration of one checker. Exactly the field matching
// Kind is read.
type Spec struct {
	Kind Kind
	HTTP *HTTPSpec
	DNS  *DNSSpec
	TCP  *TCPSpec
	ICMP *ICMPSpec
}

var ErrMissingSettings = errors.New("probe: missing settings for kind")

// New builds the Checker for spec.Kind.
func New(spec Spec) (Checker, error) {
	switch spec.Kind {
	case KindHTTP:
		if spec.HTTP == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingSettings, spec.Kind)
		}
		return NewHTTPChecker(*spec.HTTP), nil
	case KindDNS:
		if spec.DNS == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingSettings, spec.Kind)
		}
		return NewDNSChecker(*spec.DNS), nil
	case KindTCP:
		if spec.TCP == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingSettings, spec.Kind)
		}
		return NewTCPChecker(*spec.TCP), nil
	case KindICMP:
		if spec.ICMP == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingSettings, spec.Kind)
		}
		return NewICMPChecker(*spec.ICMP), nil
	}
	return nil, fmt.Errorf("probe: unknown check type %q", spec.Kind)
}
