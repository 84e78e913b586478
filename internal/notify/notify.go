package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/transport"
)

// Kind names a notification channel.
type Kind string

const (
	KindDiscord Kind = "discord"
	KindSlack   Kind = "slack"
	KindHTTP    Kind = "http"
	KindKafka   Kind = "kafka"
	KindNATS    Kind = "nats"
)

// Notifier delivers one outbound notification per call. Implementations do not retry.
type Notifier interface {
	Kind() Kind
	Deliver(ctx context.Context, ev domain.Event) error
}

// Reason classifies a failed delivery for logging.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonBadStatus Reason = "bad_status"
	ReasonTransport Reason = "transport"
	ReasonPayload   Reason = "payload"
)

type DeliveryError struct {
	Reason     Reason
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Reason == ReasonBadStatus:
		return fmt.Sprintf("request failed with status code: %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ReasonOf extracts the delivery reason from err, defaulting to transport.
func ReasonOf(err error) Reason {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ReasonTransport
}

func classify(err error) error {
	if transport.IsTimeout(err) {
		return &DeliveryError{Reason: ReasonTimeout, Err: err}
	}
	return &DeliveryError{Reason: ReasonTransport, Err: err}
}

// send performs req with client and requires a 2xx answer.
func send(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		return &DeliveryError{Reason: ReasonBadStatus, StatusCode: resp.StatusCode}
	}
	return nil
}
