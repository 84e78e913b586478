package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hamed0406/healthwatch/internal/domain"
)

type NATSSpec struct {
	URL          string
	Subject      string
	Timeout      time.Duration
	ContentBasic string
}

// NATS publishes each event as one JSON message. The connection is opened on
// first delivery and reused afterwards.
type NATS struct {
	spec NATSSpec

	mu   sync.Mutex
	conn *nats.Conn
}

func NewNATS(spec NATSSpec) *NATS {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTimeout
	}
	return &NATS{spec: spec}
}

func (n *NATS) Kind() Kind { return KindNATS }

func (n *NATS) Deliver(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(eventDocument{Message: Render(n.spec.ContentBasic, ev), Event: ev})
	if err != nil {
		return &DeliveryError{Reason: ReasonPayload, Err: err}
	}

	conn, err := n.connect()
	if err != nil {
		return classify(err)
	}
	if err := conn.Publish(n.spec.Subject, payload); err != nil {
		return classify(err)
	}

	timeout := n.spec.Timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if err := conn.FlushTimeout(timeout); err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return &DeliveryError{Reason: ReasonTimeout, Err: err}
		}
		return classify(err)
	}
	return nil
}

func (n *NATS) connect() (*nats.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil && !n.conn.IsClosed() {
		return n.conn, nil
	}
	conn, err := nats.Connect(n.spec.URL, nats.Name("healthwatch"), nats.Timeout(n.spec.Timeout))
	if err != nil {
		return nil, err
	}
	n.conn = conn
	return conn, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	return nil
}
