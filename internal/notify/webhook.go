package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/transport"
)

// WebhookSpec configures a generic HTTP webhook.
type WebhookSpec struct {
	Method       string
	URL          string
	Timeout      time.Duration
	Headers      map[string]string
	Body         string
	BodyIsFile   bool
	Insecure     bool
	ContentBasic string
}

type Webhook struct {
	Client *http.Client

	method string
	spec   WebhookSpec
}

func NewWebhook(spec WebhookSpec) *Webhook {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTimeout
	}
	method := strings.ToUpper(strings.TrimSpace(spec.Method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		method = http.MethodPost
	}
	return &Webhook{
		Client: transport.NewHTTPClient(spec.Timeout, spec.Insecure),
		method: method,
		spec:   spec,
	}
}

func (w *Webhook) Kind() Kind { return KindHTTP }

func (w *Webhook) Deliver(ctx context.Context, ev domain.Event) error {
	body, synthesized, err := w.body(ev)
	if err != nil {
		return &DeliveryError{Reason: ReasonPayload, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, w.spec.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, w.method, w.spec.URL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Reason: ReasonPayload, Err: err}
	}
	if synthesized {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range w.spec.Headers {
		req.Header.Set(k, v)
	}
	return send(w.Client, req)
}

func (w *Webhook) body(ev domain.Event) ([]byte, bool, error) {
	if w.spec.Body != "" {
		if !w.spec.BodyIsFile {
			return []byte(w.spec.Body), false, nil
		}
		b, err := os.ReadFile(w.spec.Body)
		return b, false, err
	}
	b, err := json.Marshal(eventDocument{Message: Render(w.spec.ContentBasic, ev), Event: ev})
	return b, true, err
}
