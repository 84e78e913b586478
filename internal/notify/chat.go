package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/transport"
)

const defaultTimeout = 10 * time.Second

// ChatSpec configures a chat webhook (Discord or Slack).
type ChatSpec struct {
	WebhookURL   string
	Timeout      time.Duration
	Insecure     bool
	ContentBasic string
	ContentRaw   string
}

// Chat posts a message to a chat webhook. A raw payload is sent verbatim;
// otherwise the basic template is rendered into the platform's message field.
type Chat struct {
	Client *http.Client

	kind  Kind
	field string
	spec  ChatSpec
}

func NewDiscord(spec ChatSpec) *Chat { return newChat(KindDiscord, "content", spec) }

func NewSlack(spec ChatSpec) *Chat { return newChat(KindSlack, "text", spec) }

func newChat(kind Kind, field string, spec ChatSpec) *Chat {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTimeout
	}
	return &Chat{
		Client: transport.NewHTTPClient(spec.Timeout, spec.Insecure),
		kind:   kind,
		field:  field,
		spec:   spec,
	}
}

func (c *Chat) Kind() Kind { return c.kind }

func (c *Chat) Deliver(ctx context.Context, ev domain.Event) error {
	body := []byte(c.spec.ContentRaw)
	if c.spec.ContentRaw == "" {
		b, err := json.Marshal(map[string]string{c.field: Render(c.spec.ContentBasic, ev)})
		if err != nil {
			return &DeliveryError{Reason: ReasonPayload, Err: err}
		}
		body = b
	}

	ctx, cancel := context.WithTimeout(ctx, c.spec.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.spec.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Reason: ReasonPayload, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return send(c.Client, req)
}
