package notify

import (
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
)

const (
	DefaultFailMessage = "🔴 {name} is {status} after {fails_cur} consecutive failure(s): {reason}"
	DefaultPassMessage = "🟢 {name} is {status} again after {fails_cur} failure(s)"
)

// Render expands the {placeholder} tokens in tmpl with values from ev.
// An empty template falls back to the default message for ev.Kind.
func Render(tmpl string, ev domain.Event) string {
	if tmpl == "" {
		tmpl = DefaultPassMessage
		if ev.Kind == domain.EventFail {
			tmpl = DefaultFailMessage
		}
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	r := strings.NewReplacer(
		"{name}", ev.Service,
		"{uid}", ev.UID,
		"{kind}", string(ev.Kind),
		"{status}", ev.Status.String(),
		"{fails_cur}", strconv.Itoa(ev.FailsCurrent),
		"{fails_tot}", strconv.Itoa(ev.FailsTotal),
		"{threshold}", strconv.Itoa(ev.FailThreshold),
		"{reason}", ev.Reason,
		"{time}", at.UTC().Format(time.RFC3339),
	)
	return r.Replace(tmpl)
}

// eventDocument is the structured payload synthesized when no raw body is configured.
type eventDocument struct {
	Message string       `json:"message"`
	Event   domain.Event `json:"event"`
}
