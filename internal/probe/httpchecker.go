package probe

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/healthwatch/internal/transport"
)

// DefaultOKCodes are the HTTP statuses treated as healthy when none are configured.
var DefaultOKCodes = []int{200, 201, 202, 203, 204, 205, 206}

const defaultHTTPTimeout = 10 * time.Second

type HTTPSpec struct {
	URL        string
	Method     string
	Timeout    time.Duration
	Body       string
	BodyIsFile bool
	Headers    map[string]string
	Insecure   bool
	OKCodes    []int
}

type HTTPChecker struct {
	Client *http.Client

	spec   HTTPSpec
	method string
	ok     map[int]struct{}
}

func NewHTTPChecker(spec HTTPSpec) *HTTPChecker {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultHTTPTimeout
	}
	codes := spec.OKCodes
	if len(codes) == 0 {
		codes = DefaultOKCodes
	}
	ok := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		ok[c] = struct{}{}
	}
	return &HTTPChecker{
		Client: transport.NewHTTPClient(spec.Timeout, spec.Insecure),
		spec:   spec,
		method: NormalizeMethod(spec.Method),
		ok:     ok,
	}
}

// NormalizeMethod upper-cases m and maps anything unsupported to GET.
func NormalizeMethod(m string) string {
	switch up := strings.ToUpper(strings.TrimSpace(m)); up {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodHead:
		return up
	}
	return http.MethodGet
}

func (h *HTTPChecker) Kind() Kind { return KindHTTP }

func (h *HTTPChecker) Probe(ctx context.Context) Outcome {
	ctx, cancel := context.WithTimeout(ctx, h.spec.Timeout)
	defer cancel()

	body, err := h.body()
	if err != nil {
		return failure(ReasonRequest, "read body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, h.method, h.spec.URL, body)
	if err != nil {
		return failure(ReasonRequest, "%v", err)
	}
	for k, v := range h.spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		if transport.IsTimeout(err) {
			return failure(ReasonTimeout, "request timed out after %s", h.spec.Timeout)
		}
		return failure(ReasonTransport, "%v", err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if _, ok := h.ok[resp.StatusCode]; !ok {
		return Outcome{Reason: ReasonBadStatus, StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return success(resp.Status, resp.StatusCode)
}

func (h *HTTPChecker) body() (io.Reader, error) {
	if h.spec.Body == "" {
		return nil, nil
	}
	if !h.spec.BodyIsFile {
		return strings.NewReader(h.spec.Body), nil
	}
	b, err := os.ReadFile(h.spec.Body)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(string(b)), nil
}
