package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	h := RateLimit(60, 2)(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: want 200 got %d", i, rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429 got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After=%q want 1", got)
	}

	// a different client has its own bucket
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client: want 200 got %d", rr.Code)
	}

	time.Sleep(1100 * time.Millisecond)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200 after refill got %d", rr.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0, 0)(okHandler)
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("disabled limiter blocked request %d", i)
		}
	}
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := TrustedRealIP(nil)(RateLimit(60, 1)(okHandler))
	for i, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "9.9.9.9:1111"
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		want := http.StatusOK
		if i > 0 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Fatalf("request %d (xff %s): want %d got %d", i, xff, want, rr.Code)
		}
	}
}

func TestRateLimit_BehindTrustedProxy(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("ParseProxies: %v", err)
	}
	h := TrustedRealIP(proxies)(RateLimit(60, 1)(okHandler))
	send := func(peer, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = peer
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := send("10.0.0.1:555", "9.9.9.9"); code != http.StatusOK {
		t.Fatalf("first proxied client: %d", code)
	}
	if code := send("10.0.0.1:555", "8.8.8.8"); code != http.StatusOK {
		t.Fatalf("second proxied client shares a bucket with the first: %d", code)
	}
	if code := send("10.0.0.2:555", "9.9.9.9"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: want 429 got %d", code)
	}
}

func TestLimiter_ForgetsIdleClients(t *testing.T) {
	l := newLimiter(60, 1, time.Minute)
	now := time.Now()
	l.reserve("a", now)
	l.reserve("b", now.Add(2*time.Minute))
	if _, ok := l.byIP["a"]; ok {
		t.Fatalf("idle client should be forgotten")
	}
	if _, ok := l.byIP["b"]; !ok {
		t.Fatalf("active client missing")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("clientIP=%q", got)
	}
	r.RemoteAddr = "10.0.0.2"
	if got := clientIP(r); got != "10.0.0.2" {
		t.Fatalf("clientIP without port=%q", got)
	}
}
