package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/repo"
)

type Options struct {
	Keys        apimw.Keys
	RatePerMin  int
	Burst       int
	CORSOrigins []string
	// TrustedProxies may set the client address via forwarding headers.
	TrustedProxies []netip.Prefix
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

type Server struct {
	Logger   *zap.Logger
	Services repo.ServiceStore
	opts     Options
}

func NewServer(l *zap.Logger, services repo.ServiceStore, opts Options) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Services: services, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(apimw.TrustedRealIP(s.opts.TrustedProxies))
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	r.Use(s.cors())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(s.opts.RatePerMin, s.opts.Burst))
		r.Use(apimw.RequireRead(s.opts.Keys))

		r.Get("/services", s.handleListServices)
		r.Get("/services/{id}", s.handleGetService)
		r.With(apimw.RequireAdmin(s.opts.Keys)).Post("/services/{id}/check", s.handleCheckNow)
	})
	return r
}

func (s *Server) cors() func(http.Handler) http.Handler {
	if len(s.opts.CORSOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		MaxAge:         300,
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Services.Snapshots())
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.Services.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
		return
	}
	writeJSON(w, http.StatusOK, svc.Snapshot())
}

// handleCheckNow runs one cycle synchronously. It queues behind any
// scheduled cycle already in flight for the same service.
func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.Services.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
		return
	}
	s.Logger.Info("manual_check", zap.String("service", svc.Name()), zap.String("uid", svc.UID()))
	svc.RunCheckCycle(r.Context())
	writeJSON(w, http.StatusOK, svc.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves the router on addr until ctx is done, then shuts
// down within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("api_listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.Logger.Info("api_stopped")
	return nil
}
