// Package server exposes the reconciliation service over HTTP: the
// dashboard API, the webhook intake, and static file serving.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ordertrack/internal/monitoring"
	"github.com/sells-group/ordertrack/internal/tracker"
)

// Options configures the HTTP layer.
type Options struct {
	Service        *tracker.Service
	Metrics        *monitoring.Collector // optional
	StaticDir      string                // "" disables static serving
	WebhookSecret  string                // "" disables webhook auth
	AllowedOrigins []string
	WebhookRPS     float64
	WebhookBurst   int
}

type handler struct {
	svc     *tracker.Service
	metrics *monitoring.Collector
	secret  string
	limiter *rate.Limiter
}

// New builds the router.
func New(opts Options) http.Handler {
	h := &handler{
		svc:     opts.Service,
		metrics: opts.Metrics,
		secret:  opts.WebhookSecret,
	}
	if opts.WebhookRPS > 0 {
		burst := opts.WebhookBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(opts.WebhookRPS), burst)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Webhook-Secret"},
	}))

	r.Get("/api/health", h.health)
	r.Get("/api/orders", h.orders)
	r.Get("/api/records", h.records)
	r.Post("/api/webhook", h.webhook)
	r.Handle("/metrics", h.metrics.Handler())

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                 true,
		"time":               time.Now().UTC().Format(time.RFC3339),
		"last_live_event_at": h.svc.LastEventAt(),
		"metrics":            h.metrics.Collect(),
	})
}

func (h *handler) orders(w http.ResponseWriter, r *http.Request) {
	view := tracker.View(r.URL.Query().Get("view"))

	snap, err := h.svc.GetClassifiedOrders(r.Context(), view)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownView) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown_view", "detail": err.Error()})
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) records(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetRecords(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		h.metrics.WebhookRejected()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate_limited"})
		return
	}

	if !h.authOK(r) {
		h.metrics.WebhookRejected()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	payload, err := parseBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_payload", "detail": err.Error()})
		return
	}

	result, err := h.svc.IngestEvent(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"event_id":         result.EventID,
		"received_at":      result.ReceivedAt,
		"accepted_entries": result.AcceptedEntries,
		"order_keys":       result.OrderKeys,
		"summary":          result.Summary,
	})
}

// authOK accepts the shared secret via query parameter, dedicated header, or
// bearer token; auth is disabled when no secret is configured. Form
// processors differ in which of the three they can send.
func (h *handler) authOK(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	if r.URL.Query().Get("secret") == h.secret {
		return true
	}
	if r.Header.Get("X-Webhook-Secret") == h.secret {
		return true
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	return len(auth) > len(prefix) && auth[:len(prefix)] == prefix && auth[len(prefix):] == h.secret
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
