package handler

import (
	"net/http"
)

// RouterConfig wires the handlers and middleware into the API router.
type RouterConfig struct {
	Audit  *AuditHandler
	Health *HealthHandler
	// AdminGuard protects the read and mutation routes. nil leaves them open.
	AdminGuard func(http.Handler) http.Handler
	// SubmitLimiter throttles POST /api/audit. nil disables throttling.
	SubmitLimiter *RateLimiter
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the full HTTP handler, middleware included.
func NewRouter(cfg RouterConfig) http.Handler {
	guard := cfg.AdminGuard
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	var submit http.Handler = http.HandlerFunc(cfg.Audit.Submit)
	if cfg.SubmitLimiter != nil {
		submit = cfg.SubmitLimiter.Middleware(submit)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", cfg.Health.Health)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.Handle("POST /api/audit", submit)
	mux.Handle("GET /api/audit", guard(http.HandlerFunc(cfg.Audit.List)))
	mux.Handle("PATCH /api/audit", guard(http.HandlerFunc(cfg.Audit.Update)))
	mux.Handle("DELETE /api/audit", guard(http.HandlerFunc(cfg.Audit.Delete)))
	mux.Handle("GET /api/audit/{id}", guard(http.HandlerFunc(cfg.Audit.Get)))
	mux.Handle("PATCH /api/audit/{id}", guard(http.HandlerFunc(cfg.Audit.Update)))
	mux.Handle("DELETE /api/audit/{id}", guard(http.HandlerFunc(cfg.Audit.Delete)))
	mux.HandleFunc("/api/audit", cfg.Audit.MethodNotAllowed)
	mux.HandleFunc("/api/audit/{id}", cfg.Audit.MethodNotAllowed)

	mux.HandleFunc("/", NotFound)

	return RequestLogger(Recover(CORS(SecurityHeaders(mux))))
}

// CORS allows any origin. Preflight requests are answered here and never
// reach the routes.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
