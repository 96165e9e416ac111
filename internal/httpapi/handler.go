// Package httpapi exposes the REST API and the SPA fallback.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/user"
	apperrors "github.com/ufukayyildiz/tocwtr2b/internal/errors"
	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
	"github.com/ufukayyildiz/tocwtr2b/internal/logging"
	"github.com/ufukayyildiz/tocwtr2b/internal/metrics"
	"github.com/ufukayyildiz/tocwtr2b/internal/middleware"
	sessionmgr "github.com/ufukayyildiz/tocwtr2b/internal/session"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

// APIPrefix is the namespace for JSON endpoints. Anything outside it falls
// through to the SPA document.
const APIPrefix = "/api"

// Config wires the handler's collaborators. Store and Sessions are
// required; the rest default sensibly.
type Config struct {
	Store    storage.Adapter
	Sessions *sessionmgr.Manager
	Tokens   *sessionmgr.TokenIssuer
	Verifier user.Verifier
	Logger   *logging.Logger
	Metrics  *metrics.Metrics

	Environment string
	ServiceName string

	CORSAllowedOrigins []string
	RateLimitRPS       int
	RateLimitBurst     int
}

// Handler bundles the route handlers around one injected storage adapter.
type Handler struct {
	store     storage.Adapter
	sessions  *sessionmgr.Manager
	tokens    *sessionmgr.TokenIssuer
	verifier  user.Verifier
	log       *logging.Logger
	env       string
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = user.PlainVerifier{}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = sessionmgr.NewTokenIssuer("tr2b-dev-secret", "tr2b")
	}
	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	return &Handler{
		store:     cfg.Store,
		sessions:  cfg.Sessions,
		tokens:    tokens,
		verifier:  verifier,
		log:       log,
		env:       env,
		startTime: time.Now(),
	}
}

// Router builds the route table. Exact verb+path matches come first, the
// API catch-all answers 404 inside the namespace, and the SPA fallback
// claims everything else.
func (h *Handler) Router(m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/env", h.envInfo).Methods(http.MethodGet)
	api.HandleFunc("/data", h.listData).Methods(http.MethodGet)
	api.HandleFunc("/data", h.createData).Methods(http.MethodPost)
	api.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/session", h.getSession).Methods(http.MethodGet)
	api.HandleFunc("/session", h.createSession).Methods(http.MethodPost)
	api.PathPrefix("/").HandlerFunc(h.apiNotFound)

	r.PathPrefix("/").HandlerFunc(h.spaFallback)
	return r
}

// NewServer assembles the full request pipeline around the router. The
// middleware order is fixed and runs for every request regardless of match
// outcome: logging, CORS, rate limiting, metrics, then the error boundary
// around route matching and handlers.
func NewServer(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New("tocwtr2b")
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tocwtr2b"
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 50
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 2 * rps
	}

	h := NewHandler(cfg)

	var handler http.Handler = h.Router(m)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.Metrics(serviceName, m)(handler)
	handler = middleware.NewRateLimiter(rps, burst, log).Handler(handler)
	handler = middleware.NewCORS(cfg.CORSAllowedOrigins).Handler(handler)
	handler = middleware.Logging(log)(handler)
	return handler
}

// storageFailure logs an adapter fault and writes the 500 envelope. The
// retry decorator has already consumed the single permitted retry by the
// time an error reaches a handler.
func (h *Handler) storageFailure(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.log.LogError(r.Context(), err, map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"op":     op,
	})
	if storage.IsUnavailable(err) {
		httputil.WriteServiceError(w, apperrors.Unavailable(err))
		return
	}
	httputil.WriteServiceError(w, apperrors.Internal(err))
}
