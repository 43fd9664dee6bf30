package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/blockwatch/blockwatch/internal/service/auth"
	"github.com/blockwatch/blockwatch/internal/service/ratelimit"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFrom returns the identity recorded in audit entries: the validated
// token subject when auth is on, otherwise the X-Actor header or "operator".
func actorFrom(r *http.Request) string {
	if actor, ok := r.Context().Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "operator"
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer wires the router: the JSON API under /api/v1 (with rate limiting
// and optional auth on mutating methods) and the EDL endpoint at /ip.txt,
// which has its own token check and stays outside the operator auth.
func NewServer(
	cfg ServerConfig,
	entryUC *usecase.EntryUseCase,
	edlUC *usecase.EDLUseCase,
	settingsUC *usecase.SettingsUseCase,
	authSvc *auth.Service,
	limiter ratelimit.Service,
	logger *logrus.Logger,
) *Server {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))
	router.Use(recoveryMiddleware(logger))
	router.Use(corsMiddleware)

	NewEDLHandler(edlUC).RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimitMiddleware(limiter, logger))
	api.Use(authMiddleware(authSvc))

	NewAuthHandler(authSvc).RegisterRoutes(api)
	NewEntryHandler(entryUC).RegisterRoutes(api)
	NewSettingsHandler(settingsUC).RegisterRoutes(api)
	NewAuditHandler(entryUC).RegisterRoutes(api)

	return &Server{
		server: &http.Server{
			Addr:         cfg.Host + ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Middleware

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

func recoveryMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithField("panic", err).Error("panic recovered")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Actor")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// rateLimitMiddleware throttles mutating requests per client address.
func rateLimitMiddleware(limiter ratelimit.Service, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutation(r) {
				next.ServeHTTP(w, r)
				return
			}
			host := r.RemoteAddr
			if i := strings.LastIndex(host, ":"); i >= 0 {
				host = host[:i]
			}
			allowed, err := limiter.Allow(r.Context(), host)
			if err != nil {
				logger.WithError(err).Error("rate limit check failed")
				respondError(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
				return
			}
			if !allowed {
				respondError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware requires a bearer token on mutating API requests when
// operator auth is configured. The token subject becomes the audit actor.
// The login route itself is exempt.
func authMiddleware(svc *auth.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !svc.Enabled() || !isMutation(r) || strings.HasSuffix(r.URL.Path, "/auth/login") {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				respondError(w, http.StatusUnauthorized, "Authorization required")
				return
			}
			subject, err := svc.Validate(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), actorKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
