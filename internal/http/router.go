package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/org-mgmt/internal/http/features/admin"
	orgfeature "github.com/tendant/org-mgmt/internal/http/features/org"
	"github.com/tendant/org-mgmt/internal/http/middleware"
	"github.com/tendant/org-mgmt/internal/httputil"
	"github.com/tendant/org-mgmt/pkg/auth"
	orgsvc "github.com/tendant/org-mgmt/pkg/org"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	Registry           *orgsvc.Registry
	Credentials        *orgsvc.CredentialStore
	Tokens             *auth.TokenService
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	MaxRequestBodySize int64
	SecurityHeaders    bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	loginLimiter := middleware.NoRateLimit()
	if cfg.LoginRateLimit > 0 {
		loginLimiter = middleware.RateLimit(middleware.RateLimitConfig{
			Requests: cfg.LoginRateLimit,
			Window:   cfg.LoginRateWindow,
			Logger:   cfg.Logger,
		})
	}

	// Organization routes
	orgHandler := orgfeature.NewHandler(cfg.Registry, cfg.Credentials, cfg.Logger)
	r.Post("/org/create", orgHandler.Create)
	r.Get("/org/get", orgHandler.Get)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Tokens))
		r.Put("/org/update", orgHandler.Update)
		r.Delete("/org/delete", orgHandler.Delete)
	})

	// Administrator authentication routes
	adminHandler := admin.NewHandler(cfg.Credentials, cfg.Tokens, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(loginLimiter)
		r.Post("/admin/login", adminHandler.Login)
	})

	return r
}
