package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/mkruchkov/accountd/internal/account"
	"github.com/mkruchkov/accountd/internal/config"
	"github.com/mkruchkov/accountd/internal/identity"
	"github.com/mkruchkov/accountd/internal/session"
	"github.com/mkruchkov/accountd/internal/store"
)

// NewRouter creates the HTTP router
func NewRouter(
	cfg *config.Config,
	logger zerolog.Logger,
	resolver *account.Resolver,
	svc *account.Service,
	gate *account.Gate,
	issuer *session.Issuer,
	oauthClient *identity.Client,
	accounts store.AccountStore,
	oauthSessions store.OAuthSessionStore,
) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(SecurityHeadersMiddleware(cfg))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	generalLimiter := NewRateLimiter(rate.Limit(20), 40)
	generalLimiter.CleanupOldLimiters()
	authLimiter := NewRateLimiter(rate.Limit(1), 5)
	authLimiter.CleanupOldLimiters()

	r.Use(RateLimitMiddleware(generalLimiter))

	requireAuth := AuthMiddleware(issuer, accounts)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(authLimiter))

			r.Post("/auth/signup", HandleSignup(svc, issuer, cfg))
			r.Post("/auth/login", HandleLogin(resolver, issuer, cfg))
			r.Post("/auth/password-reset/request", HandleRequestPasswordReset(svc))
			r.Post("/auth/password-reset/confirm", HandleConfirmPasswordReset(svc))

			if oauthClient != nil {
				r.Get("/auth/oauth/authorize", HandleOAuthAuthorize(cfg, oauthClient, oauthSessions, logger))
				r.Get("/auth/oauth/callback", HandleOAuthCallback(cfg, oauthClient, resolver, issuer, oauthSessions, logger))
				r.Post("/auth/oauth/link", HandleOAuthLink(cfg, svc, issuer, oauthSessions, accounts, logger))
			}
		})

		r.Post("/auth/logout", HandleLogout())

		// Incomplete accounts are authenticated but constrained to the
		// completion sub-flow.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/auth/complete-registration", HandleGetCompletionForm(gate))
			r.Post("/auth/complete-registration", HandleCompleteRegistration(gate))
			r.Get("/user/me", HandleGetCurrentAccount())
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(RequireComplete)

			r.Put("/user/profile", HandleUpdateProfile(svc))
			r.Post("/user/password", HandleChangePassword(svc))
		})
	})

	// Prometheus metrics endpoint (no auth required)
	r.Method("GET", "/metrics", promhttp.Handler())

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
