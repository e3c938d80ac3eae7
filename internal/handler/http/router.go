package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keelworks/account-service/internal/service"
	"github.com/keelworks/account-service/pkg/health"
	"github.com/keelworks/account-service/pkg/httputil"
	"github.com/keelworks/account-service/pkg/middleware"
)

// NewRouter creates a chi router with all account service routes registered.
func NewRouter(
	accountService *service.AccountService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	cookieConfig CookieConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("account"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the service's JWT manager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := accountService.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			AccountID: claims.AccountID,
			Email:     claims.Email,
		}, nil
	}
	authErr := func(w http.ResponseWriter, r *http.Request, err error) {
		httputil.WriteError(w, r, err, logger)
	}

	authHandler := NewAuthHandler(accountService, cookieConfig, logger)
	accountHandler := NewAccountHandler(accountService, logger)

	// Auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification-code", authHandler.ResendVerificationCode)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator, authErr))
				r.Post("/logout", authHandler.Logout)
				r.Post("/update-account", accountHandler.UpdateProfile)
			})
		})

		// Multipart body, so registered outside the JSON content-type guard.
		r.With(middleware.Auth(tokenValidator, authErr)).Post("/upload-avatar", accountHandler.UploadAvatar)
	})

	// REST-style aliases for the profile endpoints (auth required)
	r.Route("/api/v1/accounts", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator, authErr))

		r.Get("/me", accountHandler.GetProfile)
		r.With(ContentTypeJSON).Patch("/me", accountHandler.UpdateProfile)
		r.Post("/me/avatar", accountHandler.UploadAvatar)
	})

	return r
}
