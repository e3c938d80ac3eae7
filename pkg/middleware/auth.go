package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const (
	accountIDKey contextKeyType = "account_id"
	emailKey     contextKeyType = "email"
)

// AccessTokenCookie is the cookie the auth middleware reads when no
// Authorization header is present.
const AccessTokenCookie = "accessToken"

// Claims represents the identity extracted by the auth middleware.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// TokenValidator validates an access token and returns the caller identity.
// The returned error is written as the response body, so implementations
// should return an AppError with the right status (expired vs malformed).
type TokenValidator func(token string) (*Claims, error)

// Auth validates the access token from the accessToken cookie or the
// Authorization bearer header and injects the caller identity into context.
// Verification is stateless; handlers resolve the account themselves.
func Auth(validate TokenValidator, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeAuthError(w, "access token is required")
				return
			}

			claims, err := validate(token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the access token from the cookie first, then from the
// Authorization header.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// AccountIDFromContext extracts the authenticated account ID from the request context.
func AccountIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(accountIDKey).(string); ok {
		return id
	}
	return ""
}

// EmailFromContext extracts the authenticated email from the request context.
func EmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
