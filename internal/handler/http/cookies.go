package http

import (
	"net/http"
	"time"
)

// Cookie names for the token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls how session cookies are written.
type CookieConfig struct {
	// Secure marks cookies as HTTPS-only. Enabled in production.
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// setSessionCookies writes the token pair as httpOnly, SameSite=Strict cookies.
func setSessionCookies(w http.ResponseWriter, cfg CookieConfig, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(cfg.RefreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookies expires both token cookies.
func clearSessionCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
