package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/keelworks/account-service/internal/service"
	"github.com/keelworks/account-service/pkg/httputil"
	"github.com/keelworks/account-service/pkg/validator"
)

// AuthHandler handles HTTP requests for registration, verification, and
// session endpoints.
type AuthHandler struct {
	service *service.AccountService
	cookies CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AccountService, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for account registration.
type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,min=3,max=20,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// VerifyEmailRequest is the JSON request body for email verification.
type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

// ResendRequest is the JSON request body for resending a verification code.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for token refresh. The token may
// alternatively arrive via the refreshToken cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse wraps account data with tokens.
type AuthResponse struct {
	Account any `json:"account"`
	Tokens  any `json:"tokens"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, err := h.service.Register(r.Context(), service.RegisterInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Message: "account created, check your email for the verification code",
		Data:    account,
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, err := h.service.VerifyEmail(r.Context(), req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Message: "email verified",
		Data:    account,
	})
}

// ResendVerificationCode handles POST /api/v1/auth/resend-verification-code
func (h *AuthHandler) ResendVerificationCode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	message, err := h.service.ResendVerificationCode(r.Context(), req.Email, clientIP(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Already verified is a soft success delivered with a conflict status so
	// clients can redirect to login instead of waiting for an email.
	status := http.StatusOK
	if message == service.AlreadyVerifiedMessage {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, httputil.Response{Message: message})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setSessionCookies(w, h.cookies, tokens.AccessToken, tokens.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Message: "logged in",
		Data:    AuthResponse{Account: account, Tokens: tokens},
	})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RefreshRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if c, err := r.Cookie(RefreshTokenCookie); err == nil {
			refreshToken = c.Value
		}
	}

	account, tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setSessionCookies(w, h.cookies, tokens.AccessToken, tokens.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Message: "session refreshed",
		Data:    AuthResponse{Account: account, Tokens: tokens},
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID := authAccountID(r)

	if err := h.service.Logout(r.Context(), accountID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	clearSessionCookies(w, h.cookies)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Message: "logged out"})
}
