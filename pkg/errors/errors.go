package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotVerified         = errors.New("account not verified")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTooSoon             = errors.New("request too soon")
	ErrRateLimited         = errors.New("rate limited")
	ErrEmailDeliveryFailed = errors.New("email delivery failed")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error for a uniqueness violation.
func AlreadyExists(field string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s already exists", field),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// InvalidCredentials creates a 401 error for a failed password check.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid password",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredentials,
	}
}

// NotVerified creates a 403 error for login attempts on unverified accounts.
func NotVerified() *AppError {
	return &AppError{
		Code:    "NOT_VERIFIED",
		Message: "account is not verified",
		Status:  http.StatusForbidden,
		Err:     ErrNotVerified,
	}
}

// InvalidCode creates a 422 error for an unknown verification code.
func InvalidCode() *AppError {
	return &AppError{
		Code:    "INVALID_CODE",
		Message: "invalid verification code, please register",
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrInvalidCode,
	}
}

// CodeExpired creates a 422 error for an expired verification code.
func CodeExpired() *AppError {
	return &AppError{
		Code:    "CODE_EXPIRED",
		Message: "verification code has expired, request a new one",
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrCodeExpired,
	}
}

// TokenExpired creates a 401 error for an expired access or refresh token.
func TokenExpired(kind string) *AppError {
	return &AppError{
		Code:    "TOKEN_EXPIRED",
		Message: fmt.Sprintf("%s token has expired", kind),
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenExpired,
	}
}

// TokenInvalid creates a 403 error for a malformed or badly signed token.
func TokenInvalid(kind string) *AppError {
	return &AppError{
		Code:    "TOKEN_INVALID",
		Message: fmt.Sprintf("invalid %s token", kind),
		Status:  http.StatusForbidden,
		Err:     ErrTokenInvalid,
	}
}

// TooSoon creates a 403 error for requesting a new verification code while
// the current one is still live. The message carries the remaining wait.
func TooSoon(message string) *AppError {
	return &AppError{
		Code:    "TOO_SOON",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrTooSoon,
	}
}

// RateLimited creates a 429 error with a retry-after hint.
func RateLimited(retryAfter time.Duration) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: fmt.Sprintf("too many requests, retry in %s", retryAfter.Round(time.Second)),
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// EmailDeliveryFailed creates a 500 error for a failed verification email send.
func EmailDeliveryFailed(err error) *AppError {
	return &AppError{
		Code:    "EMAIL_DELIVERY_FAILED",
		Message: "failed to send verification email, try again later",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrEmailDeliveryFailed, err),
	}
}

// Internal creates a 500 error. The underlying cause is wrapped for logs but
// never exposed in the message.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotVerified), errors.Is(err, ErrTooSoon), errors.Is(err, ErrTokenInvalid):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrCodeExpired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
