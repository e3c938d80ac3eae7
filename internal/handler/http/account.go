package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/keelworks/account-service/internal/domain"
	"github.com/keelworks/account-service/internal/service"
	"github.com/keelworks/account-service/internal/storage"
	"github.com/keelworks/account-service/pkg/httputil"
	"github.com/keelworks/account-service/pkg/middleware"
	"github.com/keelworks/account-service/pkg/validator"
)

// maxAvatarSize caps avatar uploads at 5MB.
const maxAvatarSize = 5 << 20

// AccountHandler handles HTTP requests for profile endpoints.
type AccountHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// UpdateProfileRequest is the JSON request body for a profile update. At
// least one field must be present. Email is not part of this surface: it can
// only change through a verification flow.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
}

// GetProfile handles GET /api/v1/accounts/me
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), authAccountID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// UpdateProfile handles PATCH /api/v1/accounts/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateProfileRequest
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

	account, err := h.service.UpdateProfile(r.Context(), authAccountID(r), domain.ProfilePatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Message: "profile updated",
		Data:    account,
	})
}

// UploadAvatar handles POST /api/v1/accounts/me/avatar with a multipart
// "avatar" file field.
func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "avatar file is required"},
		})
		return
	}
	defer func() { _ = file.Close() }()

	account, err := h.service.UpdateAvatar(r.Context(), authAccountID(r), service.UpdateAvatarInput{
		Upload: &storage.UploadInput{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		},
		ClientIP: clientIP(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Message: "avatar updated",
		Data:    account,
	})
}

// authAccountID returns the authenticated account ID placed in context by the
// auth middleware.
func authAccountID(r *http.Request) string {
	return middleware.AccountIDFromContext(r.Context())
}
