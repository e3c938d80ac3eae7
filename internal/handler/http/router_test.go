package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelworks/account-service/internal/auth"
	"github.com/keelworks/account-service/internal/credentials"
	"github.com/keelworks/account-service/internal/domain"
	mailermock "github.com/keelworks/account-service/internal/mailer/mock"
	"github.com/keelworks/account-service/internal/service"
	"github.com/keelworks/account-service/internal/storage/memory"
	apperrors "github.com/keelworks/account-service/pkg/errors"
	"github.com/keelworks/account-service/pkg/health"
)

// fakeRepo is an in-memory account repository for end-to-end handler tests.
type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return a, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) GetByUserName(_ context.Context, userName string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.UserName, userName) {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) GetByVerificationCode(_ context.Context, code string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.VerificationCode == code {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.IsVerified = true
	a.VerificationCode = ""
	a.VerificationCodeExpiresAt = nil
	return nil
}

func (r *fakeRepo) SetVerificationCode(_ context.Context, id, code string, expiresAt, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.VerificationCode = code
	a.VerificationCodeExpiresAt = &expiresAt
	a.VerificationSentAt = &sentAt
	return nil
}

func (r *fakeRepo) SetSession(_ context.Context, id, refreshToken string, lastLoginAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.RefreshToken = refreshToken
	a.LastLoginAt = &lastLoginAt
	return nil
}

func (r *fakeRepo) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.RefreshToken = refreshToken
	return nil
}

func (r *fakeRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.RefreshToken = ""
	return nil
}

func (r *fakeRepo) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	return a, nil
}

func (r *fakeRepo) SetAvatarURL(_ context.Context, id, avatarURL string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	a.AvatarURL = avatarURL
	return a, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishAccountRegistered(context.Context, *domain.Account) error    { return nil }
func (nopPublisher) PublishAccountVerified(context.Context, *domain.Account) error      { return nil }
func (nopPublisher) PublishAccountAvatarUpdated(context.Context, *domain.Account) error { return nil }

// --- Test server ---

type testServer struct {
	router http.Handler
	repo   *fakeRepo
	sender *mailermock.MockSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newFakeRepo()
	sender := mailermock.NewMockSender(logger)

	svc := service.NewAccountService(
		repo,
		credentials.NewHasher(4),
		auth.NewJWTManager("access-secret-access-secret-1234", "refresh-secret-refresh-secret-12", time.Hour, 24*time.Hour),
		nil, // no limiter in handler tests
		service.DefaultLimits(),
		memory.New("http://cdn.test"),
		sender,
		nopPublisher{},
		24*time.Hour,
		logger,
	)

	router := NewRouter(
		svc,
		health.NewHandler(),
		logger,
		CORSConfig{Environment: "development"},
		CookieConfig{Secure: false, AccessMaxAge: time.Hour, RefreshMaxAge: 24 * time.Hour},
	)

	return &testServer{router: router, repo: repo, sender: sender}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    map[string]any `json:"data"`
	Message string         `json:"message"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// register creates and verifies an account, returning its ID.
func (ts *testServer) registerVerified(t *testing.T, userName, email, password string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"user_name": userName, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	id, _ := env.Data["id"].(string)
	require.NotEmpty(t, id)

	account, err := ts.repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/verify-email", map[string]string{
		"code": account.VerificationCode,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func sessionCookies(rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case AccessTokenCookie:
			access = c
		case RefreshTokenCookie:
			refresh = c
		}
	}
	return access, refresh
}

// ---------------------------------------------------------------------------
// Registration and verification
// ---------------------------------------------------------------------------

func TestRegisterEndpoint_Success(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"user_name": "alice", "email": "alice@x.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "alice", env.Data["user_name"])
	assert.Equal(t, false, env.Data["is_verified"])

	// Sensitive fields never serialize.
	body := rec.Body.String()
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "verification_code")
	assert.NotContains(t, body, "refresh_token")

	require.Len(t, ts.sender.Sent(), 1)
}

func TestRegisterEndpoint_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"user_name": "al", "email": "not-an-email", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "user_name")
	assert.Contains(t, env.Error.Fields, "email")
	assert.Contains(t, env.Error.Fields, "password")
}

func TestRegisterEndpoint_DuplicateUserName(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"user_name": "alice", "email": "other@x.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
}

func TestRegisterEndpoint_RejectsNonJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("user_name=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestVerifyEmailEndpoint_UnknownCode(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/verify-email", map[string]string{"code": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CODE", env.Error.Code)
}

func TestResendEndpoint_AlreadyVerified(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/resend-verification-code", map[string]string{
		"email": "alice@x.com",
	})
	// Soft success: conflict status, success-shaped body, no error envelope.
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, service.AlreadyVerifiedMessage, env.Message)
	assert.Nil(t, env.Error)
}

// ---------------------------------------------------------------------------
// Login and session
// ---------------------------------------------------------------------------

func TestLoginEndpoint_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.NotEmpty(t, access.Value)
	assert.NotEmpty(t, refresh.Value)
}

func TestLoginEndpoint_Unverified(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"user_name": "alice", "email": "alice@x.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_VERIFIED", env.Error.Code)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpoint_CookieFallback(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	_, refresh := sessionCookies(login)
	require.NotNil(t, refresh)

	// No body: the token comes from the cookie.
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, rotated := sessionCookies(rec)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)
}

func TestRefreshEndpoint_RotatedTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	_, refresh := sessionCookies(login)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refresh.Value,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the superseded token must fail.
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refresh.Value,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutEndpoint_ClearsSession(t *testing.T) {
	ts := newTestServer(t)
	id := ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, refresh := sessionCookies(login)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0, "cookie %s should be expired", c.Name)
	}

	account, err := ts.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, account.RefreshToken)

	// The old refresh token is now useless.
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refresh.Value,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutEndpoint_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func TestGetProfileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	rec := ts.do(t, http.MethodGet, "/api/v1/accounts/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "alice", env.Data["user_name"])
	assert.Equal(t, "alice@x.com", env.Data["email"])
}

func TestGetProfileEndpoint_BearerHeader(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGetProfileEndpoint_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/accounts/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	rec := ts.do(t, http.MethodPatch, "/api/v1/accounts/me", map[string]string{
		"first_name": "Alice", "last_name": "Smith",
	}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Alice", env.Data["first_name"])
	assert.Equal(t, "Smith", env.Data["last_name"])
}

func TestUpdateProfileEndpoint_CannotChangeEmail(t *testing.T) {
	ts := newTestServer(t)
	id := ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	// Email only changes through a verification flow; the profile update
	// ignores the field entirely and rejects the now-empty patch.
	rec := ts.do(t, http.MethodPatch, "/api/v1/accounts/me", map[string]string{
		"email": "attacker@evil.test",
	}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	account, err := ts.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", account.Email)
	assert.True(t, account.IsVerified)
}

func TestUpdateProfileEndpoint_EmptyPatch(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	rec := ts.do(t, http.MethodPatch, "/api/v1/accounts/me", map[string]string{}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAvatarEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	avatarURL, _ := env.Data["avatar_url"].(string)
	assert.Contains(t, avatarURL, "avatars/")
}

func TestUpdateAccountRoute(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/update-account", map[string]string{
		"first_name": "Alice",
	}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Alice", env.Data["first_name"])
}

func TestUpdateAccountRoute_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/update-account", map[string]string{
		"first_name": "Alice",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatarRoute(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/upload-avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	avatarURL, _ := env.Data["avatar_url"].(string)
	assert.Contains(t, avatarURL, "avatars/")
}

func TestUploadAvatarEndpoint_MissingFile(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "alice", "alice@x.com", "Secret1!")

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Secret1!",
	})
	access, _ := sessionCookies(login)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
