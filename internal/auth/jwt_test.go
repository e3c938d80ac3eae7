package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keelworks/account-service/pkg/errors"
)

const (
	testAccessSecret  = "test-access-secret-test-access-secret"
	testRefreshSecret = "test-refresh-secret-test-refresh-secret"
)

func newTestManager(accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return NewJWTManager(testAccessSecret, testRefreshSecret, accessExpiry, refreshExpiry)
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, err := m.GenerateAccessToken("a-1234", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a-1234", claims.AccountID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "a-1234", claims.Subject)
}

func TestJWTManager_RefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, err := m.GenerateRefreshToken("a-1234")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a-1234", claims.AccountID)
}

func TestJWTManager_ExpiredAccessToken(t *testing.T) {
	m := newTestManager(-time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken("a-1234", "alice@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired), "expected ErrTokenExpired, got: %v", err)
}

func TestJWTManager_ExpiredRefreshToken(t *testing.T) {
	m := newTestManager(time.Hour, -time.Minute)

	token, err := m.GenerateRefreshToken("a-1234")
	require.NoError(t, err)

	_, err = m.ValidateRefreshToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
}

func TestJWTManager_MalformedToken(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	_, err := m.ValidateAccessToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid), "expected ErrTokenInvalid, got: %v", err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)
	other := NewJWTManager("other-secret-other-secret-other!", "another-secret-another-secret!!", time.Hour, 24*time.Hour)

	token, err := m.GenerateAccessToken("a-1234", "alice@example.com")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}

func TestJWTManager_AccessTokenRejectedByRefreshValidator(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	// Separate secrets mean the two kinds are not interchangeable.
	accessToken, err := m.GenerateAccessToken("a-1234", "alice@example.com")
	require.NoError(t, err)

	_, err = m.ValidateRefreshToken(accessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
}
