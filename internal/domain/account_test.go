package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_VerificationPending(t *testing.T) {
	a := &Account{IsVerified: false, VerificationCode: "code"}
	assert.True(t, a.VerificationPending())

	a.IsVerified = true
	assert.False(t, a.VerificationPending())

	a = &Account{IsVerified: false}
	assert.False(t, a.VerificationPending())
}

func TestAccount_VerificationExpired(t *testing.T) {
	now := time.Now().UTC()

	a := &Account{}
	assert.False(t, a.VerificationExpired(now), "no expiry set means not expired")

	past := now.Add(-time.Minute)
	a.VerificationCodeExpiresAt = &past
	assert.True(t, a.VerificationExpired(now))

	future := now.Add(time.Minute)
	a.VerificationCodeExpiresAt = &future
	assert.False(t, a.VerificationExpired(now))
}

func TestAccount_JSONHidesSensitiveFields(t *testing.T) {
	now := time.Now().UTC()
	a := &Account{
		ID:                 "a-1",
		UserName:           "alice",
		Email:              "alice@x.com",
		PasswordHash:       "hash",
		VerificationCode:   "code",
		RefreshToken:       "token",
		PasswordResetToken: "reset",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	b, err := json.Marshal(a)
	require.NoError(t, err)

	s := string(b)
	assert.NotContains(t, s, "hash")
	assert.NotContains(t, s, "code")
	assert.NotContains(t, s, "token")
	assert.NotContains(t, s, "reset")
	assert.Contains(t, s, "alice")
}

func TestProfilePatch_Empty(t *testing.T) {
	assert.True(t, ProfilePatch{}.Empty())

	name := "Alice"
	assert.False(t, ProfilePatch{FirstName: &name}.Empty())
	assert.False(t, ProfilePatch{LastName: &name}.Empty())
}
