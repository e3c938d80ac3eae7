package domain

import (
	"time"
)

// Account represents a registered account in the system.
type Account struct {
	ID                        string     `json:"id"`
	UserName                  string     `json:"user_name"`
	Email                     string     `json:"email"`
	PasswordHash              string     `json:"-"`
	IsVerified                bool       `json:"is_verified"`
	VerificationCode          string     `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	VerificationSentAt        *time.Time `json:"-"`
	RefreshToken              string     `json:"-"`
	FirstName                 string     `json:"first_name,omitempty"`
	LastName                  string     `json:"last_name,omitempty"`
	AvatarURL                 string     `json:"avatar_url,omitempty"`
	PasswordResetToken        string     `json:"-"`
	PasswordResetExpiresAt    *time.Time `json:"-"`
	LastLoginAt               *time.Time `json:"last_login_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// VerificationPending reports whether the account still has an outstanding
// verification code.
func (a *Account) VerificationPending() bool {
	return !a.IsVerified && a.VerificationCode != ""
}

// VerificationExpired reports whether the verification code has expired as of now.
func (a *Account) VerificationExpired(now time.Time) bool {
	return a.VerificationCodeExpiresAt != nil && now.After(*a.VerificationCodeExpiresAt)
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfilePatch describes a partial profile update. Nil fields are left
// unchanged. Email is deliberately not patchable: changing it would bypass
// verification, so it only moves through a dedicated flow.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil
}
