package repository

import (
	"context"
	"time"

	"github.com/keelworks/account-service/internal/domain"
)

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	// Create inserts a new account. A uniqueness violation on user_name or
	// email returns an AlreadyExists error naming the conflicting field.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByUserName retrieves an account by username (case-insensitive).
	GetByUserName(ctx context.Context, userName string) (*domain.Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetByVerificationCode retrieves the account holding the given pending code.
	GetByVerificationCode(ctx context.Context, code string) (*domain.Account, error)

	// MarkVerified sets is_verified and clears the verification code fields
	// in a single update.
	MarkVerified(ctx context.Context, id string) error

	// SetVerificationCode stores a fresh verification code with its expiry.
	SetVerificationCode(ctx context.Context, id, code string, expiresAt, sentAt time.Time) error

	// SetSession persists the active refresh token and stamps last_login_at.
	SetSession(ctx context.Context, id, refreshToken string, lastLoginAt time.Time) error

	// SetRefreshToken replaces the active refresh token without touching
	// last_login_at (used by rotation).
	SetRefreshToken(ctx context.Context, id, refreshToken string) error

	// ClearRefreshToken removes the active refresh token.
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdateProfile applies a partial profile update and returns the
	// updated account.
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Account, error)

	// SetAvatarURL updates the avatar URL and returns the updated account.
	SetAvatarURL(ctx context.Context, id, avatarURL string) (*domain.Account, error)
}
