package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/keelworks/account-service/internal/domain"
	apperrors "github.com/keelworks/account-service/pkg/errors"
)

// DB is the subset of pgxpool.Pool used by the repository. pgxmock satisfies
// the same interface in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_name, email, password_hash, is_verified,
	verification_code, verification_code_expires_at, verification_sent_at,
	refresh_token, first_name, last_name, avatar_url,
	password_reset_token, password_reset_expires_at,
	last_login_at, created_at, updated_at`

// Create inserts a new account into the database. Uniqueness is enforced by
// the storage layer so concurrent registrations cannot both succeed.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_name, email, password_hash, is_verified, verification_code, verification_code_expires_at, verification_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.UserName,
		a.Email,
		a.PasswordHash,
		a.IsVerified,
		nullableString(a.VerificationCode),
		a.VerificationCodeExpiresAt,
		a.VerificationSentAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return apperrors.AlreadyExists(field)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(ctx, query, id)
}

// GetByUserName retrieves an account by username, case-insensitively.
func (r *AccountRepository) GetByUserName(ctx context.Context, userName string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(user_name) = LOWER($1)`
	return r.scanAccount(ctx, query, userName)
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`
	return r.scanAccount(ctx, query, email)
}

// GetByVerificationCode retrieves the account with the given pending code.
func (r *AccountRepository) GetByVerificationCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE verification_code = $1`
	return r.scanAccount(ctx, query, code)
}

// MarkVerified flips is_verified and clears the code fields atomically.
func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET is_verified = TRUE, verification_code = NULL, verification_code_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// SetVerificationCode stores a fresh verification code with its expiry.
func (r *AccountRepository) SetVerificationCode(ctx context.Context, id, code string, expiresAt, sentAt time.Time) error {
	query := `
		UPDATE accounts
		SET verification_code = $1, verification_code_expires_at = $2, verification_sent_at = $3, updated_at = NOW()
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, code, expiresAt, sentAt, id)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// SetSession persists the refresh token and stamps last_login_at. Any prior
// refresh token is superseded (single active session per account).
func (r *AccountRepository) SetSession(ctx context.Context, id, refreshToken string, lastLoginAt time.Time) error {
	query := `
		UPDATE accounts
		SET refresh_token = $1, last_login_at = $2, updated_at = NOW()
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, refreshToken, lastLoginAt, id)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// SetRefreshToken replaces the active refresh token.
func (r *AccountRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	query := `
		UPDATE accounts
		SET refresh_token = $1, updated_at = NOW()
		WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, refreshToken, id)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// ClearRefreshToken removes the active refresh token.
func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET refresh_token = NULL, updated_at = NOW()
		WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// UpdateProfile applies a partial update and returns the refreshed account.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Account, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if patch.FirstName != nil {
		args = append(args, *patch.FirstName)
		sets = append(sets, fmt.Sprintf("first_name = $%d", len(args)))
	}
	if patch.LastName != nil {
		args = append(args, *patch.LastName)
		sets = append(sets, fmt.Sprintf("last_name = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE accounts SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+accountColumns,
		strings.Join(sets, ", "), len(args),
	)

	return r.scanAccount(ctx, query, args...)
}

// SetAvatarURL updates the avatar URL and returns the refreshed account.
func (r *AccountRepository) SetAvatarURL(ctx context.Context, id, avatarURL string) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET avatar_url = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + accountColumns

	return r.scanAccount(ctx, query, avatarURL, id)
}

// scanAccount executes a query expected to return a single account row.
func (r *AccountRepository) scanAccount(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var (
		a                domain.Account
		verificationCode *string
		refreshToken     *string
		resetToken       *string
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.UserName,
		&a.Email,
		&a.PasswordHash,
		&a.IsVerified,
		&verificationCode,
		&a.VerificationCodeExpiresAt,
		&a.VerificationSentAt,
		&refreshToken,
		&a.FirstName,
		&a.LastName,
		&a.AvatarURL,
		&resetToken,
		&a.PasswordResetExpiresAt,
		&a.LastLoginAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if verificationCode != nil {
		a.VerificationCode = *verificationCode
	}
	if refreshToken != nil {
		a.RefreshToken = *refreshToken
	}
	if resetToken != nil {
		a.PasswordResetToken = *resetToken
	}

	return &a, nil
}

// nullableString maps the empty string to NULL so partial unique indexes and
// IS NULL checks behave as expected.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// uniqueViolationField detects a PostgreSQL unique violation (23505) and maps
// the constraint name to the conflicting field.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "user_name"):
		return "user_name", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "account", true
	}
}
