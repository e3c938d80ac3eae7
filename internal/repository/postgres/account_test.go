package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelworks/account-service/internal/domain"
	apperrors "github.com/keelworks/account-service/pkg/errors"
)

func newAccountTestFixture(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewAccountRepository(mock)
	return repo, mock
}

func sampleAccount() *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(24 * time.Hour)
	return &domain.Account{
		ID:                        "a-1234",
		UserName:                  "alice",
		Email:                     "alice@example.com",
		PasswordHash:              "hash-abc",
		IsVerified:                false,
		VerificationCode:          "code-xyz",
		VerificationCodeExpiresAt: &expires,
		VerificationSentAt:        &now,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
}

// accountColumnNames returns the 17 column names scanned by scanAccount.
func accountColumnNames() []string {
	return []string{
		"id", "user_name", "email", "password_hash", "is_verified",
		"verification_code", "verification_code_expires_at", "verification_sent_at",
		"refresh_token", "first_name", "last_name", "avatar_url",
		"password_reset_token", "password_reset_expires_at",
		"last_login_at", "created_at", "updated_at",
	}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumnNames()).AddRow(
		a.ID, a.UserName, a.Email, a.PasswordHash, a.IsVerified,
		nullableString(a.VerificationCode), a.VerificationCodeExpiresAt, a.VerificationSentAt,
		nullableString(a.RefreshToken), a.FirstName, a.LastName, a.AvatarURL,
		nullableString(a.PasswordResetToken), a.PasswordResetExpiresAt,
		a.LastLoginAt, a.CreatedAt, a.UpdatedAt,
	)
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestAccountRepository_Create_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(
			a.ID, a.UserName, a.Email, a.PasswordHash, a.IsVerified,
			nullableString(a.VerificationCode), a.VerificationCodeExpiresAt, a.VerificationSentAt,
			a.CreatedAt, a.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_DuplicateUserName(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(
			a.ID, a.UserName, a.Email, a.PasswordHash, a.IsVerified,
			nullableString(a.VerificationCode), a.VerificationCodeExpiresAt, a.VerificationSentAt,
			a.CreatedAt, a.UpdatedAt,
		).
		WillReturnError(uniqueViolation("idx_accounts_user_name"))

	err := repo.Create(context.Background(), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)
	assert.Contains(t, err.Error(), "user_name")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(
			a.ID, a.UserName, a.Email, a.PasswordHash, a.IsVerified,
			nullableString(a.VerificationCode), a.VerificationCodeExpiresAt, a.VerificationSentAt,
			a.CreatedAt, a.UpdatedAt,
		).
		WillReturnError(uniqueViolation("idx_accounts_email"))

	err := repo.Create(context.Background(), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Contains(t, err.Error(), "email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

func TestAccountRepository_GetByID_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id =").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.UserName, got.UserName)
	assert.Equal(t, a.VerificationCode, got.VerificationCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE LOWER\\(email\\)").
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByVerificationCode_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE verification_code =").
		WithArgs(a.VerificationCode).
		WillReturnRows(accountRow(a))

	got, err := repo.GetByVerificationCode(context.Background(), a.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

func TestAccountRepository_MarkVerified_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE accounts").
		WithArgs("a-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.MarkVerified(context.Background(), "a-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_MarkVerified_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE accounts").
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkVerified(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SetSession_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectExec("UPDATE accounts").
		WithArgs("new-refresh-token", now, "a-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetSession(context.Background(), "a-1234", "new-refresh-token", now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ClearRefreshToken_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE accounts").
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ClearRefreshToken(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// UpdateProfile
// ---------------------------------------------------------------------------

func TestAccountRepository_UpdateProfile_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()
	a.FirstName = "Alice"

	first := "Alice"
	mock.ExpectQuery("UPDATE accounts SET first_name =").
		WithArgs(first, a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.UpdateProfile(context.Background(), a.ID, domain.ProfilePatch{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateProfile_EmptyPatch(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	_, err := repo.UpdateProfile(context.Background(), "a-1234", domain.ProfilePatch{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAccountRepository_SetAvatarURL_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()
	a.AvatarURL = "http://cdn.example.com/avatars/a-1234/new"

	mock.ExpectQuery("UPDATE accounts").
		WithArgs(a.AvatarURL, a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.SetAvatarURL(context.Background(), a.ID, a.AvatarURL)
	require.NoError(t, err)
	assert.Equal(t, a.AvatarURL, got.AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}
