package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keelworks/account-service/internal/auth"
	"github.com/keelworks/account-service/internal/credentials"
	"github.com/keelworks/account-service/internal/domain"
	"github.com/keelworks/account-service/internal/event"
	"github.com/keelworks/account-service/internal/mailer"
	"github.com/keelworks/account-service/internal/ratelimit"
	"github.com/keelworks/account-service/internal/repository"
	"github.com/keelworks/account-service/internal/storage"
	apperrors "github.com/keelworks/account-service/pkg/errors"
)

// verificationCodeLength is the length of generated verification codes.
const verificationCodeLength = 32

// Limits holds the fixed-window budgets for the protected operations.
type Limits struct {
	Resend ratelimit.Rule
	Login  ratelimit.Rule
	Avatar ratelimit.Rule
}

// DefaultLimits returns the production budgets.
func DefaultLimits() Limits {
	return Limits{
		Resend: ratelimit.Rule{Name: "resend", Limit: 3, Window: 15 * time.Minute},
		Login:  ratelimit.Rule{Name: "login", Limit: 5, Window: 30 * time.Minute},
		Avatar: ratelimit.Rule{Name: "avatar", Limit: 2, Window: 24 * time.Hour},
	}
}

// AccountService implements the registration, verification, session, and
// profile lifecycle.
type AccountService struct {
	repo    repository.AccountRepository
	hasher  *credentials.Hasher
	jwt     *auth.JWTManager
	limiter ratelimit.Limiter
	limits  Limits
	store   storage.Storage
	sender  mailer.Sender
	events  event.Publisher
	logger  *slog.Logger

	codeTTL time.Duration
	now     func() time.Time
}

// NewAccountService creates a new account service. codeTTL is how long a
// verification code stays valid.
func NewAccountService(
	repo repository.AccountRepository,
	hasher *credentials.Hasher,
	jwt *auth.JWTManager,
	limiter ratelimit.Limiter,
	limits Limits,
	store storage.Storage,
	sender mailer.Sender,
	events event.Publisher,
	codeTTL time.Duration,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		repo:    repo,
		hasher:  hasher,
		jwt:     jwt,
		limiter: limiter,
		limits:  limits,
		store:   store,
		sender:  sender,
		events:  events,
		logger:  logger,
		codeTTL: codeTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	UserName string
	Email    string
	Password string
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// UpdateAvatarInput holds the parameters for an avatar upload.
type UpdateAvatarInput struct {
	Upload   *storage.UploadInput
	ClientIP string
}

// --- Operations ---

// Register creates an unverified account with a fresh verification code and
// attempts to send the verification email. A failed send is logged but does
// not roll back the account.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	userName := strings.TrimSpace(input.UserName)
	email := strings.TrimSpace(input.Email)

	if userName == "" {
		return nil, apperrors.InvalidInput("user name is required")
	}
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	// Username is checked before email so the caller learns about a username
	// conflict first. The storage-level unique indexes close the race between
	// these checks and the insert.
	if _, err := s.repo.GetByUserName(ctx, userName); err == nil {
		return nil, apperrors.AlreadyExists("user_name")
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.AlreadyExists("email")
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	code, err := credentials.GenerateVerificationCode(verificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.codeTTL)
	account := &domain.Account{
		ID:                        uuid.New().String(),
		UserName:                  userName,
		Email:                     email,
		PasswordHash:              passwordHash,
		IsVerified:                false,
		VerificationCode:          code,
		VerificationCodeExpiresAt: &expiresAt,
		VerificationSentAt:        &now,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	// Send failure is deliberately not surfaced: the account exists and the
	// caller can request a new code via resend.
	if err := s.sendVerificationEmail(ctx, account, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email after registration",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return account, nil
}

// VerifyEmail flips the account to verified if the code is known and not
// expired. The code fields are cleared in the same update.
func (s *AccountService) VerifyEmail(ctx context.Context, code string) (*domain.Account, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.InvalidInput("verification code is required")
	}

	account, err := s.repo.GetByVerificationCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.InvalidCode()
		}
		return nil, fmt.Errorf("find account by code: %w", err)
	}

	if account.VerificationExpired(s.now()) {
		return nil, apperrors.CodeExpired()
	}

	if err := s.repo.MarkVerified(ctx, account.ID); err != nil {
		return nil, err
	}

	account.IsVerified = true
	account.VerificationCode = ""
	account.VerificationCodeExpiresAt = nil

	if err := s.events.PublishAccountVerified(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to publish account.verified event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return account, nil
}

// AlreadyVerifiedMessage is returned by ResendVerificationCode when the
// account needs no further verification.
const AlreadyVerifiedMessage = "account is already verified, please log in"

// ResendVerificationCode issues a new verification code unless the current
// one is still live. Unlike registration, a failed email send fails the
// operation, since sending the email is its entire point.
func (s *AccountService) ResendVerificationCode(ctx context.Context, email, clientIP string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", apperrors.InvalidInput("email is required")
	}

	if err := s.checkLimit(ctx, s.limits.Resend, clientIP); err != nil {
		return "", err
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return "", apperrors.NotFound("account")
		}
		return "", fmt.Errorf("find account by email: %w", err)
	}

	if account.IsVerified {
		// Soft success: the caller should redirect to login, not retry.
		return AlreadyVerifiedMessage, nil
	}

	now := s.now()
	if account.VerificationCodeExpiresAt != nil && account.VerificationCodeExpiresAt.After(now) {
		remaining := account.VerificationCodeExpiresAt.Sub(now)
		return "", apperrors.TooSoon(fmt.Sprintf("a verification code was already sent, try again in %s", formatWait(remaining)))
	}

	code, err := credentials.GenerateVerificationCode(verificationCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.repo.SetVerificationCode(ctx, account.ID, code, now.Add(s.codeTTL), now); err != nil {
		return "", err
	}

	account.VerificationCode = code
	if err := s.sendVerificationEmail(ctx, account, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email on resend",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
		return "", apperrors.EmailDeliveryFailed(err)
	}

	return "verification code sent", nil
}

// Login checks credentials and issues a fresh token pair, superseding any
// prior session.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*domain.Account, *domain.TokenPair, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	if err := s.checkLimit(ctx, s.limits.Login, input.ClientIP); err != nil {
		return nil, nil, err
	}

	account, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, apperrors.NotFound("account")
		}
		return nil, nil, fmt.Errorf("find account by email: %w", err)
	}

	if !s.hasher.Verify(input.Password, account.PasswordHash) {
		return nil, nil, apperrors.InvalidCredentials()
	}

	if !account.IsVerified {
		return nil, nil, apperrors.NotVerified()
	}

	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if err := s.repo.SetSession(ctx, account.ID, tokens.RefreshToken, now); err != nil {
		return nil, nil, err
	}

	account.RefreshToken = tokens.RefreshToken
	account.LastLoginAt = &now

	return account, tokens, nil
}

// Refresh validates the presented refresh token against both its signature
// and the persisted value, then rotates to a new token pair. A syntactically
// valid token that does not match the stored one signals replay of a rotated
// token and is rejected.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*domain.Account, *domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.repo.GetByID(ctx, claims.AccountID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, apperrors.NotFound("account")
		}
		return nil, nil, fmt.Errorf("find account by id: %w", err)
	}

	if account.RefreshToken != refreshToken {
		return nil, nil, apperrors.Forbidden("refresh token does not match the active session")
	}

	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.SetRefreshToken(ctx, account.ID, tokens.RefreshToken); err != nil {
		return nil, nil, err
	}

	account.RefreshToken = tokens.RefreshToken

	return account, tokens, nil
}

// Logout clears the persisted refresh token for the authenticated account.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	if err := s.repo.ClearRefreshToken(ctx, accountID); err != nil {
		if isNotFound(err) {
			return apperrors.NotFound("account")
		}
		return err
	}
	return nil
}

// GetAccount returns the account for the authenticated caller.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("account")
		}
		return nil, err
	}
	return account, nil
}

// UpdateProfile applies a partial profile update. At least one field must be
// set, and provided fields must not be blank after trimming.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, patch domain.ProfilePatch) (*domain.Account, error) {
	if patch.Empty() {
		return nil, apperrors.InvalidInput("at least one field must be provided")
	}

	if patch.FirstName != nil {
		v := strings.TrimSpace(*patch.FirstName)
		if v == "" {
			return nil, apperrors.InvalidInput("first_name cannot be blank")
		}
		patch.FirstName = &v
	}
	if patch.LastName != nil {
		v := strings.TrimSpace(*patch.LastName)
		if v == "" {
			return nil, apperrors.InvalidInput("last_name cannot be blank")
		}
		patch.LastName = &v
	}
	account, err := s.repo.UpdateProfile(ctx, accountID, patch)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("account")
		}
		return nil, err
	}
	return account, nil
}

// UpdateAvatar uploads the new avatar, records its URL, and best-effort
// deletes the previous object. If recording the URL fails, the fresh upload
// is deleted before the error is returned so no orphan remains.
func (s *AccountService) UpdateAvatar(ctx context.Context, accountID string, input UpdateAvatarInput) (*domain.Account, error) {
	if input.Upload == nil || input.Upload.Data == nil {
		return nil, apperrors.InvalidInput("avatar file is required")
	}

	if err := s.checkLimit(ctx, s.limits.Avatar, input.ClientIP); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("account")
		}
		return nil, err
	}
	oldKey := avatarKeyFromURL(current.AvatarURL)

	input.Upload.Key = fmt.Sprintf("avatars/%s/%s", accountID, uuid.New().String())
	result, err := s.store.Upload(ctx, input.Upload)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("upload avatar: %w", err))
	}

	account, err := s.repo.SetAvatarURL(ctx, accountID, result.URL)
	if err != nil {
		// Compensate: the record update failed, so remove the object that
		// was just uploaded. Completes before the response is returned.
		if delErr := s.store.Delete(ctx, result.Key); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to delete avatar after record update failure",
				slog.String("account_id", accountID),
				slog.String("key", result.Key),
				slog.String("error", delErr.Error()),
			)
		}
		if isNotFound(err) {
			return nil, apperrors.NotFound("account")
		}
		return nil, err
	}

	if oldKey != "" {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar",
				slog.String("account_id", accountID),
				slog.String("key", oldKey),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.events.PublishAccountAvatarUpdated(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to publish account.avatar_updated event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return account, nil
}

// ValidateAccessToken verifies an access token for the HTTP middleware.
func (s *AccountService) ValidateAccessToken(token string) (*auth.Claims, error) {
	return s.jwt.ValidateAccessToken(token)
}

// --- helpers ---

func (s *AccountService) issueTokens(account *domain.Account) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// checkLimit consults the abuse guard. Limiter errors fail closed: a broken
// counter store must not disable throttling on sensitive operations.
func (s *AccountService) checkLimit(ctx context.Context, rule ratelimit.Rule, clientIP string) error {
	if s.limiter == nil || clientIP == "" {
		return nil
	}

	decision, err := s.limiter.Allow(ctx, rule, clientIP)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("rate limit check: %w", err))
	}
	if !decision.Allowed {
		return apperrors.RateLimited(decision.RetryAfter)
	}
	return nil
}

func (s *AccountService) sendVerificationEmail(ctx context.Context, account *domain.Account, code string) error {
	msg := &mailer.Message{
		To:       account.Email,
		ToName:   account.UserName,
		Subject:  "Verify your email address",
		TextBody: fmt.Sprintf("Hi %s,\n\nYour verification code is: %s\n\nIt expires in %d hours.", account.UserName, code, int(s.codeTTL.Hours())),
		HTMLBody: fmt.Sprintf("<p>Hi %s,</p><p>Your verification code is: <strong>%s</strong></p><p>It expires in %d hours.</p>", account.UserName, code, int(s.codeTTL.Hours())),
	}
	return s.sender.Send(ctx, msg)
}

// formatWait renders a wait duration in hours when above an hour, otherwise
// minutes, always rounding up.
func formatWait(d time.Duration) string {
	if d > time.Hour {
		hours := int(math.Ceil(d.Hours()))
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(math.Ceil(d.Minutes()))
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// avatarKeyFromURL recovers the storage key from a previously stored avatar
// URL. Keys always start with "avatars/".
func avatarKeyFromURL(url string) string {
	idx := strings.Index(url, "avatars/")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
