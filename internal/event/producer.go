package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keelworks/account-service/internal/domain"
	pkgkafka "github.com/keelworks/account-service/pkg/kafka"
)

// Kafka topic constants for account domain events.
const (
	TopicAccountRegistered    = "accounts.account.registered"
	TopicAccountVerified      = "accounts.account.verified"
	TopicAccountAvatarUpdated = "accounts.account.avatar_updated"
)

// Aggregate type constant.
const AggregateTypeAccount = "account"

// Source identifier for events originating from this service.
const SourceAccountService = "account-service"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// AccountVerifiedData is the payload for an account.verified event.
type AccountVerifiedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AccountAvatarUpdatedData is the payload for an account.avatar_updated event.
type AccountAvatarUpdatedData struct {
	ID        string `json:"id"`
	AvatarURL string `json:"avatar_url"`
}

// Publisher publishes account domain events. Publishing is best-effort:
// callers log failures but do not fail the request.
type Publisher interface {
	PublishAccountRegistered(ctx context.Context, account *domain.Account) error
	PublishAccountVerified(ctx context.Context, account *domain.Account) error
	PublishAccountAvatarUpdated(ctx context.Context, account *domain.Account) error
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the account service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, account *domain.Account) error {
	data := AccountRegisteredData{
		ID:       account.ID,
		UserName: account.UserName,
		Email:    account.Email,
	}

	event, err := pkgkafka.NewEvent(TopicAccountRegistered, account.ID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountRegistered, event); err != nil {
		return fmt.Errorf("publish account.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.registered event",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return nil
}

// PublishAccountVerified publishes an account.verified event.
func (p *Producer) PublishAccountVerified(ctx context.Context, account *domain.Account) error {
	data := AccountVerifiedData{
		ID:    account.ID,
		Email: account.Email,
	}

	event, err := pkgkafka.NewEvent(TopicAccountVerified, account.ID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.verified event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountVerified, event); err != nil {
		return fmt.Errorf("publish account.verified event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.verified event",
		slog.String("account_id", account.ID),
	)

	return nil
}

// PublishAccountAvatarUpdated publishes an account.avatar_updated event.
func (p *Producer) PublishAccountAvatarUpdated(ctx context.Context, account *domain.Account) error {
	data := AccountAvatarUpdatedData{
		ID:        account.ID,
		AvatarURL: account.AvatarURL,
	}

	event, err := pkgkafka.NewEvent(TopicAccountAvatarUpdated, account.ID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.avatar_updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountAvatarUpdated, event); err != nil {
		return fmt.Errorf("publish account.avatar_updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.avatar_updated event",
		slog.String("account_id", account.ID),
	)

	return nil
}
