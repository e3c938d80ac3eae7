package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/keelworks/account-service/pkg/httpclient"
)

// MailtrapConfig holds Mailtrap API settings.
type MailtrapConfig struct {
	APIURL    string
	APIToken  string
	FromEmail string
	FromName  string
}

// MailtrapSender delivers email through the Mailtrap HTTP API. Calls go
// through a circuit breaker so a degraded provider does not tie up request
// handlers in retries.
type MailtrapSender struct {
	cfg    MailtrapConfig
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewMailtrapSender creates a Mailtrap-backed sender.
func NewMailtrapSender(cfg MailtrapConfig, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *MailtrapSender {
	return &MailtrapSender{cfg: cfg, client: client, logger: logger}
}

// Name returns the name of this sender.
func (s *MailtrapSender) Name() string {
	return "mailtrap"
}

type mailtrapAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapPayload struct {
	From    mailtrapAddress   `json:"from"`
	To      []mailtrapAddress `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text,omitempty"`
	HTML    string            `json:"html,omitempty"`
}

// Send posts the message to the Mailtrap send endpoint.
func (s *MailtrapSender) Send(ctx context.Context, msg *Message) error {
	payload := mailtrapPayload{
		From:    mailtrapAddress{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
		To:      []mailtrapAddress{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		Text:    msg.TextBody,
		HTML:    msg.HTMLBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mailtrap payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mailtrap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("send email via mailtrap: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailtrap returned status %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.DebugContext(ctx, "email sent",
		slog.String("sender", s.Name()),
		slog.String("subject", msg.Subject),
	)

	return nil
}
