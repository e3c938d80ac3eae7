package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/keelworks/account-service/internal/mailer"
)

// MockSender is a sender implementation that records messages and always
// succeeds unless an error is injected.
type MockSender struct {
	mu     sync.Mutex
	sent   []mailer.Message
	err    error
	logger *slog.Logger
}

// NewMockSender creates a new mock sender.
func NewMockSender(logger *slog.Logger) *MockSender {
	return &MockSender{logger: logger}
}

// Name returns the name of this sender.
func (s *MockSender) Name() string {
	return "mock"
}

// Send records the message and returns the injected error, if any.
func (s *MockSender) Send(ctx context.Context, msg *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.sent = append(s.sent, *msg)
	s.logger.InfoContext(ctx, "mock sender: email sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// FailWith makes subsequent Send calls return err. Pass nil to restore success.
func (s *MockSender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Sent returns a copy of the recorded messages.
func (s *MockSender) Sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.Message, len(s.sent))
	copy(out, s.sent)
	return out
}
