// Package mailer sends transactional account emails.
package mailer

import "context"

// Message is a single transactional email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender defines the interface for delivering account emails.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
