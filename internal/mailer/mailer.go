// Package mailer delivers transactional email. The only message the
// application sends today is the magic-link sign-in email.
package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	Tag      string
}

// Sender delivers messages through a transactional email API.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
