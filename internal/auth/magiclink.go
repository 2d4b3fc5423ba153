// Package auth implements passwordless sign-in via emailed magic
// links. Tokens are stateless: the email and issue time travel inside
// the signed token, so verification needs no server-side lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pick3app/pick3/internal/mailer"
	"github.com/pick3app/pick3/internal/user"
	"github.com/pick3app/pick3/pkg/logger"
	"github.com/pick3app/pick3/pkg/token"
)

const subjectMagicLink = "magic_link"

// linkPayload is the data carried inside a magic-link token.
type linkPayload struct {
	ID       string `json:"id"` // reserved for future single-use tracking
	Email    string `json:"email"`
	Subject  string `json:"sub"`
	IssuedAt int64  `json:"iat"` // unix seconds
}

// Service issues and verifies magic links and emails them out.
type Service struct {
	secret      string
	baseURL     string
	sender      mailer.Sender
	ttl         time.Duration
	sendTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithTTL overrides the default 15-minute link lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithSendTimeout bounds the email API call.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Service) { s.sendTimeout = d }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock replaces the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a magic-link service. The secret signs tokens;
// baseURL is the public origin links point back to.
func NewService(secret, baseURL string, sender mailer.Sender, opts ...Option) *Service {
	s := &Service{
		secret:      secret,
		baseURL:     baseURL,
		sender:      sender,
		ttl:         15 * time.Minute, // short lifetime stands in for single-use tracking
		sendTimeout: 20 * time.Second,
		log:         logger.NewDiscard(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured link lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// IssueToken creates a signed token binding email to the current time.
func (s *Service) IssueToken(email string) (string, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}

	return token.Sign(linkPayload{
		ID:       uuid.New().String(),
		Email:    email,
		Subject:  subjectMagicLink,
		IssuedAt: s.now().Unix(),
	}, s.secret)
}

// Link returns the full verification URL for a token.
func (s *Service) Link(tok string) string {
	return s.baseURL + "/auth/verify?token=" + url.QueryEscape(tok)
}

// SendMagicLink issues a token for email and delivers the sign-in
// message. The send is bounded by the configured timeout.
func (s *Service) SendMagicLink(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)

	tok, err := s.IssueToken(email)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		To:      email,
		Subject: "Your Pick3 App sign-in link",
		TextBody: fmt.Sprintf(
			"Click to sign in:\n\n%s\n\nThis link expires in %d minutes.",
			s.Link(tok), int(s.ttl.Minutes()),
		),
		Tag: "magic-link",
	}

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "failed to send magic link",
			logger.Email(email), logger.Error(err), logger.Component("auth"))
		return err
	}

	s.log.InfoContext(ctx, "magic link sent", logger.Email(email), logger.Component("auth"))
	return nil
}

// Verify checks a token and returns the embedded email. Tampered or
// malformed tokens report ErrInvalidLink; tokens older than the TTL
// report ErrExpiredLink.
func (s *Service) Verify(tok string) (string, error) {
	payload, err := token.Verify[linkPayload](tok, s.secret)
	if err != nil {
		return "", errors.Join(ErrInvalidLink, err)
	}

	if payload.Subject != subjectMagicLink {
		return "", ErrInvalidLink
	}

	email := user.NormalizeEmail(payload.Email)
	if email == "" {
		return "", ErrInvalidLink
	}

	if s.now().Sub(time.Unix(payload.IssuedAt, 0)) > s.ttl {
		return "", ErrExpiredLink
	}

	return email, nil
}
