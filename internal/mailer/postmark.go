package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/pick3app/pick3/internal/config"
)

type postmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a Postmark-backed Sender. Tokens and the
// sender address are required; a process without them should use
// NewDevSender instead of silently dropping mail.
func NewPostmarkSender(cfg config.Mailer) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_ACCOUNT_TOKEN is required", ErrInvalidConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: MAIL_FROM is required", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.FromEmail,
	}, nil
}

func (s *postmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		Tag:      msg.Tag,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
