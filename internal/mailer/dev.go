package mailer

import (
	"context"
	"log/slog"

	"github.com/pick3app/pick3/pkg/logger"
)

// DevSender logs messages instead of sending them, so the full login
// flow works locally without Postmark credentials. The magic link lands
// in the process log.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a logging Sender.
func NewDevSender(log *slog.Logger) *DevSender {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &DevSender{log: log}
}

func (s *DevSender) Send(ctx context.Context, msg Message) error {
	s.log.InfoContext(ctx, "dev mailer: email not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.TextBody),
		logger.Component("mailer"),
	)
	return nil
}
