package email

import (
	"context"

	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// LogSender no entrega nada: escribe el correo en el log. Para dev sin SMTP.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.From(ctx).Named("email").Info("email (log sender)",
		logger.String("from", msg.FromName+" <"+msg.FromAddress+">"),
		logger.Email(msg.To),
		logger.String("subject", msg.Subject),
		logger.String("body", msg.Text),
	)
	return nil
}
