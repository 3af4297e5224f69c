package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"campus-portal/backend/config"
)

// Mailer delivers account mails.
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
}

// ConsoleMailer writes mails to the log instead of sending them.
type ConsoleMailer struct {
	from   string
	logger *zap.Logger
}

// NewConsoleMailer creates a ConsoleMailer.
func NewConsoleMailer(cfg *config.MailConfig, logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{from: cfg.From, logger: logger}
}

func (m *ConsoleMailer) SendVerification(_ context.Context, to, link string) error {
	m.logger.Info("verification mail",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("link", link),
	)
	return nil
}

// verificationLink appends the token to the configured verify endpoint.
func verificationLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
