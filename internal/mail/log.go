package mail

import (
	"context"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
)

var _ model.Mailer = (*LogMailer)(nil)

// LogMailer writes mail to the log instead of sending it. Used when no SMTP
// host is configured, which is the local development default.
type LogMailer struct {
	logger *logger.Logger
}

func NewLogMailer(logger *logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string) error {
	m.logger.Info("mail: password reset code (not sent, log mailer active)",
		"to", to,
		"code", code)
	return nil
}
