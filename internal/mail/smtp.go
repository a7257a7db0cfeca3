// Package mail delivers transactional mail for the authentication flows.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/velora-beauty/velora-server/internal/model"
)

// SMTPConfig holds outbound mail parameters.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

var _ model.Mailer = (*SMTPMailer)(nil)

// SMTPMailer sends one-time codes over authenticated SMTP with STARTTLS.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	subject := "Your Velora password reset code"
	body := fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.\r\n"+
		"If you did not request a reset, you can ignore this message.", code)

	msg := []byte("From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send reset code: %w", err)
	}
	return nil
}
