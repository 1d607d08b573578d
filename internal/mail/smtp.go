package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"github.com/mkruchkov/accountd/internal/config"
)

// SMTPMailer sends plaintext mail through a configured SMTP relay.
// With no host configured it logs and drops the message, which keeps
// development setups working without a relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger zerolog.Logger
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg config.SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers one message.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		m.logger.Warn().Str("to", to).Str("subject", subject).Msg("SMTP not configured, dropping mail")
		return nil
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	msg := fmt.Sprintf("From: %s\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/plain; charset=UTF-8\r\n"
	msg += "\r\n"
	msg += body

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
