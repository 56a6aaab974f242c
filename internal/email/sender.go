package email

import (
	"context"
	"fmt"
	"net/smtp"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/logger"
)

// Sender defines the interface for sending emails.
// rawMessage is the complete RFC 5322 message, headers included.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	from string
	auth smtp.Auth
	addr string
}

// NewSMTPSender returns an SMTP sender, or a LoggingSender when no SMTP host is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		logger.L().Info("SMTP host not configured, using logging email sender")
		return &LoggingSender{from: cfg.SmtpFromAddress}
	}

	var auth smtp.Auth
	if cfg.SmtpUsername != "" {
		auth = smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	}

	return &SMTPSender{
		from: cfg.SmtpFromAddress,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send sends an email using SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	logger.L().Infow("Email sent via SMTP", "to", to, "subject", subject)
	return nil
}

// LoggingSender only logs messages. Used in development.
type LoggingSender struct {
	from string
}

// Send logs the email instead of sending it.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	logger.L().Infow("Email (logged, not sent)",
		"from", s.from,
		"to", to,
		"subject", subject,
		"message", string(rawMessage),
	)
	return nil
}

// NewSender assembles the sender chain from configuration: SMTP (or logging),
// plus the optional file and Redis sinks.
func NewSender(cfg *config.Config, extra ...Sender) (Sender, error) {
	composite := NewCompositeEmailSender(NewSMTPSender(cfg))
	if cfg.EmailLogFile != "" {
		fs, err := NewFileEmailSender(cfg.EmailLogFile)
		if err != nil {
			return nil, err
		}
		composite.AddSender(fs)
	}
	for _, s := range extra {
		composite.AddSender(s)
	}
	return composite, nil
}
