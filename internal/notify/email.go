package notify

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	To       string
}

// Email sends alerts over SMTP with STARTTLS. Send failures are logged
// and swallowed; an unreachable mail server must never stall the
// evaluation loop.
type Email struct {
	cfg    SMTPConfig
	logger zerolog.Logger
}

// NewEmail creates the mail notifier.
func NewEmail(cfg SMTPConfig, logger zerolog.Logger) *Email {
	if cfg.FromName == "" {
		cfg.FromName = "ICT Trading Bot"
	}
	return &Email{cfg: cfg, logger: logger.With().Str("component", "email").Logger()}
}

// Notify delivers one alert message.
func (e *Email) Notify(subject, body string) {
	message := []byte(
		"From: " + fmt.Sprintf("%s <%s>", e.cfg.FromName, e.cfg.From) + "\r\n" +
			"To: " + e.cfg.To + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			body + "\r\n",
	)

	addr := e.cfg.Host + ":" + e.cfg.Port
	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)

	if err := smtp.SendMail(addr, auth, e.cfg.From, []string{e.cfg.To}, message); err != nil {
		e.logger.Error().Err(err).Str("subject", subject).Msg("failed to send alert email")
		return
	}
	e.logger.Info().Str("subject", subject).Msg("alert email sent")
}

var _ Notifier = (*Email)(nil)
