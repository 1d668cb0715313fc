package email

import (
	"context"
	"log/slog"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, opts SendOptions) (*SendResult, error)
}

// SendOptions contains options for sending an email
type SendOptions struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// SendResult contains the result of sending an email
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// NewSender uses Mailgun when configured and enabled, otherwise a no-op sender
func NewSender(cfg *config.Config, log *slog.Logger) Sender {
	if cfg.Email.Enabled && cfg.Email.IsConfigured() {
		log.Info("using Mailgun sender",
			slog.String("domain", cfg.Email.MailgunDomain),
			slog.String("from", cfg.Email.FromEmail))
		return NewMailgunSender(&cfg.Email, log)
	}

	log.Info("using no-op email sender (Mailgun not configured or email disabled)")
	return &noOpSender{log: log.With(logger.Scope("email.noop"))}
}

// noOpSender logs instead of sending
type noOpSender struct {
	log *slog.Logger
}

func (s *noOpSender) Send(_ context.Context, opts SendOptions) (*SendResult, error) {
	s.log.Info("email send (no-op)",
		slog.String("to", opts.To),
		slog.String("subject", opts.Subject))

	return &SendResult{
		Success:   true,
		MessageID: "noop-" + opts.To,
	}, nil
}
