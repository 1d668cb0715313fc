package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// MailgunSender sends emails through the Mailgun API
type MailgunSender struct {
	cfg    *config.EmailConfig
	log    *slog.Logger
	client *mailgun.MailgunImpl
}

// NewMailgunSender creates a new Mailgun sender
func NewMailgunSender(cfg *config.EmailConfig, log *slog.Logger) *MailgunSender {
	return &MailgunSender{
		cfg:    cfg,
		log:    log.With(logger.Scope("email.mailgun")),
		client: mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey),
	}
}

// Send sends an email via Mailgun. Delivery failures are reported in the result.
func (s *MailgunSender) Send(ctx context.Context, opts SendOptions) (*SendResult, error) {
	if err := validateConfig(s.cfg); err != nil {
		s.log.Error("email configuration invalid", logger.Error(err))
		return &SendResult{Success: false, Error: err.Error()}, nil
	}

	to := opts.To
	if opts.ToName != "" {
		to = fmt.Sprintf("%s <%s>", opts.ToName, opts.To)
	}
	from := fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)

	message := s.client.NewMessage(from, opts.Subject, opts.Text, to)
	if opts.HTML != "" {
		message.SetHtml(opts.HTML)
	}

	_, messageID, err := s.client.Send(ctx, message)
	if err != nil {
		s.log.Error("failed to send email",
			slog.String("to", opts.To),
			logger.Error(err))
		return &SendResult{Success: false, Error: err.Error()}, nil
	}

	s.log.Info("email sent",
		slog.String("to", opts.To),
		slog.String("message_id", messageID))
	return &SendResult{Success: true, MessageID: messageID}, nil
}

func validateConfig(cfg *config.EmailConfig) error {
	switch {
	case cfg.MailgunDomain == "":
		return errors.New("MAILGUN_DOMAIN is required")
	case cfg.MailgunAPIKey == "":
		return errors.New("MAILGUN_API_KEY is required")
	case cfg.FromEmail == "":
		return errors.New("EMAIL_FROM_ADDRESS is required")
	case cfg.FromName == "":
		return errors.New("EMAIL_FROM_NAME is required")
	}
	return nil
}
