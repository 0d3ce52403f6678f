// Package notification delivers agent-facing messages. The email channel
// speaks SMTP via go-mail; without SMTP credentials delivery degrades to a
// log-only notifier so lead operations behave identically in every
// environment.
package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/platform/config"
	"estateleads_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// EmailNotifier delivers notifications over SMTP.
type EmailNotifier struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	log       *logger.Logger
}

// New builds the notifier for the current configuration: SMTP-backed when a
// host is configured, log-only otherwise.
func New(cfg config.EmailConfig, log *logger.Logger) ports.Notifier {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("SMTP not configured; agent notifications are log-only")
		return &LogNotifier{log: log}
	}
	return &EmailNotifier{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		log:       log,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, channel ports.Channel, destination, subject, body string) (bool, error) {
	if channel != ports.ChannelEmail {
		// SMS delivery needs an external gateway; nothing is wired for it.
		n.log.Warn("unsupported notification channel", "channel", string(channel))
		return false, nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.fromEmail); err != nil {
		return false, fmt.Errorf("notify from: %w", err)
	}
	if err := msg.To(destination); err != nil {
		return false, fmt.Errorf("notify to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(n.host,
		gomail.WithPort(n.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.username),
		gomail.WithPassword(n.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return false, fmt.Errorf("notify client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return false, fmt.Errorf("notify send: %w", err)
	}

	return true, nil
}

// LogNotifier records notifications without delivering them.
type LogNotifier struct {
	log *logger.Logger
}

func (n *LogNotifier) Notify(_ context.Context, channel ports.Channel, destination, subject, _ string) (bool, error) {
	n.log.Info("notification suppressed (no delivery channel configured)",
		"channel", string(channel),
		"destination", destination,
		"subject", subject,
	)
	return false, nil
}

var (
	_ ports.Notifier = (*EmailNotifier)(nil)
	_ ports.Notifier = (*LogNotifier)(nil)
)
