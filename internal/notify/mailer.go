package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Message is a single outgoing HTML email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled is the Mailer used when no SMTP credentials are configured.
// The dispatcher skips all work when it sees it.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return nil }

// SMTPConfig holds the connection settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer delivers mail through an SMTP relay. A new connection is made
// per Send.
type SMTPMailer struct {
	client *mail.Client
}

// NewSMTPMailer builds an SMTP client. Port 465 uses implicit TLS; any other
// port upgrades with STARTTLS when the server offers it.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
