package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/wneessen/go-mail"
)

// Message is one outgoing email
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

var errNoRecipients = errors.New("mailer: message has no recipients")

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	cfg  Config
	opts []mail.Option
}

// NewSMTP creates an SMTP mailer. Credentials are optional for unauthenticated relays.
func NewSMTP(cfg Config) *SMTPMailer {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return &SMTPMailer{cfg: cfg, opts: opts}
}

// Send dials the relay and delivers msg
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errNoRecipients
	}

	out := mail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	out.Subject(msg.Subject)
	if msg.Text != "" {
		out.SetBodyString(mail.TypeTextPlain, msg.Text)
		if msg.HTML != "" {
			out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
		}
	} else {
		out.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	client, err := mail.NewClient(m.cfg.Host, m.opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
// Used when no SMTP host is configured.
type LogMailer struct{}

// Send logs msg
func (LogMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errNoRecipients
	}
	log.Printf("📧 [mail disabled] to=%s subject=%q", strings.Join(msg.To, ","), msg.Subject)
	return nil
}
