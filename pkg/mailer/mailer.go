package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid sender address is required")
)

// Message is a single outbound email.
type Message struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender is implemented by Mailer and by test fakes.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer delivers transactional email through SendGrid.
type Mailer struct {
	client sendClient
	from   *mail.Email
}

// New builds a Mailer from config. Callers should check cfg.Enabled() first;
// an incomplete config is an error here.
func New(cfg config.SendgridConfig) (*Mailer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errFromRequired
	}
	return &Mailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(cfg.FromName, from),
	}, nil
}

// Send delivers msg. Non-2xx responses are returned as errors with the body.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.client == nil {
		return errors.New("mailer not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}
	if msg.PlainText == "" && msg.HTML == "" {
		return errors.New("message body is required")
	}

	to := mail.NewEmail(msg.ToName, strings.TrimSpace(msg.To))
	email := mail.NewSingleEmail(m.from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}
