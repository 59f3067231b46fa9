package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/shivshakti/boutique-backend/pkg/mailer"
)

// EmailChannel sends the HTML alert to the shop's order inbox.
type EmailChannel struct {
	sender mailer.Sender
	to     string
}

func NewEmailChannel(sender mailer.Sender, to string) (*EmailChannel, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, errors.New("order alert recipient is required")
	}
	return &EmailChannel{sender: sender, to: to}, nil
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Deliver(ctx context.Context, alert OrderAlert) error {
	return c.sender.Send(ctx, mailer.Message{
		To:        c.to,
		Subject:   alert.Subject(),
		PlainText: alert.PlainText(),
		HTML:      alert.HTML(),
	})
}
