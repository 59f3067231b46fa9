package notifications

import (
	"context"
	"net/http"
	"strings"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/mailer"
)

// BuildChannels returns the channels whose configuration is complete. The
// log channel is always present. sender and events may be nil when mail or
// Pub/Sub is not set up.
func BuildChannels(ctx context.Context, cfg *config.Config, logg *logger.Logger, sender mailer.Sender, events EventPublisher, client *http.Client) []Channel {
	channels := []Channel{NewLogChannel(logg)}

	if cfg.Telegram.Enabled() {
		telegram, err := NewTelegramChannel(cfg.Telegram, client)
		if err != nil {
			logg.Error(ctx, "notifications.telegram.disabled", err)
		} else {
			channels = append(channels, telegram)
		}
	} else {
		logg.Info(ctx, "notifications.telegram.not_configured")
	}

	recipient := strings.TrimSpace(cfg.Sendgrid.NotifyTo)
	if recipient == "" {
		recipient = strings.TrimSpace(cfg.App.AdminEmail)
	}
	if sender != nil && recipient != "" {
		email, err := NewEmailChannel(sender, recipient)
		if err != nil {
			logg.Error(ctx, "notifications.email.disabled", err)
		} else {
			channels = append(channels, email)
		}
	} else {
		logg.Info(ctx, "notifications.email.not_configured")
	}

	if events != nil {
		channel, err := NewEventChannel(events)
		if err != nil {
			logg.Error(ctx, "notifications.pubsub.disabled", err)
		} else {
			channels = append(channels, channel)
		}
	}

	return channels
}
