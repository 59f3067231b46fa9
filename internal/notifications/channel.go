package notifications

import "context"

const (
	ChannelLog      = "log"
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"
	ChannelPubSub   = "pubsub"
)

// Channel delivers a human-readable order alert to operators.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert OrderAlert) error
}
