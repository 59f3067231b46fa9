package notifications

import (
	"context"

	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// LogChannel writes the alert to the structured log. It is always enabled.
type LogChannel struct {
	logg *logger.Logger
}

func NewLogChannel(logg *logger.Logger) *LogChannel {
	return &LogChannel{logg: logg}
}

func (c *LogChannel) Name() string { return ChannelLog }

func (c *LogChannel) Deliver(ctx context.Context, alert OrderAlert) error {
	if c.logg == nil {
		return nil
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"order_id": alert.OrderID,
		"total":    alert.Total.StringFixed(2),
		"items":    len(alert.Items),
		"summary":  alert.PlainText(),
	})
	c.logg.Info(ctx, "order.alert")
	return nil
}
