package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const EventOrderCreated = "order.created"

// EventPublisher is satisfied by a Pub/Sub topic.
type EventPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// EventChannel publishes each alert as an order.created event so other
// systems can react without polling the orders table.
type EventChannel struct {
	publisher EventPublisher
}

type orderCreatedEvent struct {
	Type          string           `json:"type"`
	OrderID       string           `json:"order_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	Total         string           `json:"total"`
	Items         []orderEventItem `json:"items"`
	PlacedAt      time.Time        `json:"placed_at"`
}

type orderEventItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func NewEventChannel(publisher EventPublisher) (*EventChannel, error) {
	if publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	return &EventChannel{publisher: publisher}, nil
}

func (c *EventChannel) Name() string { return ChannelPubSub }

func (c *EventChannel) Deliver(ctx context.Context, alert OrderAlert) error {
	event := orderCreatedEvent{
		Type:          EventOrderCreated,
		OrderID:       alert.OrderID,
		CustomerName:  alert.CustomerName,
		CustomerEmail: alert.CustomerEmail,
		Phone:         alert.Phone,
		Address:       alert.Address,
		Total:         alert.Total.StringFixed(2),
		Items:         make([]orderEventItem, 0, len(alert.Items)),
		PlacedAt:      alert.PlacedAt.UTC(),
	}
	for _, item := range alert.Items {
		event.Items = append(event.Items, orderEventItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding order event: %w", err)
	}
	_, err = c.publisher.Publish(ctx, data, map[string]string{
		"event_type": EventOrderCreated,
		"order_id":   alert.OrderID,
	})
	return err
}
