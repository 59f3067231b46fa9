package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/metrics"
)

const defaultChannelTimeout = 10 * time.Second

// Notifier fans an order alert out to every enabled channel. Channels run
// concurrently, each under its own timeout, and a failing channel never
// affects the others.
type Notifier struct {
	channels []Channel
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.NotificationMetrics

	inflight sync.WaitGroup
}

// NewNotifier builds a notifier over the given channels. Nil channels are dropped.
func NewNotifier(channels []Channel, timeout time.Duration, logg *logger.Logger, m *metrics.NotificationMetrics) (*Notifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = defaultChannelTimeout
	}
	enabled := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			enabled = append(enabled, ch)
		}
	}
	return &Notifier{
		channels: enabled,
		timeout:  timeout,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Channels returns the names of the enabled channels.
func (n *Notifier) Channels() []string {
	names := make([]string, 0, len(n.channels))
	for _, ch := range n.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify delivers the order alert on every channel and waits for all of them.
// The combined error is for logging and tests only.
func (n *Notifier) Notify(ctx context.Context, order *models.Order) error {
	if n == nil || len(n.channels) == 0 || order == nil {
		return nil
	}
	alert := NewOrderAlert(order)
	ctx = n.logg.WithOrderID(ctx, alert.OrderID)

	errs := make([]error, len(n.channels))
	var wg sync.WaitGroup
	for i, ch := range n.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			errs[i] = n.deliver(ctx, ch, alert)
		}(i, ch)
	}
	wg.Wait()

	return multierr.Combine(errs...)
}

// Dispatch runs Notify in the background, detached from the caller's
// cancellation. Use Wait to drain pending deliveries on shutdown.
func (n *Notifier) Dispatch(ctx context.Context, order *models.Order) {
	if n == nil || len(n.channels) == 0 || order == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		if err := n.Notify(detached, order); err != nil {
			n.logg.Warn(n.logg.WithOrderID(detached, order.ID.String()), "order.notify.partial_failure")
		}
	}()
}

// Wait blocks until background deliveries finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) deliver(ctx context.Context, ch Channel, alert OrderAlert) (err error) {
	name := ch.Name()
	ctx = n.logg.WithField(ctx, "channel", name)
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", name, r)
		}
		n.metrics.ObserveDelivery(name, time.Since(started), err)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			n.logg.Error(ctx, "order.notify.failed", err)
		}
	}()

	return ch.Deliver(ctx, alert)
}
