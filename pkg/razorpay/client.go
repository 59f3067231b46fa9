package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

const (
	ModeTest = "test"
	ModeLive = "live"

	testKeyPrefix = "rzp_test_"
	liveKeyPrefix = "rzp_live_"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

// orderAPI is the slice of the SDK's order resource used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK plus the credentials it was built with.
type Client struct {
	orders    orderAPI
	keyID     string
	keySecret string
	mode      string
}

// OrderRequest describes a gateway order in minor currency units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the subset of the gateway response the shop relies on.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// NewClient validates credentials and initializes the SDK client.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	api := rzp.NewClient(keyID, keySecret)
	mode := modeForKey(keyID)

	if logg != nil {
		logg.Info(ctx, "razorpay client initialized")
	}

	return &Client{
		orders:    api.Order,
		keyID:     keyID,
		keySecret: keySecret,
		mode:      mode,
	}, nil
}

// KeyID returns the public key identifier. It is safe to hand to browsers.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the shared secret used for callback signatures.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// Mode reports whether test or live keys are in use.
func (c *Client) Mode() string {
	if c == nil {
		return ""
	}
	return c.mode
}

// CreateOrder creates a gateway order. The SDK has no context support, so the
// call runs on its own goroutine and is abandoned when ctx is done.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c == nil || c.orders == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := c.orders.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay create order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay create order: %w", res.err)
		}
		return decodeOrder(res.body)
	}
}

func decodeOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response missing id")
	}
	order := &Order{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Status, _ = body["status"].(string)
	switch amount := body["amount"].(type) {
	case float64:
		order.AmountMinor = int64(amount)
	case int64:
		order.AmountMinor = amount
	case int:
		order.AmountMinor = int64(amount)
	}
	return order, nil
}

func modeForKey(keyID string) string {
	if strings.HasPrefix(keyID, liveKeyPrefix) {
		return ModeLive
	}
	return ModeTest
}
