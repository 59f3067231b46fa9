package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type replayStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// ReplayGuard remembers which gateway payment ids were already applied to an order.
type ReplayGuard struct {
	store replayStore
	ttl   time.Duration
	scope string
}

func NewReplayGuard(store replayStore, ttl time.Duration) (*ReplayGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &ReplayGuard{store: store, ttl: ttl, scope: "payment_verify"}, nil
}

// CheckAndMark returns true when paymentID has been seen before.
func (g *ReplayGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	if paymentID == "" {
		return false, errors.New("payment id is required")
	}
	key := g.store.IdempotencyKey(g.scope, paymentID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set replay key: %w", err)
	}
	return !set, nil
}

// Release forgets paymentID so a failed write-back can be retried.
func (g *ReplayGuard) Release(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return errors.New("payment id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, paymentID))
}
