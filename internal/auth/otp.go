package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/shivshakti/boutique-backend/pkg/redis"
)

// OTPStore keeps short-lived verification codes keyed by normalized email.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume reports whether code matches the stored one. The stored code is
	// removed on every attempt, so each code can be tried once.
	Consume(ctx context.Context, email, code string) (bool, error)
}

type otpBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	OTPKey(subject string) string
}

// RedisOTPStore stores codes in Redis with a TTL.
type RedisOTPStore struct {
	backend otpBackend
}

func NewRedisOTPStore(backend otpBackend) (*RedisOTPStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisOTPStore{backend: backend}, nil
}

func (s *RedisOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	return s.backend.Set(ctx, s.backend.OTPKey(email), code, ttl)
}

func (s *RedisOTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.backend.GetDel(ctx, s.backend.OTPKey(email))
	if err != nil {
		if errors.Is(err, redisclient.ErrNil) {
			return false, nil
		}
		return false, err
	}
	if stored == "" || code == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}
