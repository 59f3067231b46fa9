package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/shivshakti/boutique-backend/pkg/redis"
)

type memoryOTPBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryOTPBackend() *memoryOTPBackend {
	return &memoryOTPBackend{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryOTPBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryOTPBackend) GetDel(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redisclient.ErrNil
	}
	delete(m.values, key)
	return v, nil
}

func (m *memoryOTPBackend) OTPKey(subject string) string {
	return "boutique:otp:" + subject
}

func TestRedisOTPStoreConsumeOnce(t *testing.T) {
	backend := newMemoryOTPBackend()
	store, err := NewRedisOTPStore(backend)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "asha@example.com", "123456", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, backend.ttls["boutique:otp:asha@example.com"])

	ok, err := store.Consume(ctx, "asha@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "asha@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisOTPStoreWrongCodeBurnsCode(t *testing.T) {
	backend := newMemoryOTPBackend()
	store, err := NewRedisOTPStore(backend)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "asha@example.com", "123456", time.Minute))

	ok, err := store.Consume(ctx, "asha@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "asha@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisOTPStoreRejectsNonPositiveTTL(t *testing.T) {
	store, err := NewRedisOTPStore(newMemoryOTPBackend())
	require.NoError(t, err)
	assert.Error(t, store.Save(context.Background(), "a@example.com", "1", 0))
}

func TestNewRedisOTPStoreRequiresBackend(t *testing.T) {
	_, err := NewRedisOTPStore(nil)
	assert.Error(t, err)
}
