package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/pkg/config"
	redisclient "github.com/shivshakti/boutique-backend/pkg/redis"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redisclient.ErrNil
	}
	return val, nil
}

func (m *mockStore) GetDel(ctx context.Context, key string) (string, error) {
	val, err := m.Get(ctx, key)
	if err == nil {
		_ = m.Del(ctx, key)
	}
	return val, err
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, ttl: time.Hour}
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)

	token, err := manager.Generate(context.Background(), "access-123")
	require.NoError(t, err)

	stored := store.data[store.AccessSessionKey("access-123")]
	assert.NotEqual(t, token, stored)
	assert.Equal(t, digest(token), stored)

	_, err = manager.Generate(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRotateIssuesNewSession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	require.NoError(t, err)

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	require.NoError(t, err)
	assert.NotContains(t, store.data, store.AccessSessionKey("access-123"))
	assert.Equal(t, digest(newToken), store.data[store.AccessSessionKey(newAccessID)])

	_, _, err = manager.Rotate(ctx, "access-123", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "rotated token must not be reusable")
}

func TestRotateWrongTokenBurnsSession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, "access-1", "guess")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, _, err = manager.Rotate(ctx, "access-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotatePropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("redis down")
	_, _, err := newTestManager(store).Rotate(context.Background(), "access-1", "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeAndHasSession(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	_, err := manager.Generate(ctx, "access-1")
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "access-1"))

	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = manager.HasSession(ctx, " ")
	assert.Error(t, err)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)

	_, err = NewManager(&redisclient.Client{}, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)

	m, err := NewManager(&redisclient.Client{}, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, m.ttl)
}
