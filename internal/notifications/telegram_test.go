package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

func TestNewTelegramChannelRequiresConfig(t *testing.T) {
	_, err := NewTelegramChannel(config.TelegramConfig{BotToken: "123:abc"}, nil)
	assert.Error(t, err)

	_, err = NewTelegramChannel(config.TelegramConfig{ChatID: "42"}, nil)
	assert.Error(t, err)
}

func TestTelegramDeliverPostsSendMessage(t *testing.T) {
	var gotPath string
	var gotBody telegramSendMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	ch, err := NewTelegramChannel(config.TelegramConfig{BotToken: "123:abc", ChatID: "-1001", BaseURL: srv.URL + "/"}, srv.Client())
	require.NoError(t, err)

	err = ch.Deliver(context.Background(), NewOrderAlert(twoItemOrder(nil)))
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-1001", gotBody.ChatID)
	assert.Contains(t, gotBody.Text, "Lipstick x 1")
	assert.Contains(t, gotBody.Text, "Blush x 2")
	assert.Contains(t, gotBody.Text, "2097")
}

func TestTelegramDeliverReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	ch, err := NewTelegramChannel(config.TelegramConfig{BotToken: "123:abc", ChatID: "1", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)

	err = ch.Deliver(context.Background(), NewOrderAlert(twoItemOrder(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramDeliverRedactsTokenOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	ch, err := NewTelegramChannel(config.TelegramConfig{BotToken: "999:very-secret", ChatID: "1", BaseURL: base}, nil)
	require.NoError(t, err)

	err = ch.Deliver(context.Background(), NewOrderAlert(twoItemOrder(nil)))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "very-secret")
	assert.Contains(t, err.Error(), "<redacted>")
}
