package mailer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

type fakeSendClient struct {
	resp  *rest.Response
	err   error
	calls []*mail.SGMailV3
}

func (f *fakeSendClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.calls = append(f.calls, email)
	return f.resp, f.err
}

func newTestMailer(client sendClient) *Mailer {
	return &Mailer{client: client, from: mail.NewEmail("Boutique", "shop@example.com")}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(config.SendgridConfig{DefaultFrom: "shop@example.com"})
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = New(config.SendgridConfig{APIKey: "SG.x"})
	assert.ErrorIs(t, err, errFromRequired)

	m, err := New(config.SendgridConfig{APIKey: "SG.x", DefaultFrom: "shop@example.com", FromName: "Boutique"})
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", m.from.Address)
}

func TestSendBuildsSingleEmail(t *testing.T) {
	client := &fakeSendClient{resp: &rest.Response{StatusCode: http.StatusAccepted}}
	m := newTestMailer(client)

	err := m.Send(context.Background(), Message{
		To:        "owner@example.com",
		Subject:   "NEW ORDER RECEIVED: #abc123",
		PlainText: "plain",
		HTML:      "<p>html</p>",
	})
	require.NoError(t, err)
	require.Len(t, client.calls, 1)

	sent := client.calls[0]
	assert.Equal(t, "NEW ORDER RECEIVED: #abc123", sent.Subject)
	require.Len(t, sent.Personalizations, 1)
	assert.Equal(t, "owner@example.com", sent.Personalizations[0].To[0].Address)
	require.Len(t, sent.Content, 2)
}

func TestSendReturnsErrorOnRejectedStatus(t *testing.T) {
	client := &fakeSendClient{resp: &rest.Response{StatusCode: http.StatusUnauthorized, Body: `{"errors":[{"message":"bad key"}]}`}}
	err := newTestMailer(client).Send(context.Background(), Message{To: "a@b.c", PlainText: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestSendReturnsTransportError(t *testing.T) {
	client := &fakeSendClient{err: errors.New("dial tcp: timeout")}
	err := newTestMailer(client).Send(context.Background(), Message{To: "a@b.c", PlainText: "x"})
	assert.ErrorContains(t, err, "dial tcp")
}

func TestSendValidatesMessage(t *testing.T) {
	m := newTestMailer(&fakeSendClient{})
	assert.Error(t, m.Send(context.Background(), Message{PlainText: "x"}))
	assert.Error(t, m.Send(context.Background(), Message{To: "a@b.c"}))

	var nilMailer *Mailer
	assert.Error(t, nilMailer.Send(context.Background(), Message{To: "a@b.c", PlainText: "x"}))
}
