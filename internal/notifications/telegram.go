package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shivshakti/boutique-backend/pkg/config"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramChannel posts alerts through the Bot API sendMessage method.
type TelegramChannel struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

type telegramSendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTelegramChannel returns an error when the bot token or chat id is missing.
// No request is made until Deliver is called.
func NewTelegramChannel(cfg config.TelegramConfig, client *http.Client) (*TelegramChannel, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telegram bot token and chat id are required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultTelegramBaseURL
	}
	return &TelegramChannel{
		client:  client,
		baseURL: base,
		token:   strings.TrimSpace(cfg.BotToken),
		chatID:  strings.TrimSpace(cfg.ChatID),
	}, nil
}

func (c *TelegramChannel) Name() string { return ChannelTelegram }

func (c *TelegramChannel) Deliver(ctx context.Context, alert OrderAlert) error {
	payload, err := json.Marshal(telegramSendMessage{
		ChatID:                c.chatID,
		Text:                  alert.PlainText(),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return c.redact(fmt.Errorf("build telegram request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.redact(fmt.Errorf("telegram sendMessage: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var parsed telegramResponse
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode >= http.StatusMultipleChoices || !parsed.OK {
		desc := parsed.Description
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, desc)
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the request URL.
func (c *TelegramChannel) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<redacted>")
	}
	return err
}
