package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramSender creates a sender for the given bot token and chat id.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPIBase,
		client:  &http.Client{},
	}
}

// Name implements Sender.
func (s *TelegramSender) Name() string { return "telegram" }

// Send posts a sendMessage request. The subject is ignored: Telegram
// messages carry the body only, formatted as HTML like the original bot.
func (s *TelegramSender) Send(ctx context.Context, _ string, message string) error {
	if s.token == "" || s.chatID == "" {
		return fmt.Errorf("telegram: credentials not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("telegram: decode response: %w", err)
	}
	if !body.OK {
		return fmt.Errorf("telegram: api error: %s", body.Description)
	}
	return nil
}
