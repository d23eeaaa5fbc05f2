package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dipbot/internal/pkg/text"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"
	// maxMessageBytes stays under the Bot API limit of 4096 characters.
	maxMessageBytes = 4000
)

// Telegram pushes trade notifications to a chat through the Bot API.
// A failed send is reported once and never retried.
type Telegram struct {
	BotToken string
	ChatID   string
	client   *resty.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return newTelegram(defaultTelegramAPI, botToken, chatID)
}

func newTelegram(baseURL, botToken, chatID string) *Telegram {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	return &Telegram{BotToken: botToken, ChatID: chatID, client: client}
}

func (t *Telegram) SendText(ctx context.Context, msg string) error {
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("telegram bot_token and chat_id are required")
	}
	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       text.Truncate(msg, maxMessageBytes),
		"parse_mode": "Markdown",
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/bot" + t.BotToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	body := resp.Body()
	if resp.IsError() || !gjson.GetBytes(body, "ok").Bool() {
		desc := gjson.GetBytes(body, "description").String()
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("telegram status=%d: %s", resp.StatusCode(), desc)
	}
	return nil
}
