package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	logx "github.com/storechat/server/pkg/logger"
)

// TelegramConfig carries the Bot API credentials.
type TelegramConfig struct {
	BotToken      string `envconfig:"TELEGRAM_BOT_TOKEN"`
	WebhookSecret string `envconfig:"TELEGRAM_WEBHOOK_SECRET"`
}

// SecretTokenHeader is set by Telegram on webhook deliveries when a secret
// was registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramUpdate mirrors the Bot API update shape. All post variants carry
// the same message structure.
type TelegramUpdate struct {
	Message           *TelegramMessage `json:"message"`
	EditedMessage     *TelegramMessage `json:"edited_message"`
	ChannelPost       *TelegramMessage `json:"channel_post"`
	EditedChannelPost *TelegramMessage `json:"edited_channel_post"`
}

type TelegramMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// EffectiveMessage returns whichever message variant the update carries.
func (u *TelegramUpdate) EffectiveMessage() *TelegramMessage {
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	}
	return nil
}

// TelegramSender delivers outbound messages via the Telegram Bot API.
type TelegramSender struct {
	cfg    TelegramConfig
	client *http.Client
}

func NewTelegramSender(cfg TelegramConfig) *TelegramSender {
	return &TelegramSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// WebhookSecret reports the secret expected on inbound webhook calls.
// Empty means verification is disabled.
func (s *TelegramSender) WebhookSecret() string { return s.cfg.WebhookSecret }

var bulletRe = regexp.MustCompile(`^(\s*)[*\-]\s+`)

// formatTelegramText normalizes common list markers so model output does not
// trip Telegram's Markdown parser.
func formatTelegramText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = bulletRe.ReplaceAllString(line, "${1}• ")
	}
	return strings.Join(lines, "\n")
}

// Send delivers a text message to the given chat using Markdown parse mode.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	if s.cfg.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.cfg.BotToken)
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     formatTelegramText(text),
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logx.Error().
			Int("status", resp.StatusCode).
			Str("response", string(detail)).
			Msg("Error sending Telegram message")
		return fmt.Errorf("telegram send failed with status %d", resp.StatusCode)
	}
	return nil
}
