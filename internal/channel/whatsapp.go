package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logx "github.com/storechat/server/pkg/logger"
)

// WhatsAppConfig carries the Meta Graph API credentials.
type WhatsAppConfig struct {
	AccessToken   string `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken   string `envconfig:"WHATSAPP_VERIFY_TOKEN"`
	APIVersion    string `envconfig:"WHATSAPP_API_VERSION" default:"v19.0"`
}

// WhatsAppWebhookPayload mirrors the webhook shape delivered by the
// WhatsApp Business Cloud API. Only the fields we read are declared.
type WhatsAppWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []WhatsAppMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WhatsAppMessage struct {
	From string `json:"from"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
}

// FirstTextMessage extracts the first inbound text message from a webhook
// payload, if any. Status-only notifications yield ok=false.
func (p *WhatsAppWebhookPayload) FirstTextMessage() (from, body string, ok bool) {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Text == nil || msg.Text.Body == "" {
					continue
				}
				return msg.From, msg.Text.Body, true
			}
		}
	}
	return "", "", false
}

// WhatsAppSender delivers outbound messages via the Graph API.
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsAppSender(cfg WhatsAppConfig) *WhatsAppSender {
	return &WhatsAppSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyToken reports the token expected during webhook subscription.
func (s *WhatsAppSender) VerifyToken() string { return s.cfg.VerifyToken }

// Send delivers a text message to the given recipient number.
func (s *WhatsAppSender) Send(ctx context.Context, to, body string) error {
	if s.cfg.AccessToken == "" || s.cfg.PhoneNumberID == "" {
		return fmt.Errorf("whatsapp credentials are not configured")
	}

	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", s.cfg.APIVersion, s.cfg.PhoneNumberID)
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logx.Error().
			Int("status", resp.StatusCode).
			Str("response", string(detail)).
			Msg("Error sending WhatsApp message")
		return fmt.Errorf("whatsapp send failed with status %d", resp.StatusCode)
	}
	return nil
}
