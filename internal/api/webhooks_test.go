package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/storechat/server/internal/agent/model"
	"github.com/storechat/server/internal/channel"
)

type nopAgent struct{}

func (nopAgent) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	return "ok", nil
}

type nopCheckpoints struct{}

func (nopCheckpoints) Load(ctx context.Context, threadID string) (*model.ConversationState, error) {
	return model.NewConversationState(threadID), nil
}
func (nopCheckpoints) Save(ctx context.Context, state *model.ConversationState) error { return nil }
func (nopCheckpoints) Clear(ctx context.Context, threadID string) error               { return nil }

func newTestServer(waCfg channel.WhatsAppConfig, tgCfg channel.TelegramConfig) *Server {
	gin.SetMode(gin.TestMode)
	service := channel.NewService(nopAgent{}, nopCheckpoints{}, 1000)
	return NewServer(service, channel.NewWhatsAppSender(waCfg), channel.NewTelegramSender(tgCfg))
}

func TestWhatsAppVerify(t *testing.T) {
	srv := newTestServer(channel.WhatsAppConfig{VerifyToken: "secret"}, channel.TelegramConfig{})

	t.Run("valid subscription echoes the challenge", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=secret", nil)
		srv.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "12345", w.Body.String())
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=wrong", nil)
		srv.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestTelegramWebhookSecret(t *testing.T) {
	srv := newTestServer(channel.WhatsAppConfig{}, channel.TelegramConfig{WebhookSecret: "tg-secret"})

	t.Run("missing secret header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		srv.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("matching secret is accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(channel.SecretTokenHeader, "tg-secret")
		srv.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWhatsAppWebhookAcknowledgesImmediately(t *testing.T) {
	srv := newTestServer(channel.WhatsAppConfig{}, channel.TelegramConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"entry":[{"changes":[{"value":{}}]}]}`))
	req.Header.Set("Content-Type", "application/json")
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}
