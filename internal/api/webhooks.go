package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/storechat/server/internal/channel"
	logx "github.com/storechat/server/pkg/logger"
)

// handleWhatsAppWebhook acknowledges the delivery immediately and processes
// the message in the background, matching the Graph API's retry semantics.
func (s *Server) handleWhatsAppWebhook(c *gin.Context) {
	var payload channel.WhatsAppWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})

	go s.processWhatsAppMessage(payload)
}

func (s *Server) processWhatsAppMessage(payload channel.WhatsAppWebhookPayload) {
	from, body, ok := payload.FirstTextMessage()
	if !ok {
		return
	}

	ctx := context.Background()
	reply, err := s.service.HandleMessage(ctx, channel.ChannelWhatsApp, from, body)
	if err != nil {
		reply = channel.FailureReply
	}

	if err := s.whatsapp.Send(ctx, from, reply); err != nil {
		logx.Error().Err(err).Str("to", from).Msg("Failed to deliver WhatsApp reply")
	}
}

// handleWhatsAppVerify answers the Graph API subscription challenge.
func (s *Server) handleWhatsAppVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")
	token := c.Query("hub.verify_token")

	if mode == "subscribe" && challenge != "" && token == s.whatsapp.VerifyToken() {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
}

func (s *Server) handleTelegramWebhook(c *gin.Context) {
	if secret := s.telegram.WebhookSecret(); secret != "" {
		if c.GetHeader(channel.SecretTokenHeader) != secret {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update channel.TelegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})

	go s.processTelegramUpdate(update)
}

func (s *Server) processTelegramUpdate(update channel.TelegramUpdate) {
	msg := update.EffectiveMessage()
	if msg == nil || msg.Text == "" {
		return
	}

	// Telegram thread ids are fully qualified before derivation.
	sender := "tg:" + strconv.FormatInt(msg.Chat.ID, 10)

	ctx := context.Background()
	reply, err := s.service.HandleMessage(ctx, channel.ChannelTelegram, sender, msg.Text)
	if err != nil {
		reply = channel.FailureReply
	}

	if err := s.telegram.Send(ctx, msg.Chat.ID, reply); err != nil {
		logx.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to deliver Telegram reply")
	}
}
