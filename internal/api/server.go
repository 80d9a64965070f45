package api

import (
	"github.com/gin-gonic/gin"

	"github.com/storechat/server/internal/channel"
)

// Server exposes the channel webhooks and the websocket endpoint.
type Server struct {
	service  *channel.Service
	whatsapp *channel.WhatsAppSender
	telegram *channel.TelegramSender
	engine   *gin.Engine
}

func NewServer(service *channel.Service, whatsapp *channel.WhatsAppSender, telegram *channel.TelegramSender) *Server {
	s := &Server{
		service:  service,
		whatsapp: whatsapp,
		telegram: telegram,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	s.engine.POST("/webhook", s.handleWhatsAppWebhook)
	s.engine.GET("/webhook", s.handleWhatsAppVerify)

	s.engine.POST("/telegram/webhook", s.handleTelegramWebhook)

	s.engine.GET("/ws/:client_id", s.handleWebsocket)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
