package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/storechat/server/internal/channel"
	logx "github.com/storechat/server/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handleWebsocket serves an interactive chat session. Clients may send plain
// text frames or JSON objects with a "text" field; replies are always JSON
// frames typed "message" or "error".
func (s *Server) handleWebsocket(c *gin.Context) {
	clientID := c.Param("client_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to upgrade websocket")
		return
	}
	defer conn.Close()

	logx.Info().Str("client_id", clientID).Msg("Websocket client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logx.Info().Str("client_id", clientID).Msg("Websocket client disconnected")
			return
		}

		text := extractText(data)
		if text == "" {
			continue
		}

		reply, err := s.service.HandleMessage(c.Request.Context(), channel.ChannelWebsocket, clientID, text)
		switch {
		case err != nil:
			writeFrame(conn, wsFrame{Type: "error", Text: channel.FailureReply})
		case reply == channel.TooLongReply:
			writeFrame(conn, wsFrame{Type: "error", Text: reply})
		default:
			if !writeFrame(conn, wsFrame{Type: "message", Text: reply}) {
				return
			}
		}
	}
}

// extractText accepts either a JSON object with a "text" field or a raw text
// frame.
func extractText(data []byte) string {
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err == nil && frame.Text != "" {
		return frame.Text
	}
	return string(data)
}

func writeFrame(conn *websocket.Conn, frame wsFrame) bool {
	if err := conn.WriteJSON(frame); err != nil {
		logx.Warn().Err(err).Msg("Failed to write websocket frame")
		return false
	}
	return true
}
