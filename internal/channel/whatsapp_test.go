package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppFirstTextMessage(t *testing.T) {
	t.Run("extracts sender and body", func(t *testing.T) {
		raw := `{"entry":[{"changes":[{"value":{"messages":[{"from":"15550001111","text":{"body":"hello"}}]}}]}]}`
		var payload WhatsAppWebhookPayload
		require.NoError(t, json.Unmarshal([]byte(raw), &payload))

		from, body, ok := payload.FirstTextMessage()
		require.True(t, ok)
		assert.Equal(t, "15550001111", from)
		assert.Equal(t, "hello", body)
	})

	t.Run("status-only notification has no message", func(t *testing.T) {
		raw := `{"entry":[{"changes":[{"value":{}}]}]}`
		var payload WhatsAppWebhookPayload
		require.NoError(t, json.Unmarshal([]byte(raw), &payload))

		_, _, ok := payload.FirstTextMessage()
		assert.False(t, ok)
	})

	t.Run("non-text message is skipped", func(t *testing.T) {
		raw := `{"entry":[{"changes":[{"value":{"messages":[{"from":"15550001111"}]}}]}]}`
		var payload WhatsAppWebhookPayload
		require.NoError(t, json.Unmarshal([]byte(raw), &payload))

		_, _, ok := payload.FirstTextMessage()
		assert.False(t, ok)
	})
}
