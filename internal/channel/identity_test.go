package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveThreadID(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		raw     string
		want    string
	}{
		{
			name:    "whatsapp formatted number keeps leading plus",
			channel: ChannelWhatsApp,
			raw:     "+1 (555) 000-1111",
			want:    "whatsapp:+15550001111",
		},
		{
			name:    "whatsapp plain digits",
			channel: ChannelWhatsApp,
			raw:     "15550001111",
			want:    "whatsapp:15550001111",
		},
		{
			name:    "whatsapp with dashes and spaces",
			channel: ChannelWhatsApp,
			raw:     " 555-000-1111 ",
			want:    "whatsapp:5550001111",
		},
		{
			name:    "whatsapp no digits falls back to raw",
			channel: ChannelWhatsApp,
			raw:     "abc",
			want:    "whatsapp:abc",
		},
		{
			name:    "whatsapp empty falls back to unknown",
			channel: ChannelWhatsApp,
			raw:     "   ",
			want:    "whatsapp:unknown",
		},
		{
			name:    "telegram id used as-is",
			channel: ChannelTelegram,
			raw:     "tg:4821",
			want:    "tg:4821",
		},
		{
			name:    "websocket opaque session id not digit-stripped",
			channel: ChannelWebsocket,
			raw:     "client-42-abc",
			want:    "websocket:client-42-abc",
		},
		{
			name:    "unknown channel normalized like phone",
			channel: "sms",
			raw:     "+66 81 234 5678",
			want:    "sms:+66812345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveThreadID(tt.channel, tt.raw))
		})
	}
}

func TestDeriveThreadIDIsStable(t *testing.T) {
	first := DeriveThreadID(ChannelWhatsApp, "+1 (555) 000-1111")
	second := DeriveThreadID(ChannelWhatsApp, "+1 (555) 000-1111")
	assert.Equal(t, first, second)
}
