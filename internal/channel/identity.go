package channel

import "strings"

// Channel identifiers accepted by DeriveThreadID.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelTelegram  = "telegram"
	ChannelWebsocket = "websocket"
)

// DeriveThreadID maps a (channel, raw sender identifier) pair to the stable
// thread id used as the checkpoint key. It must stay a pure function: the
// same input always yields the same id across restarts.
func DeriveThreadID(channel, raw string) string {
	switch channel {
	case ChannelTelegram:
		// Telegram routers pass a fully qualified id such as "tg:4821".
		return strings.TrimSpace(raw)
	case ChannelWebsocket:
		// Opaque session ids must not be digit-stripped.
		return ChannelWebsocket + ":" + strings.TrimSpace(raw)
	default:
		return channel + ":" + normalizePhone(raw)
	}
}

// normalizePhone strips everything but digits, preserving a leading "+" when
// the raw input carried one. Inputs with no digits at all fall back to the
// trimmed raw value, or "unknown" when even that is empty.
func normalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if digits == "" {
		if trimmed == "" {
			return "unknown"
		}
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits
	}
	return digits
}
