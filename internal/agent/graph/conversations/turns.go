package conversations

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// A turn is one human message plus every assistant/tool message up to (not
// including) the next human message.

// SplitTurns partitions messages into turns. Messages preceding the first
// human message are grouped into the leading turn, mirroring insertion order.
func SplitTurns(messages []*schema.Message) [][]*schema.Message {
	var turns [][]*schema.Message
	var current []*schema.Message
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.Role == schema.User && len(current) > 0 {
			turns = append(turns, current)
			current = nil
		}
		current = append(current, msg)
	}
	if len(current) > 0 {
		turns = append(turns, current)
	}
	return turns
}

// Flatten concatenates turns back into a flat message list.
func Flatten(turns [][]*schema.Message) []*schema.Message {
	var out []*schema.Message
	for _, turn := range turns {
		out = append(out, turn...)
	}
	return out
}

// MessageText renders one message as a "Role: content" line for the
// summarizer, or "" when the message has no renderable text (system
// messages, pure tool calls, tool results).
func MessageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}

	var role string
	switch msg.Role {
	case schema.User:
		role = "User"
	case schema.Assistant:
		role = "Assistant"
	default:
		return ""
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return ""
	}
	return role + ": " + content
}

// RenderForSummary renders messages as newline-separated transcript lines,
// skipping messages with no renderable text.
func RenderForSummary(messages []*schema.Message) string {
	var lines []string
	for _, msg := range messages {
		if line := MessageText(msg); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
