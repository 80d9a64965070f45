package conversations

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTurns(t *testing.T) {
	t.Run("empty history has no turns", func(t *testing.T) {
		assert.Empty(t, SplitTurns(nil))
	})

	t.Run("each human message starts a new turn", func(t *testing.T) {
		msgs := []*schema.Message{
			schema.UserMessage("hi"),
			schema.AssistantMessage("hello!", nil),
			schema.UserMessage("show me laptops"),
			schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1"}}),
			schema.ToolMessage(`{"type":"search_results"}`, "call_1"),
			schema.AssistantMessage("Here are some laptops.", nil),
			schema.UserMessage("thanks"),
		}

		turns := SplitTurns(msgs)
		require.Len(t, turns, 3)
		assert.Len(t, turns[0], 2)
		assert.Len(t, turns[1], 4)
		assert.Len(t, turns[2], 1)
	})

	t.Run("leading assistant messages join the first turn", func(t *testing.T) {
		msgs := []*schema.Message{
			schema.AssistantMessage("welcome back", nil),
			schema.UserMessage("hi"),
		}

		turns := SplitTurns(msgs)
		require.Len(t, turns, 2)
		assert.Equal(t, schema.Assistant, turns[0][0].Role)
	})

	t.Run("nil entries are skipped", func(t *testing.T) {
		msgs := []*schema.Message{nil, schema.UserMessage("hi"), nil}
		turns := SplitTurns(msgs)
		require.Len(t, turns, 1)
		assert.Len(t, turns[0], 1)
	})
}

func TestFlatten(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("a"),
		schema.AssistantMessage("b", nil),
		schema.UserMessage("c"),
	}

	assert.Equal(t, msgs, Flatten(SplitTurns(msgs)))
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		name string
		msg  *schema.Message
		want string
	}{
		{"user message", schema.UserMessage("hi there"), "User: hi there"},
		{"assistant message", schema.AssistantMessage("hello", nil), "Assistant: hello"},
		{"system message skipped", schema.SystemMessage("persona"), ""},
		{"tool result skipped", schema.ToolMessage("{}", "call_1"), ""},
		{"pure tool call skipped", schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1"}}), ""},
		{"whitespace only skipped", schema.UserMessage("   "), ""},
		{"nil message", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageText(tt.msg))
		})
	}
}

func TestRenderForSummary(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("do you sell lipstick?"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1"}}),
		schema.ToolMessage(`{"type":"product_details"}`, "call_1"),
		schema.AssistantMessage("Yes, we carry Red Lipstick.", nil),
	}

	want := "User: do you sell lipstick?\nAssistant: Yes, we carry Red Lipstick."
	assert.Equal(t, want, RenderForSummary(msgs))
}
