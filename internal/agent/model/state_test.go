package model

import (
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStateAppend(t *testing.T) {
	state := NewConversationState("whatsapp:+15550001111")

	msg := schema.UserMessage("hi")
	state.Append(msg)

	require.Len(t, state.Messages, 1)
	assert.NotEmpty(t, MessageID(msg), "appended messages must carry a stable id")
}

func TestTagMessageIDKeepsExistingID(t *testing.T) {
	msg := schema.UserMessage("hi")
	TagMessageID(msg)
	first := MessageID(msg)

	TagMessageID(msg)
	assert.Equal(t, first, MessageID(msg))
}

func TestRemoveByID(t *testing.T) {
	state := NewConversationState("t1")
	a := schema.UserMessage("a")
	b := schema.AssistantMessage("b", nil)
	c := schema.UserMessage("c")
	state.Append(a)
	state.Append(b)
	state.Append(c)

	state.RemoveByID(map[string]struct{}{
		MessageID(a): {},
		MessageID(b): {},
	})

	require.Len(t, state.Messages, 1)
	assert.Equal(t, "c", state.Messages[0].Content)
}

func TestRemoveByIDEmptySetIsNoop(t *testing.T) {
	state := NewConversationState("t1")
	state.Append(schema.UserMessage("a"))

	state.RemoveByID(nil)
	assert.Len(t, state.Messages, 1)
}

func TestHumanCount(t *testing.T) {
	state := NewConversationState("t1")
	state.Append(schema.UserMessage("q1"))
	state.Append(schema.AssistantMessage("a1", nil))
	state.Append(schema.ToolMessage("{}", "call_1"))
	state.Append(schema.UserMessage("q2"))

	assert.Equal(t, 2, state.HumanCount())
}

func TestConversationStateSurvivesJSONRoundTrip(t *testing.T) {
	state := NewConversationState("tg:4821")
	msg := schema.UserMessage("do you sell lipstick?")
	state.Append(msg)
	state.Summary = "User is shopping for makeup."

	raw, err := json.Marshal(state)
	require.NoError(t, err)

	var loaded ConversationState
	require.NoError(t, json.Unmarshal(raw, &loaded))

	assert.Equal(t, state.ThreadID, loaded.ThreadID)
	assert.Equal(t, state.Summary, loaded.Summary)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, MessageID(msg), MessageID(loaded.Messages[0]),
		"message ids must be stable across persistence")
}
