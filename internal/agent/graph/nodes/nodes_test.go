package nodes

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storechat/server/internal/agent/graph/conversations"
	"github.com/storechat/server/internal/agent/model"
)

func historyOfTurns(n int) []*schema.Message {
	var msgs []*schema.Message
	for i := 0; i < n; i++ {
		msgs = append(msgs, schema.UserMessage("question"))
		msgs = append(msgs, schema.AssistantMessage("answer", nil))
	}
	return msgs
}

func TestSummarizeCondition(t *testing.T) {
	ctx := context.Background()
	cond := NewSummarizeCondition(8)

	t.Run("below trigger goes to assistant", func(t *testing.T) {
		next, err := cond(ctx, historyOfTurns(8))
		require.NoError(t, err)
		assert.Equal(t, NodeAssistant, next)
	})

	t.Run("over trigger goes to summarizer", func(t *testing.T) {
		next, err := cond(ctx, historyOfTurns(9))
		require.NoError(t, err)
		assert.Equal(t, NodeSummarizer, next)
	})

	t.Run("empty history goes to assistant", func(t *testing.T) {
		next, err := cond(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, NodeAssistant, next)
	})
}

func TestToolExecutorCondition(t *testing.T) {
	ctx := context.Background()
	cond := NewToolExecutorCondition()

	t.Run("tool calls route to executor", func(t *testing.T) {
		msg := schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1"}})
		next, err := cond(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, NodeToolExecutor, next)
	})

	t.Run("plain text ends the turn", func(t *testing.T) {
		msg := schema.AssistantMessage("all done", nil)
		next, err := cond(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, compose.END, next)
	})
}

func TestTruncateAtBudget(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "hello", truncateAtBudget("hello", 10))
	})

	t.Run("exact length untouched", func(t *testing.T) {
		assert.Equal(t, "hello", truncateAtBudget("hello", 5))
	})

	t.Run("long text hard cut", func(t *testing.T) {
		got := truncateAtBudget(strings.Repeat("ab ", 100), 8)
		assert.Equal(t, "ab ab ab", got)
		assert.LessOrEqual(t, len([]rune(got)), 8)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		got := truncateAtBudget(strings.Repeat("é", 10), 4)
		assert.Equal(t, 4, len([]rune(got)))
	})

	t.Run("trailing whitespace trimmed at the cut", func(t *testing.T) {
		got := truncateAtBudget("word  word", 6)
		assert.Equal(t, "word", got)
	})
}

func TestAssistantPreHandlerFoldsToolResults(t *testing.T) {
	ctx := context.Background()
	handler := NewAssistantPreHandler()

	conv := model.NewConversationState("t1")
	conv.Append(schema.UserMessage("show reviews"))
	assistant := schema.AssistantMessage("", []schema.ToolCall{{ID: "call_7"}})
	conv.Append(assistant)

	state := &model.TurnState{ThreadID: "t1", Conversation: conv}

	result := schema.ToolMessage(`{"type":"reviews"}`, "call_7")
	out, err := handler(ctx, []*schema.Message{result}, state)
	require.NoError(t, err)

	// Tool results are appended to the history; the handler returns the
	// updated history for the model call.
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, schema.Tool, conv.Messages[2].Role)
	assert.Equal(t, out, conv.Messages)
}

func TestAssistantPreHandlerLeavesHistoryAlone(t *testing.T) {
	ctx := context.Background()
	handler := NewAssistantPreHandler()

	conv := model.NewConversationState("t1")
	conv.Append(schema.UserMessage("hi"))
	state := &model.TurnState{ThreadID: "t1", Conversation: conv}

	// Input arriving from the retrieve path is the history itself.
	out, err := handler(ctx, conv.Messages, state)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
	assert.Equal(t, out, conv.Messages)
}

type fakeCheckpoints struct {
	saved []*model.ConversationState
}

func (f *fakeCheckpoints) Load(ctx context.Context, threadID string) (*model.ConversationState, error) {
	return model.NewConversationState(threadID), nil
}

func (f *fakeCheckpoints) Save(ctx context.Context, state *model.ConversationState) error {
	f.saved = append(f.saved, state)
	return nil
}

func (f *fakeCheckpoints) Clear(ctx context.Context, threadID string) error { return nil }

func TestAssistantPostHandler(t *testing.T) {
	ctx := context.Background()

	newState := func() (*model.TurnState, *fakeCheckpoints, func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error)) {
		store := &fakeCheckpoints{}
		mm := conversations.NewThreadManager(store)
		handler := NewAssistantPostHandler(mm, "gemini-2.5-flash")
		conv := model.NewConversationState("t1")
		conv.Append(schema.UserMessage("q"))
		return &model.TurnState{ThreadID: "t1", Conversation: conv}, store, handler
	}

	t.Run("synthesizes missing tool call ids", func(t *testing.T) {
		state, store, handler := newState()

		out := schema.AssistantMessage("", []schema.ToolCall{{}, {}})
		got, err := handler(ctx, out, state)
		require.NoError(t, err)

		assert.Equal(t, "call_1", got.ToolCalls[0].ID)
		assert.Equal(t, "call_2", got.ToolCalls[1].ID)
		assert.Empty(t, store.saved, "no checkpoint write while tool calls are pending")
	})

	t.Run("terminal message persists state and carries the turn reply", func(t *testing.T) {
		state, store, handler := newState()
		state.TurnTexts = []string{"Let me check."}

		out := schema.AssistantMessage("Here are the results.", nil)
		got, err := handler(ctx, out, state)
		require.NoError(t, err)

		require.Len(t, store.saved, 1)
		assert.Equal(t, "Let me check.\n\nHere are the results.", got.Extra[model.TurnResponseKey])
	})

	t.Run("blank intermediate text is not accumulated", func(t *testing.T) {
		state, _, handler := newState()

		_, err := handler(ctx, schema.AssistantMessage("   ", []schema.ToolCall{{ID: "call_1"}}), state)
		require.NoError(t, err)
		assert.Empty(t, state.TurnTexts)
	})
}

func TestAssistantPreHandlerBackfillsToolCallID(t *testing.T) {
	ctx := context.Background()
	handler := NewAssistantPreHandler()

	conv := model.NewConversationState("t1")
	conv.Append(schema.UserMessage("show reviews"))
	conv.Append(schema.AssistantMessage("", []schema.ToolCall{{ID: "call_9"}}))
	state := &model.TurnState{ThreadID: "t1", Conversation: conv}

	result := schema.ToolMessage(`{"type":"reviews"}`, "")
	_, err := handler(ctx, []*schema.Message{result}, state)
	require.NoError(t, err)

	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "call_9", conv.Messages[2].ToolCallID)
}
