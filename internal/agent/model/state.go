package model

import (
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// MessageIDKey is the Extra key carrying the stable per-message identifier.
// Summarization removes compacted messages by this id.
const MessageIDKey = "message_id"

// ConversationState is the unit of persistence per thread: the full message
// history plus the running summary. It is loaded at the start of a turn,
// mutated by the graph nodes, and written back once when the turn ends.
type ConversationState struct {
	ThreadID string            `json:"thread_id"`
	Messages []*schema.Message `json:"messages"`
	Summary  string            `json:"summary,omitempty"`
}

// NewConversationState returns an empty state for a fresh thread.
func NewConversationState(threadID string) *ConversationState {
	return &ConversationState{ThreadID: threadID, Messages: []*schema.Message{}}
}

// Append adds a message to the history, assigning a stable id when missing.
func (s *ConversationState) Append(msg *schema.Message) {
	TagMessageID(msg)
	s.Messages = append(s.Messages, msg)
}

// RemoveByID deletes every message whose id is in ids, preserving order.
func (s *ConversationState) RemoveByID(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	kept := s.Messages[:0]
	for _, msg := range s.Messages {
		if _, drop := ids[MessageID(msg)]; !drop {
			kept = append(kept, msg)
		}
	}
	s.Messages = kept
}

// HumanCount returns the number of user messages in the history.
func (s *ConversationState) HumanCount() int {
	n := 0
	for _, msg := range s.Messages {
		if msg != nil && msg.Role == schema.User {
			n++
		}
	}
	return n
}

// TagMessageID assigns a fresh uuid to the message unless one is already set.
func TagMessageID(msg *schema.Message) {
	if msg == nil {
		return
	}
	if msg.Extra == nil {
		msg.Extra = map[string]any{}
	}
	if _, ok := msg.Extra[MessageIDKey]; !ok {
		msg.Extra[MessageIDKey] = uuid.NewString()
	}
}

// MessageID returns the stable id of a message, or "" when untagged.
func MessageID(msg *schema.Message) string {
	if msg == nil || msg.Extra == nil {
		return ""
	}
	if id, ok := msg.Extra[MessageIDKey].(string); ok {
		return id
	}
	return ""
}

// TurnState stores per-invocation state for the Eino graph. The struct is
// registered as Graph Local State via compose.WithGenLocalState and is only
// touched inside Eino state handlers or compose.ProcessState, which
// serialize access.
type TurnState struct {
	ThreadID     string
	Conversation *ConversationState

	// RetrievedTools is recomputed every turn by the retrieve node and is
	// advisory only: always a subset of the registered tool names.
	RetrievedTools []string

	// TurnTexts accumulates assistant-authored text produced after the
	// triggering human message; the joined result is the turn's reply.
	TurnTexts []string

	ToolCallIDSeq int // synthesizes tool_call_id when the provider omits it

	// Accumulated total LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}

// TurnInput is the graph input for one inbound message.
type TurnInput struct {
	ThreadID string `json:"thread_id"`
	Query    string `json:"query"`
}

// TurnResponseKey is the Extra key on the final assistant message carrying
// the concatenated turn reply.
const TurnResponseKey = "turn_response"
