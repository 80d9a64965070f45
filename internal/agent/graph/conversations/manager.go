package conversations

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/storechat/server/internal/agent/model"
)

// ThreadManager mediates between the graph nodes and the checkpoint store.
type ThreadManager struct {
	checkpoints model.CheckpointStore
}

func NewThreadManager(checkpoints model.CheckpointStore) *ThreadManager {
	return &ThreadManager{checkpoints: checkpoints}
}

// BeginTurn loads the thread state and appends the inbound human message.
// The state is not persisted here; the turn's single atomic write happens in
// SaveTurn when the assistant terminates.
func (m *ThreadManager) BeginTurn(ctx context.Context, threadID, query string) (*model.ConversationState, error) {
	state, err := m.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	state.Append(schema.UserMessage(query))
	return state, nil
}

// SaveTurn persists the full state for the thread.
func (m *ThreadManager) SaveTurn(ctx context.Context, state *model.ConversationState) error {
	return m.checkpoints.Save(ctx, state)
}

// BuildModelContext prepends the system instruction to the live history.
func BuildModelContext(systemPrompt string, messages []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages)+1)
	out = append(out, schema.SystemMessage(systemPrompt))
	out = append(out, messages...)
	return out
}
