package model

import "context"

// CheckpointStore persists serialized conversation state keyed by thread id.
type CheckpointStore interface {
	// Load retrieves the state for a thread, or a fresh empty state when
	// the thread has no history yet.
	Load(ctx context.Context, threadID string) (*ConversationState, error)

	// Save writes the full state for a thread in one atomic operation.
	Save(ctx context.Context, state *ConversationState) error

	// Clear deletes all persisted state for a thread.
	Clear(ctx context.Context, threadID string) error
}
