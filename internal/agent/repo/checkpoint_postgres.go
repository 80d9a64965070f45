package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storechat/server/internal/agent/model"
	errx "github.com/storechat/server/internal/core/error"
	logx "github.com/storechat/server/pkg/logger"
)

const checkpointTable = "checkpoints"

// PostgresCheckpointStore keeps one row per thread in the checkpoints table.
type PostgresCheckpointStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCheckpointStore(pool *pgxpool.Pool) *PostgresCheckpointStore {
	return &PostgresCheckpointStore{pool: pool}
}

func (s *PostgresCheckpointStore) Load(ctx context.Context, threadID string) (*model.ConversationState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`select state from checkpoints where thread_id = $1`, threadID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewConversationState(threadID), nil
		}
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to load checkpoint from postgres")
		return nil, errx.WrapPostgres(err, checkpointTable)
	}

	var state model.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	state.ThreadID = threadID
	return &state, nil
}

func (s *PostgresCheckpointStore) Save(ctx context.Context, state *model.ConversationState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`insert into checkpoints (thread_id, state, updated_at)
		 values ($1, $2, now())
		 on conflict (thread_id) do update set state = excluded.state, updated_at = now()`,
		state.ThreadID, b,
	)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("failed to write checkpoint to postgres")
		return errx.WrapPostgres(err, checkpointTable)
	}
	return nil
}

func (s *PostgresCheckpointStore) Clear(ctx context.Context, threadID string) error {
	_, err := s.pool.Exec(ctx, `delete from checkpoints where thread_id = $1`, threadID)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to clear checkpoint in postgres")
		return errx.WrapPostgres(err, checkpointTable)
	}
	return nil
}

var _ model.CheckpointStore = (*PostgresCheckpointStore)(nil)
