package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	errx "github.com/storechat/server/internal/core/error"
	logx "github.com/storechat/server/pkg/logger"
)

// Embedder turns free text into a vector. Satisfied by GenAIEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PgVectorToolIndex performs nearest-neighbor search over tool descriptions
// stored in the tool_embeddings table.
type PgVectorToolIndex struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewPgVectorToolIndex(pool *pgxpool.Pool, embedder Embedder) *PgVectorToolIndex {
	return &PgVectorToolIndex{pool: pool, embedder: embedder}
}

// TopK returns the k tool names whose descriptions are closest to the text.
func (i *PgVectorToolIndex) TopK(ctx context.Context, text string, k int) ([]string, error) {
	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	rows, err := i.pool.Query(ctx,
		`select name from tool_embeddings order by embedding <=> $1 limit $2`,
		pgvector.NewVector(vec), k,
	)
	if err != nil {
		logx.Error().Err(err).Msg("tool vector search failed")
		return nil, errx.WrapPostgres(err, "tool_embeddings")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errx.WrapPostgres(err, "tool_embeddings")
		}
		names = append(names, name)
	}
	return names, errx.WrapPostgres(rows.Err(), "tool_embeddings")
}

// Upsert writes or replaces the embedding for one tool description.
// Used by the cmd/indextools batch job.
func (i *PgVectorToolIndex) Upsert(ctx context.Context, name, description string) error {
	vec, err := i.embedder.Embed(ctx, description)
	if err != nil {
		return err
	}

	_, err = i.pool.Exec(ctx,
		`insert into tool_embeddings (name, description, embedding)
		 values ($1, $2, $3)
		 on conflict (name) do update set description = excluded.description, embedding = excluded.embedding`,
		name, description, pgvector.NewVector(vec),
	)
	if err != nil {
		logx.Error().Err(err).Str("tool", name).Msg("tool embedding upsert failed")
		return errx.WrapPostgres(err, "tool_embeddings")
	}
	return nil
}
