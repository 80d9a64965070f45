// Command indextools embeds every catalog tool description and writes the
// vectors into the tool_embeddings table used by the retriever.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/storechat/server/internal/agent/graph/nodes"
	"github.com/storechat/server/internal/agent/graph/tools"
	"github.com/storechat/server/internal/agent/model"
	"github.com/storechat/server/internal/agent/repo"
	pkgpostgres "github.com/storechat/server/pkg/postgres"
)

type indexConfig struct {
	Postgres  pkgpostgres.Config
	Embedding model.EmbeddingConfig

	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg indexConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	ctx := context.Background()
	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	client, err := nodes.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	embedder := repo.NewGenAIEmbedder(client, cfg.Embedding)
	index := repo.NewPgVectorToolIndex(pool, embedder)
	registry := tools.NewRegistry(tools.Deps{Catalog: repo.NewPostgresCatalog(pool)})

	descriptors := registry.Descriptors()
	for _, d := range descriptors {
		if err := index.Upsert(ctx, d.Name, d.Description); err != nil {
			log.Fatalf("Failed to index tool %q: %v", d.Name, err)
		}
		log.Printf("Indexed tool %q", d.Name)
	}
	log.Printf("Successfully indexed %d tools", len(descriptors))
}
