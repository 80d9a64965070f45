package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/storechat/server/internal/agent/graph"
	"github.com/storechat/server/internal/agent/graph/nodes"
	"github.com/storechat/server/internal/agent/graph/retrieval"
	"github.com/storechat/server/internal/agent/graph/tools"
	"github.com/storechat/server/internal/agent/model"
	"github.com/storechat/server/internal/agent/repo"
	"github.com/storechat/server/internal/api"
	"github.com/storechat/server/internal/channel"
	logx "github.com/storechat/server/pkg/logger"
	pkgpostgres "github.com/storechat/server/pkg/postgres"
	pkgredis "github.com/storechat/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Chat         model.ChatModelConfig
	Embedding    model.EmbeddingConfig
	Summary      model.SummaryConfig
	Retrieval    model.RetrievalConfig
	Conversation model.ConversationConfig

	// HTTP surface
	ListenAddr       string `envconfig:"LISTEN_ADDR" default:":8000"`
	MaxMessageLength int    `envconfig:"MAX_MESSAGE_LENGTH" default:"1000"`

	// Channels
	WhatsApp channel.WhatsAppConfig
	Telegram channel.TelegramConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	pool, err := envCfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise Postgres pool: %v", err)
	}
	defer pool.Close()

	checkpoints, closeCheckpoints, err := buildCheckpointStore(envCfg, pool)
	if err != nil {
		log.Fatalf("Failed to initialise checkpoint store: %v", err)
	}
	defer closeCheckpoints()

	client, err := nodes.NewGenAIClient(ctx, envCfg.APIKey, envCfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	chatModel, err := nodes.NewChatModel(ctx, client, envCfg.Chat)
	if err != nil {
		log.Fatalf("Failed to create chat model: %v", err)
	}

	catalog := repo.NewPostgresCatalog(pool)
	registry := tools.NewRegistry(tools.Deps{Catalog: catalog})

	embedder := repo.NewGenAIEmbedder(client, envCfg.Embedding)
	toolIndex := repo.NewPgVectorToolIndex(pool, embedder)
	retriever := retrieval.NewRetriever(toolIndex, catalog, registry.Names(), envCfg.Retrieval)

	runner, err := graph.BuildConversationGraph(ctx, graph.Config{
		ChatModel:   chatModel,
		ModelName:   envCfg.Chat.Model,
		Registry:    registry,
		Retriever:   retriever,
		Checkpoints: checkpoints,
		Summary:     envCfg.Summary,
	})
	if err != nil {
		log.Fatalf("Failed to build conversation graph: %v", err)
	}

	service := channel.NewService(runner, checkpoints, envCfg.MaxMessageLength)
	server := api.NewServer(
		service,
		channel.NewWhatsAppSender(envCfg.WhatsApp),
		channel.NewTelegramSender(envCfg.Telegram),
	)

	logx.Info().
		Str("addr", envCfg.ListenAddr).
		Str("checkpoint_backend", envCfg.Conversation.Backend).
		Msg("Server starting")

	if err := server.Run(envCfg.ListenAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// buildCheckpointStore selects the checkpoint backend. Redis is the default;
// Postgres reuses the shared pool, so its close func is a no-op.
func buildCheckpointStore(cfg AppConfig, pool *pgxpool.Pool) (model.CheckpointStore, func(), error) {
	switch cfg.Conversation.Backend {
	case "postgres":
		return repo.NewPostgresCheckpointStore(pool), func() {}, nil
	case "redis", "":
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, nil, err
		}
		return repo.NewRedisCheckpointStore(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CHECKPOINT_BACKEND %q", cfg.Conversation.Backend)
	}
}
