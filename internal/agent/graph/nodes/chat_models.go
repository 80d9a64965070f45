package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/storechat/server/internal/agent/model"
	logx "github.com/storechat/server/pkg/logger"
)

// ChatModel is the language-model backend the graph nodes invoke. The
// assistant step narrows the callable tool set per turn via WithTools; the
// summarizer invokes it bare.
type ChatModel = einomodel.ToolCallingChatModel

// NewGenAIClient creates the shared Gemini API client used by both the chat
// model and the embedder.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModel creates the Gemini chat model with the given configuration.
func NewChatModel(ctx context.Context, client *genai.Client, cfg model.ChatModelConfig) (ChatModel, error) {
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return chatModel, nil
}
