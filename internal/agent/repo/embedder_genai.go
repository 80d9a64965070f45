package repo

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/storechat/server/internal/agent/model"
)

// GenAIEmbedder produces text embeddings through the Gemini API client.
type GenAIEmbedder struct {
	client *genai.Client
	cfg    model.EmbeddingConfig
}

func NewGenAIEmbedder(client *genai.Client, cfg model.EmbeddingConfig) *GenAIEmbedder {
	return &GenAIEmbedder{client: client, cfg: cfg}
}

// Embed returns the embedding vector for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedCfg *genai.EmbedContentConfig
	if e.cfg.Dimensions > 0 {
		embedCfg = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(e.cfg.Dimensions)),
		}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model,
		genai.Text(text), embedCfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding for text of %d chars", len(text))
	}
	return resp.Embeddings[0].Values, nil
}
