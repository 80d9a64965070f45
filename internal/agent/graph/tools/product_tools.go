package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/storechat/server/internal/agent/model"
	logx "github.com/storechat/server/pkg/logger"
)

// Deps carries the collaborators the catalog tools run against.
type Deps struct {
	Catalog model.Catalog
}

const (
	defaultLookupLimit   = 5
	defaultSearchLimit   = 5
	defaultCategoryLimit = 30
	defaultReviewLimit   = 5
)

// ===================================
// Product Lookup Tool
// ===================================

type GetProductByNameInput struct {
	ProductName string `json:"product_name"`
}

type ProductDetails struct {
	Type  string             `json:"type"`
	Items []model.ProductRow `json:"items"`
}

func newGetProductByNameTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetProductByName,
			Desc: "Fetch specifications, pricing, and stock status ONLY for a specific, known product name. " +
				"Use this tool EXCLUSIVELY when the user asks about a concrete product title they already mentioned or know " +
				"(e.g., \"Essence Mascara\", \"kiwi\"). Do NOT use this tool for general product discovery, brand searches, " +
				"or \"find me\" queries. This tool is strictly for retrieving data on a single, identified product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_name": {
					Type:     "string",
					Desc:     "The exact or near-exact product title the user mentioned.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetProductByNameInput) (any, error) {
			name := strings.TrimSpace(in.ProductName)
			if name == "" {
				return errPayload("missing product_name"), nil
			}

			// Exact title match first, then fall back to hybrid search.
			products, err := deps.Catalog.GetByTitle(ctx, name, defaultLookupLimit)
			if err != nil {
				logx.Error().Err(err).Str("product_name", name).Msg("product lookup failed")
				return errPayload("product lookup is temporarily unavailable"), nil
			}
			if len(products) == 0 {
				products, err = deps.Catalog.SearchHybrid(ctx, name, defaultLookupLimit)
				if err != nil {
					logx.Error().Err(err).Str("product_name", name).Msg("product fallback search failed")
					return errPayload("product lookup is temporarily unavailable"), nil
				}
			}

			return &ProductDetails{Type: "product_details", Items: products}, nil
		},
	)
}

// ===================================
// Free-text Search Tool
// ===================================

type SearchProductsInput struct {
	Query string `json:"query"`
}

type ProductSummary struct {
	Title    string  `json:"title"`
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
	Stock    int     `json:"stock"`
}

type SearchResults struct {
	Type  string           `json:"type"`
	Query string           `json:"query"`
	Items []ProductSummary `json:"items"`
}

func newSearchProductsTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchProducts,
			Desc: "Search the store inventory with free-text keywords and return a ranked list of matching products. " +
				"Use this for discovery queries like \"find me a cheap moisturizer\", brand searches, or when the user " +
				"describes what they want without naming a specific product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text search keywords: product types, brands, attributes.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchProductsInput) (any, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return errPayload("missing query"), nil
			}

			rows, err := deps.Catalog.SearchHybrid(ctx, query, defaultSearchLimit)
			if err != nil {
				logx.Error().Err(err).Str("query", query).Msg("product search failed")
				return errPayload("product search is temporarily unavailable"), nil
			}

			items := make([]ProductSummary, 0, len(rows))
			for _, p := range rows {
				items = append(items, ProductSummary{
					Title:    p.Title,
					Brand:    p.Brand,
					Category: p.Category,
					Price:    p.Price,
					Rating:   p.Rating,
					Stock:    p.Stock,
				})
			}
			return &SearchResults{Type: "search_results", Query: query, Items: items}, nil
		},
	)
}
