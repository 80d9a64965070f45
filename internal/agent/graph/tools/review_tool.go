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

// ===================================
// Product Reviews Tool
// ===================================

type GetProductReviewsInput struct {
	ProductID   int    `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

type ReviewItem struct {
	Comment string `json:"comment"`
}

type ReviewResults struct {
	Type      string       `json:"type"`
	ProductID int          `json:"product_id"`
	Items     []ReviewItem `json:"items"`
}

func newGetProductReviewsTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetProductReviews,
			Desc: "Retrieve customer feedback, ratings, and sentiment for a product. " +
				"Use this when the user asks \"What do people think about this?\", \"Show me reviews for product kiwi\", " +
				"or \"Is this product any good?\". Accepts a numeric product ID, or a product name which is resolved " +
				"to its ID first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {
					Type: "number",
					Desc: "Numeric product ID, when known from an earlier lookup.",
				},
				"product_name": {
					Type: "string",
					Desc: "Product name to resolve when the ID is not known.",
				},
			}),
		},
		func(ctx context.Context, in *GetProductReviewsInput) (any, error) {
			productID := in.ProductID
			if productID <= 0 {
				name := strings.TrimSpace(in.ProductName)
				if name == "" {
					return errPayload("missing product_id or product_name"), nil
				}
				id, ok := resolveProductID(ctx, deps.Catalog, name)
				if !ok {
					return errPayload("no product found matching " + name), nil
				}
				productID = id
			}

			rows, err := deps.Catalog.GetReviews(ctx, productID, defaultReviewLimit)
			if err != nil {
				logx.Error().Err(err).Int("product_id", productID).Msg("review lookup failed")
				return errPayload("reviews are temporarily unavailable"), nil
			}

			items := make([]ReviewItem, 0, len(rows))
			for _, r := range rows {
				items = append(items, ReviewItem{Comment: r.Comment})
			}
			return &ReviewResults{Type: "reviews", ProductID: productID, Items: items}, nil
		},
	)
}

// resolveProductID maps a product name to its id: exact title match first,
// then the top hybrid search hit.
func resolveProductID(ctx context.Context, catalog model.Catalog, name string) (int, bool) {
	products, err := catalog.GetByTitle(ctx, name, 1)
	if err == nil && len(products) > 0 {
		return products[0].ID, true
	}

	products, err = catalog.SearchHybrid(ctx, name, 1)
	if err == nil && len(products) > 0 {
		return products[0].ID, true
	}
	return 0, false
}
