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
// Category Listing Tool
// ===================================

type GetTagCategoriesInput struct{}

type CategoryList struct {
	Type  string   `json:"type"`
	Items []string `json:"items"`
}

func newGetTagCategoriesTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetTagCategories,
			Desc: "List the types of products, departments, or categories available in the store. " +
				"Use this when the user asks \"What products do you sell?\", \"What categories do you have?\", " +
				"\"What types of items are available?\", or \"Show me the store departments\". " +
				"This is the best tool for an overview of the store's inventory structure and departments.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *GetTagCategoriesInput) (any, error) {
			categories, err := deps.Catalog.ListCategories(ctx)
			if err != nil {
				logx.Error().Err(err).Msg("category listing failed")
				return errPayload("category listing is temporarily unavailable"), nil
			}
			if categories == nil {
				categories = []string{}
			}
			return &CategoryList{Type: "categories", Items: categories}, nil
		},
	)
}

// ===================================
// Products In Category Tool
// ===================================

type GetProductsInCategoryInput struct {
	Category string `json:"category"`
}

type CategoryProducts struct {
	Type     string                     `json:"type"`
	Category string                     `json:"category"`
	Items    []model.CategoryProductRow `json:"items"`
}

func newGetProductsInCategoryTool(deps Deps) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetProductsInCategory,
			Desc: "List all products belonging to a specific category or department name. " +
				"Use this when the user wants to see everything in a section (e.g., \"Show me all beauty products\", " +
				"\"What items are in the groceries category?\"). The user must provide a valid category name.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"category": {
					Type:     "string",
					Desc:     "The category or department name, e.g. beauty, fragrances, furniture, groceries.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetProductsInCategoryInput) (any, error) {
			category := strings.TrimSpace(in.Category)
			if category == "" {
				return errPayload("missing category"), nil
			}

			rows, err := deps.Catalog.GetByCategory(ctx, category, defaultCategoryLimit)
			if err != nil {
				logx.Error().Err(err).Str("category", category).Msg("products-in-category lookup failed")
				return errPayload("category browsing is temporarily unavailable"), nil
			}
			if rows == nil {
				rows = []model.CategoryProductRow{}
			}
			return &CategoryProducts{Type: "category_products", Category: category, Items: rows}, nil
		},
	)
}
