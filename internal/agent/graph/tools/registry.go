package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	logx "github.com/storechat/server/pkg/logger"
)

// Tool names are part of the model-facing contract and must stay stable.
const (
	ToolGetProductByName      = "get_product_by_name"
	ToolGetProductReviews     = "get_product_reviews"
	ToolGetTagCategories      = "get_tag_categories"
	ToolGetProductsInCategory = "get_products_in_category"
	ToolSearchProducts        = "search_products"
)

// ErrorPayload is the typed error envelope a failed or misparameterized tool
// call returns as its result. It is never propagated as a fatal turn error;
// the model reacts to it in natural language on its next reasoning step.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errPayload(msg string) *ErrorPayload {
	return &ErrorPayload{Type: "error", Message: msg}
}

// Descriptor pairs a tool name with its natural-language description,
// used both for semantic retrieval indexing and model-facing docs.
type Descriptor struct {
	Name        string
	Description string
}

// Registry is the closed set of catalog tools the model may invoke.
// Dispatch is by name lookup, never by reflection. The registry and its
// derived tool infos are read-only after startup and safe to share.
type Registry struct {
	ordered []tool.BaseTool
	byName  map[string]tool.BaseTool
	descs   []Descriptor
}

// NewRegistry builds the five catalog tools against the given collaborator.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{byName: map[string]tool.BaseTool{}}
	for _, t := range []tool.BaseTool{
		newGetProductByNameTool(deps),
		newGetProductReviewsTool(deps),
		newGetTagCategoriesTool(deps),
		newGetProductsInCategoryTool(deps),
		newSearchProductsTool(deps),
	} {
		r.add(t)
	}
	return r
}

func (r *Registry) add(t tool.BaseTool) {
	info, err := t.Info(context.Background())
	if err != nil || info == nil {
		// Static tool definitions never fail to describe themselves.
		panic(fmt.Sprintf("tool info unavailable: %v", err))
	}
	r.ordered = append(r.ordered, t)
	r.byName[info.Name] = t
	r.descs = append(r.descs, Descriptor{Name: info.Name, Description: info.Desc})
}

// Tools returns all registered tools in registration order.
func (r *Registry) Tools() []tool.BaseTool {
	return r.ordered
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descs))
	for _, d := range r.descs {
		names = append(names, d.Name)
	}
	return names
}

// Contains reports whether name is a registered tool.
func (r *Registry) Contains(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Descriptors returns name/description pairs for retrieval indexing.
func (r *Registry) Descriptors() []Descriptor {
	return r.descs
}

// ToolInfos returns the schema infos for every registered tool.
func (r *Registry) ToolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	return r.InfosFor(ctx, r.Names())
}

// InfosFor returns the schema infos for the named subset, silently skipping
// names that are not registered so the result stays a registry subset.
func (r *Registry) InfosFor(ctx context.Context, names []string) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		t, ok := r.byName[name]
		if !ok {
			logx.Warn().Str("tool", name).Msg("Skipping unregistered tool name")
			continue
		}
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("get tool info for %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
