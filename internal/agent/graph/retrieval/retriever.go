package retrieval

import (
	"context"
	"strings"

	"github.com/storechat/server/internal/agent/graph/tools"
	"github.com/storechat/server/internal/agent/model"
	logx "github.com/storechat/server/pkg/logger"
)

// VectorIndex ranks tool names by semantic similarity to an utterance.
type VectorIndex interface {
	TopK(ctx context.Context, text string, k int) ([]string, error)
}

// Retriever maps the latest human utterance to the tool subset the assistant
// may use this turn: semantic top-k candidates, then a deterministic
// data-driven post-filter. The filter is advisory only; it never expands the
// candidate set.
type Retriever struct {
	index   VectorIndex
	catalog model.Catalog
	allName []string
	topK    int
}

func NewRetriever(index VectorIndex, catalog model.Catalog, allNames []string, cfg model.RetrievalConfig) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{index: index, catalog: catalog, allName: allNames, topK: topK}
}

// Retrieve returns the filtered candidate tool names for the utterance.
// When the vector index is unavailable the full registry is returned so the
// turn still completes.
func (r *Retriever) Retrieve(ctx context.Context, utterance string) []string {
	candidates, err := r.index.TopK(ctx, utterance, r.topK)
	if err != nil || len(candidates) == 0 {
		logx.Warn().Err(err).Msg("Tool retrieval unavailable; falling back to full registry")
		return append([]string(nil), r.allName...)
	}

	filtered := FilterTools(candidates, r.probeProductHit(ctx, utterance), r.probeCategoryHit(ctx, utterance))
	logx.Debug().
		Strs("candidates", candidates).
		Strs("filtered", filtered).
		Msg("Retrieved tools")
	return filtered
}

// probeProductHit checks for direct evidence that the utterance names a
// concrete product: an exact (case-insensitive) title match, or a hybrid
// search hit whose title appears in the utterance or carries the exact-title
// flag. Any query failure means "no hit".
func (r *Retriever) probeProductHit(ctx context.Context, utterance string) bool {
	products, err := r.catalog.GetByTitle(ctx, utterance, 1)
	if err == nil && len(products) > 0 {
		return true
	}

	candidates, err := r.catalog.SearchHybrid(ctx, utterance, 1)
	if err != nil || len(candidates) == 0 {
		return false
	}

	textLower := strings.ToLower(utterance)
	title := strings.ToLower(candidates[0].Title)
	if title != "" && strings.Contains(textLower, title) {
		return true
	}
	return candidates[0].ExactTitleMatch
}

// probeCategoryHit checks whether any known category name appears as a
// substring of the utterance. Any query failure means "no hit".
func (r *Retriever) probeCategoryHit(ctx context.Context, utterance string) bool {
	categories, err := r.catalog.ListCategories(ctx)
	if err != nil {
		return false
	}

	textLower := strings.ToLower(utterance)
	for _, category := range categories {
		cat := strings.TrimSpace(strings.ToLower(category))
		if cat != "" && strings.Contains(textLower, cat) {
			return true
		}
	}
	return false
}

// FilterTools applies the deterministic disambiguation between the
// product-lookup and category-listing tools. It is a pure function: identical
// inputs always yield identical outputs.
//
// When only product evidence is present the category-browsing tool is
// dropped; when only category evidence is present the product-lookup tool is
// dropped; in every other case (both, neither, or one of the two tools not a
// candidate) the candidate set is returned unchanged.
func FilterTools(candidates []string, productHit, categoryHit bool) []string {
	hasProduct := containsName(candidates, productLookupTool)
	hasCategory := containsName(candidates, categoryBrowseTool)
	if !hasProduct || !hasCategory {
		return candidates
	}

	switch {
	case productHit && !categoryHit:
		return withoutName(candidates, categoryBrowseTool)
	case categoryHit && !productHit:
		return withoutName(candidates, productLookupTool)
	default:
		return candidates
	}
}

const (
	productLookupTool  = tools.ToolGetProductByName
	categoryBrowseTool = tools.ToolGetProductsInCategory
)

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func withoutName(names []string, target string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}
