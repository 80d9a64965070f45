package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSystemFirstTurn(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemPromptInput{
		FirstTurn:      true,
		ToolsAvailable: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out, Welcome)
	assert.NotContains(t, out, "TURN STATUS")
	assert.NotContains(t, out, "CONVERSATION SUMMARY")
	assert.NotContains(t, out, "CRITICAL: No database tools")
}

func TestRenderSystemLaterTurnForbidsRegreeting(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemPromptInput{
		FirstTurn:      false,
		ToolsAvailable: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "TURN STATUS")
	assert.Contains(t, out, "DO NOT include '"+Welcome+"'")
}

func TestRenderSystemEmptyToolsetGuardrail(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemPromptInput{
		FirstTurn:      true,
		ToolsAvailable: false,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "MUST NOT answer from your own knowledge")
}

func TestRenderSystemIncludesSummary(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemPromptInput{
		FirstTurn:      false,
		ToolsAvailable: true,
		Summary:        "User is comparing fragrance gift sets.",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "CONVERSATION SUMMARY")
	assert.Contains(t, out, "User is comparing fragrance gift sets.")
}

func TestRenderSystemMentionsEveryTool(t *testing.T) {
	out, err := RenderSystem(context.Background(), SystemPromptInput{
		FirstTurn:      true,
		ToolsAvailable: true,
	})
	require.NoError(t, err)

	for _, name := range []string{
		"get_product_by_name",
		"get_tag_categories",
		"get_products_in_category",
		"search_products",
		"get_product_reviews",
	} {
		assert.Contains(t, out, name)
	}

	// No unresolved template actions left behind.
	assert.NotContains(t, out, "{{")
}

func TestSummarySystem(t *testing.T) {
	assert.Contains(t, SummarySystem(1200), "under 1200 characters")
	assert.False(t, strings.Contains(SummarySystem(0), "characters"),
		"no budget clause when unlimited")
}

func TestSummaryUser(t *testing.T) {
	out := SummaryUser("prior summary", "User: hi\nAssistant: hello")
	assert.Contains(t, out, "prior summary")
	assert.Contains(t, out, "User: hi")
	assert.True(t, strings.HasSuffix(out, "Updated summary:"))
}
