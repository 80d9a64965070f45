package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/storechat/server/internal/agent/graph/tools"
)

// Welcome is the fixed greeting the first-ever response on a thread must
// begin with. Later responses must never contain it again.
const Welcome = "Welcome to our store!"

//go:embed template/system_prompt.txt
var coreSystemPrompt string

// SystemPromptInput controls the per-turn instruction assembly.
type SystemPromptInput struct {
	FirstTurn      bool
	ToolsAvailable bool
	Summary        string
}

// RenderSystem renders the assistant system instruction for one turn: the
// base store-support persona plus, when applicable, the turn-status block,
// the empty-toolset guardrail, and the running summary.
func RenderSystem(ctx context.Context, in SystemPromptInput) (string, error) {
	// Render the base persona via the Eino prompt component (Go template)
	// so prompt callbacks fire.
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coreSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Welcome":              Welcome,
		"LookupTool":           tools.ToolGetProductByName,
		"CategoriesTool":       tools.ToolGetTagCategories,
		"CategoryProductsTool": tools.ToolGetProductsInCategory,
		"SearchTool":           tools.ToolSearchProducts,
		"ReviewsTool":          tools.ToolGetProductReviews,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}

	var b strings.Builder
	b.WriteString(msgs[0].Content)

	if !in.FirstTurn {
		b.WriteString("\n\n--- TURN STATUS ---\n" +
			"This is NOT the first message of the conversation. " +
			"The user has already been welcomed. " +
			"DO NOT include '" + Welcome + "' and DO NOT introduce yourself or your services again. " +
			"Focus strictly on answering the current question.")
	}

	if !in.ToolsAvailable {
		b.WriteString("\n\nCRITICAL: No database tools were identified for this query. " +
			"Since tool usage is MANDATORY, you MUST NOT answer from your own knowledge. " +
			"Instead, politely ask the user for more details so you can find the right information.")
	}

	if in.Summary != "" {
		b.WriteString("\n\n--- CONVERSATION SUMMARY ---\n" +
			in.Summary +
			"\n---------------------------\n" +
			"Note: The conversation is already in progress. Do NOT repeat the welcome message.")
	}

	return b.String(), nil
}

// SummarySystem is the dedicated instruction for the history summarizer.
func SummarySystem(maxChars int) string {
	s := "You are a summarization assistant. Update the running summary of a " +
		"customer support chat. Preserve user preferences, constraints, " +
		"product interests, decisions, and unresolved questions. Avoid tool " +
		"call details. Write plain text, no bullets."
	if maxChars > 0 {
		s += fmt.Sprintf(" Keep it under %d characters.", maxChars)
	}
	return s
}

// SummaryUser builds the user prompt merging the prior summary with the
// newly rendered transcript.
func SummaryUser(existing, rendered string) string {
	return fmt.Sprintf("Existing summary:\n%s\n\nNew conversation to summarize:\n%s\n\nUpdated summary:",
		existing, rendered)
}
