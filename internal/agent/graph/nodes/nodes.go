package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/storechat/server/internal/agent/graph/conversations"
	"github.com/storechat/server/internal/agent/graph/prompts"
	"github.com/storechat/server/internal/agent/graph/retrieval"
	"github.com/storechat/server/internal/agent/graph/tools"
	"github.com/storechat/server/internal/agent/model"
	logx "github.com/storechat/server/pkg/logger"
)

// Node names in the conversation graph.
const (
	NodeToolRetriever = "ToolRetriever"
	NodeSummarizer    = "Summarizer"
	NodeAssistant     = "Assistant"
	NodeToolExecutor  = "ToolExecutor"
)

// NewToolRetrieverPreHandler resets per-turn state before retrieval runs.
func NewToolRetrieverPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.ThreadID = in.ThreadID
		s.RetrievedTools = nil
		s.TurnTexts = nil
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewToolRetrieverNode loads the thread checkpoint, appends the inbound
// human message, and computes the advisory tool subset for this turn.
func NewToolRetrieverNode(
	mm *conversations.ThreadManager,
	retriever *retrieval.Retriever,
	registry *tools.Registry,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) ([]*schema.Message, error) {
		conv, err := mm.BeginTurn(ctx, in.ThreadID, in.Query)
		if err != nil {
			return nil, fmt.Errorf("begin turn: %w", err)
		}

		names := retriever.Retrieve(ctx, in.Query)

		// Invariant: retrieved tools are always a subset of the registry.
		valid := names[:0]
		for _, name := range names {
			if registry.Contains(name) {
				valid = append(valid, name)
			}
		}

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Conversation = conv
			s.RetrievedTools = valid
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		return conv.Messages, nil
	})
}

// NewSummarizeCondition routes to the summarizer when the turn count exceeds
// the trigger threshold, otherwise straight to the assistant.
func NewSummarizeCondition(triggerTurns int) func(context.Context, []*schema.Message) (string, error) {
	return func(ctx context.Context, msgs []*schema.Message) (string, error) {
		turns := conversations.SplitTurns(msgs)
		if len(turns) > triggerTurns {
			logx.Debug().Int("turns", len(turns)).Int("trigger", triggerTurns).
				Msg("History over trigger threshold - routing to Summarizer")
			return NodeSummarizer, nil
		}
		return NodeAssistant, nil
	}
}

// NewSummarizerNode compacts turns older than the keep window into the
// running summary and removes them from the live history. A summarizer model
// failure skips compaction for this turn; the turn still completes.
func NewSummarizerNode(cm ChatModel, cfg model.SummaryConfig) *compose.Lambda {
	keepTurns := cfg.EffectiveKeepTurns()

	return compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) ([]*schema.Message, error) {
		var conv *model.ConversationState
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			conv = s.Conversation
			return nil
		})
		if err != nil || conv == nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		turns := conversations.SplitTurns(conv.Messages)
		if len(turns) <= keepTurns {
			return conv.Messages, nil
		}

		oldTurns := turns[:len(turns)-keepTurns]
		oldMessages := conversations.Flatten(oldTurns)
		rendered := conversations.RenderForSummary(oldMessages)
		if strings.TrimSpace(rendered) == "" && conv.Summary == "" {
			return conv.Messages, nil
		}

		resp, err := cm.Generate(ctx, []*schema.Message{
			schema.SystemMessage(prompts.SummarySystem(cfg.MaxChars)),
			schema.UserMessage(prompts.SummaryUser(conv.Summary, rendered)),
		})
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", conv.ThreadID).
				Msg("Summarizer model call failed - skipping compaction this turn")
			return conv.Messages, nil
		}

		summary := strings.TrimSpace(resp.Content)
		if cfg.MaxChars > 0 {
			summary = truncateAtBudget(summary, cfg.MaxChars)
		}

		removed := map[string]struct{}{}
		for _, msg := range oldMessages {
			if id := model.MessageID(msg); id != "" {
				removed[id] = struct{}{}
			}
		}

		conv.Summary = summary
		conv.RemoveByID(removed)

		logx.Debug().
			Str("thread_id", conv.ThreadID).
			Int("compacted_turns", len(oldTurns)).
			Int("summary_chars", len(summary)).
			Msg("History compacted into summary")

		return conv.Messages, nil
	})
}

// truncateAtBudget hard-cuts text at maxChars characters, trimming trailing
// whitespace. This is a cutoff, not semantic re-summarization.
func truncateAtBudget(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return strings.TrimRight(string(runes[:maxChars]), " \t\r\n")
}

// NewAssistantPreHandler folds tool-result messages coming back from the
// tool executor into the live history. Messages arriving from the retrieve
// and summarize paths are the history itself and are left alone.
func NewAssistantPreHandler() func(context.Context, []*schema.Message, *model.TurnState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, s *model.TurnState) ([]*schema.Message, error) {
		if s.Conversation == nil {
			return nil, fmt.Errorf("conversation state not initialized")
		}
		for _, msg := range in {
			if msg == nil || msg.Role != schema.Tool {
				continue
			}
			if strings.TrimSpace(msg.ToolCallID) == "" {
				// Some providers omit tool_call ids; reuse the most recent
				// assistant call id so the model can correlate the result.
				for i := len(s.Conversation.Messages) - 1; i >= 0; i-- {
					prev := s.Conversation.Messages[i]
					if prev == nil || prev.Role != schema.Assistant || len(prev.ToolCalls) == 0 {
						continue
					}
					if id := strings.TrimSpace(prev.ToolCalls[0].ID); id != "" {
						msg.ToolCallID = id
					}
					break
				}
			}
			s.Conversation.Append(msg)
		}
		return in, nil
	}
}

// NewAssistantNode builds the per-turn instruction context, binds the
// filtered tool subset to the model, and invokes it. A model failure here is
// fatal for the turn and propagates to the channel adapter boundary.
func NewAssistantNode(cm ChatModel, registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		var conv *model.ConversationState
		var retrieved []string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			conv = s.Conversation
			retrieved = s.RetrievedTools
			return nil
		})
		if err != nil || conv == nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		toolInfos, err := registry.InfosFor(ctx, retrieved)
		if err != nil {
			return nil, fmt.Errorf("resolve tool infos: %w", err)
		}

		// First turn only when this is the sole human message ever and no
		// summary exists yet.
		firstTurn := conv.HumanCount() == 1 && conv.Summary == ""

		systemPrompt, err := prompts.RenderSystem(ctx, prompts.SystemPromptInput{
			FirstTurn:      firstTurn,
			ToolsAvailable: len(toolInfos) > 0,
			Summary:        conv.Summary,
		})
		if err != nil {
			return nil, fmt.Errorf("render system prompt: %w", err)
		}

		invocable := cm
		if len(toolInfos) > 0 {
			invocable, err = cm.WithTools(toolInfos)
			if err != nil {
				return nil, fmt.Errorf("bind tools: %w", err)
			}
		}

		logx.Debug().
			Str("thread_id", conv.ThreadID).
			Bool("first_turn", firstTurn).
			Int("bound_tools", len(toolInfos)).
			Msg("AI thinking...")

		return invocable.Generate(ctx, conversations.BuildModelContext(systemPrompt, conv.Messages))
	})
}

// NewAssistantPostHandler folds the model response into state: usage cost
// accounting, tool-call id normalization, history append, turn-text
// accumulation, and the single atomic checkpoint write when the turn ends.
func NewAssistantPostHandler(
	mm *conversations.ThreadManager,
	modelName string,
) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("assistant returned nil message")
		}

		if model.CostEnabled() && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			state.TotalCostUSD += totalC
			logx.Debug().
				Str("thread_id", state.ThreadID).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("LLM usage")
		}

		// Normalize tool calls: some providers omit tool_call IDs.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.Conversation.Append(out)

		if text := strings.TrimSpace(out.Content); text != "" {
			state.TurnTexts = append(state.TurnTexts, text)
		}

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
			return out, nil
		}

		// Terminal assistant message: surface the turn reply and persist the
		// thread state in one write.
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra[model.TurnResponseKey] = strings.Join(state.TurnTexts, "\n\n")

		if err := mm.SaveTurn(ctx, state.Conversation); err != nil {
			logx.Error().Err(err).Str("thread_id", state.ThreadID).
				Msg("Failed to persist conversation checkpoint")
			return nil, err
		}
		logx.Debug().Str("thread_id", state.ThreadID).Msg("Turn complete, checkpoint saved")

		return out, nil
	}
}

// NewToolExecutorCondition routes to the tool executor when the assistant
// requested at least one tool call, otherwise ends the turn. No loop bound
// is enforced here; runaway tool-calling is a model-behavior risk handled by
// the engine's overall step ceiling.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		if input != nil && len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}
		logx.Debug().Msg("No tool calls - continuing to end")
		return compose.END, nil
	}
}
