package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/storechat/server/internal/agent/graph/conversations"
	"github.com/storechat/server/internal/agent/graph/nodes"
	"github.com/storechat/server/internal/agent/graph/observers"
	"github.com/storechat/server/internal/agent/graph/retrieval"
	"github.com/storechat/server/internal/agent/graph/tools"
	"github.com/storechat/server/internal/agent/model"
	logx "github.com/storechat/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public TurnInput.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

// Config holds everything needed to compose the conversation graph end-to-end.
type Config struct {
	ChatModel   nodes.ChatModel
	ModelName   string
	Registry    *tools.Registry
	Retriever   *retrieval.Retriever
	Checkpoints model.CheckpointStore
	Summary     model.SummaryConfig
}

// GraphConfig holds the resolved dependencies used while building the graph.
type GraphConfig struct {
	ChatModel     nodes.ChatModel
	ModelName     string
	ThreadManager *conversations.ThreadManager
	Registry      *tools.Registry
	Retriever     *retrieval.Retriever
	Summary       model.SummaryConfig
}

// GraphBuilder handles the construction of the conversation graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	// The post-handler accumulates every assistant-authored text produced
	// after the triggering human message; prefer that over the bare final
	// content so intermediate reasoning text is not lost.
	if out.Extra != nil {
		if response, ok := out.Extra[model.TurnResponseKey].(string); ok {
			return response, nil
		}
	}
	return strings.TrimSpace(out.Content), nil
}

// BuildConversationGraph wires the checkpoint manager, builds the graph, and
// returns a Runner.
func BuildConversationGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is nil")
	}

	mm := conversations.NewThreadManager(cfg.Checkpoints)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModel:     cfg.ChatModel,
		ModelName:     cfg.ModelName,
		ThreadManager: mm,
		Registry:      cfg.Registry,
		Retriever:     cfg.Retriever,
		Summary:       cfg.Summary,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Conversation graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled conversation graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.ThreadManager == nil {
		return nil, fmt.Errorf("thread manager is nil")
	}
	if config.Registry == nil || config.Retriever == nil {
		return nil, fmt.Errorf("tool registry/retriever is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the catalog tools node.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.config.Registry.Tools(),
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls so the
			// model can react in natural language instead of failing the turn.
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"type\":\"error\",\"message\":\"unknown tool %q\"}", name), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode)
	return nil
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeToolRetriever,
		nodes.NewToolRetrieverNode(b.config.ThreadManager, b.config.Retriever, b.config.Registry),
		compose.WithStatePreHandler(nodes.NewToolRetrieverPreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSummarizer,
		nodes.NewSummarizerNode(b.config.ChatModel, b.config.Summary),
	)

	b.graph.AddLambdaNode(nodes.NodeAssistant,
		nodes.NewAssistantNode(b.config.ChatModel, b.config.Registry),
		compose.WithStatePreHandler(nodes.NewAssistantPreHandler()),
		compose.WithStatePostHandler(nodes.NewAssistantPostHandler(b.config.ThreadManager, b.config.ModelName)),
	)
}

// addEdges creates the fixed flow connections between nodes.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeToolRetriever},
		{nodes.NodeSummarizer, nodes.NodeAssistant},
		{nodes.NodeToolExecutor, nodes.NodeAssistant},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	summaryBranch := compose.NewGraphBranch(
		nodes.NewSummarizeCondition(b.config.Summary.TriggerTurns),
		map[string]bool{
			nodes.NodeSummarizer: true,
			nodes.NodeAssistant:  true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeToolRetriever, summaryBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding summarize branch")
		return fmt.Errorf("error adding summarize branch: %w", err)
	}

	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAssistant, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// The controller enforces no tool-loop bound; the engine step ceiling is
	// a generous overall guard only.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(64))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
