package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/datasets/forecast"
	"github.com/chashi-bhai/server/internal/agent/datasets/search"
	"github.com/chashi-bhai/server/internal/agent/graph/conversations"
	"github.com/chashi-bhai/server/internal/agent/graph/nodes"
	"github.com/chashi-bhai/server/internal/agent/graph/observers"
	"github.com/chashi-bhai/server/internal/agent/graph/tools"
	"github.com/chashi-bhai/server/internal/agent/knowledge"
	"github.com/chashi-bhai/server/internal/agent/language"
	"github.com/chashi-bhai/server/internal/agent/llm"
	"github.com/chashi-bhai/server/internal/agent/location"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// unknownLocation is reported when no place name could be resolved.
const unknownLocation = "Location not detected"

// Runner is a thin wrapper to execute the compiled graph with the public ChatInput.
type Runner interface {
	Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResponse, error)
}

// Config holds everything needed to compose the full response graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models, the language service, the location resolver and the data sources.
type Config struct {
	ResponseModel   model.ResponseModelConfig
	Conversation    model.ConversationConfig
	Location        model.LocationConfig
	Datasets        model.DatasetsConfig
	Translation     model.TranslationConfig
	Retrieval       model.RetrievalConfig
	Store           cache.Store
	UserContextRepo model.UserContextRepository
	Metrics         *telemetry.Metrics
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Deps        *nodes.Deps
	ChatModels  *llm.ChatModels
	Searchers   []search.Searcher
	ToolTimeout time.Duration
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config  *GraphConfig
	graph   *compose.Graph[*model.Turn, *model.Turn]
	tools   []tool.BaseTool
	engines []model.SearchEngine
}

// Pipeline runs chat turns through the compiled graph.
type Pipeline struct {
	runnable compose.Runnable[*model.Turn, *model.Turn]
	models   *llm.ChatModels
	resolver *location.Resolver
	now      func() time.Time
}

var _ Runner = (*Pipeline)(nil)

// NewPipeline wraps an already compiled graph.
func NewPipeline(runnable compose.Runnable[*model.Turn, *model.Turn], models *llm.ChatModels) *Pipeline {
	return &Pipeline{runnable: runnable, models: models, now: time.Now}
}

// Mode reports which backend answers model-path questions.
func (p *Pipeline) Mode() llm.Mode {
	if p.models == nil {
		return llm.ModeDemo
	}
	return p.models.Mode
}

// Resolver is the location resolver the graph was built with, if any.
func (p *Pipeline) Resolver() *location.Resolver { return p.resolver }

func (p *Pipeline) Invoke(ctx context.Context, in model.ChatInput) (*model.ChatResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.invoke")
	defer span.End()

	start := p.now()
	out, err := p.runnable.Invoke(ctx, &model.Turn{
		ChatInput: in,
		StartedAt: start,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("graph returned no turn")
	}

	name := out.Location.DisplayName
	if name == "" {
		name = out.Location.Name
	}
	if name == "" {
		name = unknownLocation
	}
	used := model.DatasetNames(out.Live.DatasetsUsed)
	if used == nil {
		used = []string{}
	}
	return &model.ChatResponse{
		Reply:           out.Reply,
		DetectedLang:    out.DetectedLang,
		TranslatedQuery: out.Query,
		UserLocation:    name,
		NASADataUsed:    used,
		PerformanceMs:   p.now().Sub(start).Milliseconds(),
	}, nil
}

// BuildResponseGraph composes the chat models, the data sources and the user
// context manager, builds the graph, and returns the Pipeline.
func BuildResponseGraph(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is nil")
	}
	if cfg.UserContextRepo == nil {
		return nil, fmt.Errorf("user context repo is nil")
	}

	cms, err := llm.NewChatModels(ctx, cfg.ResponseModel, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	kb, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	lang := language.NewService(language.NewGoogleTranslator(cfg.Translation), cfg.Store)
	resolver := location.NewDefaultResolver(cfg.Location, cfg.Store, cfg.Metrics, lang)
	searchers := datasets.DefaultSearchers(cfg.Datasets, cfg.Store, cfg.Metrics)

	deps := &nodes.Deps{
		Language:  lang,
		Locations: resolver,
		Users:     conversations.NewUserContextManager(cfg.UserContextRepo, cfg.Conversation),
		Knowledge: kb,
		Live: datasets.NewAggregator(
			datasets.DefaultProviders(cfg.Datasets, cfg.Store, cfg.Metrics),
			datasets.NewReferences(cfg.Store),
			searchers,
			cfg.Datasets,
		),
		Forecasts: forecast.NewDefaultForecaster(cfg.Datasets, cfg.Store, cfg.Metrics),
		Climate:   datasets.NewPower(cfg.Datasets),
		Cache:     cfg.Store,
		Retrieval: cfg.Retrieval,
		LiveModel: cms.Live(),
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Deps:        deps,
		ChatModels:  cms,
		Searchers:   searchers,
		ToolTimeout: cfg.Datasets.SearchTimeout,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("mode", cms.Mode.String()).Msg("Response graph built successfully")
	p := NewPipeline(runnable, cms)
	p.resolver = resolver
	return p, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.Turn, *model.Turn], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Deps == nil || config.Deps.Language == nil || config.Deps.Locations == nil || config.Deps.Users == nil {
		return nil, fmt.Errorf("graph deps are incomplete")
	}
	if config.Deps.Now == nil {
		config.Deps.Now = time.Now
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[*model.Turn, *model.Turn](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools wraps every search engine as a tool and mounts the tools node.
// Without engines a pass-through node takes its place.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	b.tools = tools.GetSearchTools(b.config.Searchers, b.config.ToolTimeout)
	if len(b.tools) == 0 {
		logx.Warn().Msg("No search tools configured")
		return b.graph.AddLambdaNode(nodes.NodeSearchTools, nodes.NewNoSearchNode(),
			compose.WithStatePostHandler(nodes.NewCheckpointPostHandler[[]*schema.Message](nodes.NodeSearchTools, b.config.Deps.Now)),
		)
	}
	infos, err := tools.GetToolInfos(ctx, b.tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}
	for _, info := range infos {
		if e, ok := tools.EngineForTool(info.Name); ok {
			b.engines = append(b.engines, e)
		}
	}

	toolsNode, err := compose.NewToolNode(ctx, nodes.NewSearchToolsConfig(b.tools))
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeSearchTools, toolsNode,
		compose.WithStatePostHandler(nodes.NewCheckpointPostHandler[[]*schema.Message](nodes.NodeSearchTools, b.config.Deps.Now)),
	)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	d := b.config.Deps
	turnCheckpoint := func(node string) compose.GraphAddNodeOpt {
		return compose.WithStatePostHandler(nodes.NewCheckpointPostHandler[*model.Turn](node, d.Now))
	}

	lambdas := []struct {
		key  string
		node *compose.Lambda
		opts []compose.GraphAddNodeOpt
	}{
		{nodes.NodeTranslateIn, nodes.NewTranslateInNode(d), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewTranslateInPreHandler()),
			turnCheckpoint(nodes.NodeTranslateIn),
		}},
		{nodes.NodeLocate, nodes.NewLocateNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeLocate)}},
		{nodes.NodeCanned, nodes.NewCannedNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeCanned)}},
		{nodes.NodeClassify, nodes.NewClassifyNode(), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeClassify)}},
		{nodes.NodeAggregate, nodes.NewAggregateNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeAggregate)}},
		{nodes.NodeRetrieve, nodes.NewRetrieveNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeRetrieve)}},
		{nodes.NodeAssemble, nodes.NewAssembleNode(), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeAssemble)}},
		{nodes.NodeRecall, nodes.NewRecallNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeRecall)}},
		{nodes.NodeSearchPlanner, nodes.NewSearchPlannerNode(b.engines), nil},
		{nodes.NodeCompose, nodes.NewComposeNode(d), []compose.GraphAddNodeOpt{
			compose.WithStatePostHandler(nodes.NewCheckpointPostHandler[[]*schema.Message](nodes.NodeCompose, d.Now)),
		}},
		{nodes.NodeCollect, nodes.NewCollectNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeCollect)}},
		{nodes.NodeAttribute, nodes.NewAttributeNode(), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeAttribute)}},
		{nodes.NodeTranslateOut, nodes.NewTranslateOutNode(d), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeTranslateOut)}},
		{nodes.NodeFormat, nodes.NewFormatNode(), []compose.GraphAddNodeOpt{turnCheckpoint(nodes.NodeFormat)}},
		{nodes.NodeRemember, nodes.NewRememberNode(d), []compose.GraphAddNodeOpt{
			compose.WithStatePostHandler(nodes.NewTimelinePostHandler(nodes.NodeRemember, d.Now)),
		}},
	}
	for _, l := range lambdas {
		if err := b.graph.AddLambdaNode(l.key, l.node, l.opts...); err != nil {
			return fmt.Errorf("add node %s: %w", l.key, err)
		}
	}

	if err := b.graph.AddChatModelNode(nodes.NodeChatModel,
		b.config.ChatModels.Response,
		compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.ChatModels.ModelName, d.Now)),
	); err != nil {
		return fmt.Errorf("add node %s: %w", nodes.NodeChatModel, err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeTranslateIn},
		{nodes.NodeTranslateIn, nodes.NodeLocate},
		{nodes.NodeCanned, nodes.NodeTranslateOut},
		{nodes.NodeClassify, nodes.NodeAggregate},
		{nodes.NodeAggregate, nodes.NodeRetrieve},
		{nodes.NodeRetrieve, nodes.NodeAssemble},
		{nodes.NodeAssemble, nodes.NodeRecall},
		{nodes.NodeSearchPlanner, nodes.NodeSearchTools},
		{nodes.NodeSearchTools, nodes.NodeCompose},
		{nodes.NodeCompose, nodes.NodeChatModel},
		{nodes.NodeChatModel, nodes.NodeCollect},
		{nodes.NodeCollect, nodes.NodeAttribute},
		{nodes.NodeAttribute, nodes.NodeTranslateOut},
		{nodes.NodeTranslateOut, nodes.NodeFormat},
		{nodes.NodeFormat, nodes.NodeRemember},
		{nodes.NodeRemember, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
		}
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	interceptBranch := compose.NewGraphBranch(
		nodes.NewInterceptCondition(b.config.Deps),
		map[string]bool{
			nodes.NodeCanned:   true,
			nodes.NodeClassify: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeLocate, interceptBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intercept branch")
		return fmt.Errorf("error adding intercept branch: %w", err)
	}

	recallBranch := compose.NewGraphBranch(
		nodes.NewRecallCondition(),
		map[string]bool{
			nodes.NodeAttribute:     true,
			nodes.NodeSearchPlanner: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRecall, recallBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding recall branch")
		return fmt.Errorf("error adding recall branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.Turn, *model.Turn], error) {
	// Every node runs at most once per turn.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(40))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
