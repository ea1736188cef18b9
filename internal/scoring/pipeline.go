package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sift/internal/consensus"
	"sift/internal/logging"
	"sift/internal/providers"
	"sift/internal/report"
	"sift/internal/scorecache"
	"sift/internal/workflow"
)

// Node identifiers of the document-scoring graph, exported so callers and
// tests can interrogate execution history by name.
const (
	NodeInit              = "init"
	NodeCacheCheck        = "cache_check"
	NodeExtract           = "extract"
	NodeValidate          = "validate"
	NodePrefilter         = "prefilter"
	NodePack              = "pack"
	NodeAnalyzeMain       = "analyze_main"
	NodeEvaluateNeedsMore = "evaluate_needs_more"
	NodeCallAdditional    = "call_additional"
	NodeAggregate         = "aggregate"
	NodeArbiter           = "arbiter"
	NodeSnapshot          = "snapshot"
	NodeCacheStore        = "cache_store"
	NodeComplete          = "complete"
)

// Deps carries the collaborators and tuned constants the pipeline needs.
// Provider weight tables and thresholds arrive here explicitly rather than
// from ambient state so multiple pipelines with different policies can
// coexist in one process.
type Deps struct {
	Primary   providers.Client
	Secondary []providers.Client
	// Arbiter breaks ties on weak consensus. Optional; without one, weak
	// consensus stands as aggregated.
	Arbiter providers.Client
	Cache   scorecache.Store

	// Weights maps provider IDs to base weights over the full configured
	// set; the aggregator renormalizes over whichever providers succeeded.
	Weights    map[string]float64
	Thresholds consensus.Thresholds
	Bands      report.Bands

	// Retry and NodeTimeout govern the blocking provider-facing nodes.
	Retry       workflow.RetryPolicy
	NodeTimeout time.Duration
	// SecondaryTimeouts bounds individual fan-out calls per provider ID;
	// providers without an entry use NodeTimeout.
	SecondaryTimeouts map[string]time.Duration

	Logger *slog.Logger
}

// Pipeline is the assembled document-scoring workflow. Build it once and
// reuse it for every run; it is stateless across runs.
type Pipeline struct {
	deps   Deps
	def    *workflow.Definition[State]
	exec   *workflow.Executor[State]
	logger *slog.Logger
}

// New validates deps, assembles the graph, and returns a ready pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Primary == nil {
		return nil, errors.New("scoring pipeline: primary provider is required")
	}
	if deps.Cache == nil {
		deps.Cache = scorecache.NewMemory()
	}
	if err := deps.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("scoring pipeline: %w", err)
	}
	if err := deps.Bands.Validate(); err != nil {
		return nil, fmt.Errorf("scoring pipeline: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	p := &Pipeline{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "scoring"),
	}

	def, err := p.buildGraph()
	if err != nil {
		return nil, err
	}
	p.def = def
	p.exec = workflow.NewExecutor(def, workflow.WithLogger[State](deps.Logger))
	return p, nil
}

// buildGraph wires the node library into the fixed document-scoring DAG.
// Edge declaration order is load-bearing: the executor takes the first edge
// whose predicate matches.
func (p *Pipeline) buildGraph() (*workflow.Definition[State], error) {
	oneShot := workflow.RetryPolicy{MaxAttempts: 1}

	b := workflow.NewBuilder[State]("document-scoring", "Document scoring pipeline")

	b.AddNode(workflow.Node[State]{ID: NodeInit, Kind: workflow.KindSource, Handler: p.runInit, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeCacheCheck, Kind: workflow.KindTransform, Handler: p.runCacheCheck, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeExtract, Kind: workflow.KindTransform, Handler: p.runExtract, Retry: p.deps.Retry, Timeout: p.deps.NodeTimeout, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeValidate, Kind: workflow.KindTransform, Handler: p.runValidate, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodePrefilter, Kind: workflow.KindDecision, Handler: p.runPrefilter, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodePack, Kind: workflow.KindTransform, Handler: p.runPack, Retry: oneShot, Blocking: false})
	b.AddNode(workflow.Node[State]{ID: NodeAnalyzeMain, Kind: workflow.KindTransform, Handler: p.runAnalyzeMain, Retry: p.deps.Retry, Timeout: p.deps.NodeTimeout, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeEvaluateNeedsMore, Kind: workflow.KindDecision, Handler: p.runEvaluateNeedsMore, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeCallAdditional, Kind: workflow.KindTransform, Handler: p.runCallAdditional, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeAggregate, Kind: workflow.KindTransform, Handler: p.runAggregate, Retry: oneShot, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeArbiter, Kind: workflow.KindTransform, Handler: p.runArbiter, Retry: p.deps.Retry, Timeout: p.deps.NodeTimeout, Blocking: true})
	b.AddNode(workflow.Node[State]{ID: NodeSnapshot, Kind: workflow.KindTransform, Handler: p.runSnapshot, Retry: oneShot, Blocking: false})
	b.AddNode(workflow.Node[State]{ID: NodeCacheStore, Kind: workflow.KindTransform, Handler: p.runCacheStore, Retry: oneShot, Blocking: false})
	b.AddNode(workflow.Node[State]{ID: NodeComplete, Kind: workflow.KindSink, Handler: p.runComplete, Retry: oneShot, Blocking: true})

	b.AddEdge(NodeInit, NodeCacheCheck, nil)
	b.AddEdge(NodeCacheCheck, NodeComplete, func(s *State) bool { return s.CacheHit })
	b.AddEdge(NodeCacheCheck, NodeExtract, nil)
	b.AddEdge(NodeExtract, NodeValidate, nil)
	b.AddEdge(NodeValidate, NodePrefilter, func(s *State) bool { return s.prefilterEnabled() })
	b.AddEdge(NodeValidate, NodePack, func(s *State) bool { return s.packingEnabled() })
	b.AddEdge(NodeValidate, NodeAnalyzeMain, nil)
	b.AddEdge(NodePrefilter, NodeComplete, func(s *State) bool { return !s.PrefilterPassed })
	b.AddEdge(NodePrefilter, NodePack, func(s *State) bool { return s.packingEnabled() })
	b.AddEdge(NodePrefilter, NodeAnalyzeMain, nil)
	b.AddEdge(NodePack, NodeAnalyzeMain, nil)
	b.AddEdge(NodeAnalyzeMain, NodeEvaluateNeedsMore, nil)
	b.AddEdge(NodeEvaluateNeedsMore, NodeCallAdditional, func(s *State) bool { return s.NeedsMore })
	b.AddEdge(NodeEvaluateNeedsMore, NodeAggregate, nil)
	b.AddEdge(NodeCallAdditional, NodeAggregate, nil)
	b.AddEdge(NodeAggregate, NodeArbiter, func(s *State) bool {
		return p.deps.Arbiter != nil && s.Consensus != nil && s.Consensus.Level == consensus.LevelWeak
	})
	b.AddEdge(NodeAggregate, NodeSnapshot, nil)
	b.AddEdge(NodeArbiter, NodeSnapshot, nil)
	b.AddEdge(NodeSnapshot, NodeCacheStore, nil)
	b.AddEdge(NodeCacheStore, NodeComplete, nil)

	b.SetEntry(NodeInit)
	b.AddExit(NodeComplete)

	return b.Build()
}

// Definition exposes the built graph, primarily for tests.
func (p *Pipeline) Definition() *workflow.Definition[State] { return p.def }
