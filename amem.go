// Package amem is the engine's public façade: it wires the graph store,
// on-disk codec, index builder, embedder, and the query/algo/cognitive/
// maintenance layers together behind the small operation set an external
// caller (CLI, SDK, RPC adapter) actually needs (§6.3). Every exported
// operation here is a thin composition of an already-tested internal or
// sibling package; the façade itself holds no algorithm.
package amem

import (
	"log/slog"
	"sync"

	"github.com/orneryd/amem/algo"
	"github.com/orneryd/amem/cognitive"
	"github.com/orneryd/amem/internal/codec"
	"github.com/orneryd/amem/internal/embed"
	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/maintenance"
	"github.com/orneryd/amem/query"
)

// Re-exported error vocabulary (§7) so callers never need to import
// internal/model directly to inspect what went wrong.
type (
	Error     = model.Error
	ErrorKind = model.ErrorKind
)

const (
	ErrFormatInvalid       = model.KindFormatInvalid
	ErrVersionUnsupported  = model.KindVersionUnsupported
	ErrTruncated           = model.KindTruncated
	ErrChecksumFailed      = model.KindChecksumFailed
	ErrNodeNotFound        = model.KindNodeNotFound
	ErrEdgeEndpointInvalid = model.KindEdgeEndpointInvalid
	ErrRangeViolation      = model.KindRangeViolation
	ErrCycle               = model.KindCycle
	ErrDimensionMismatch   = model.KindDimensionMismatch
	ErrIO                  = model.KindIO
	ErrIndexMissing        = model.KindIndexMissing
	ErrCancelled           = model.KindCancelled
)

// Re-exported domain vocabulary so callers building against amem never
// need to import internal/model for the fixed kind enumerations either.
type (
	EventKind = model.EventKind
	EdgeKind  = model.EdgeKind
	NodeID    = model.NodeID
	Direction = model.Direction
)

const (
	KindFact       = model.KindFact
	KindDecision   = model.KindDecision
	KindInference  = model.KindInference
	KindCorrection = model.KindCorrection
	KindSkill      = model.KindSkill
	KindEpisode    = model.KindEpisode
)

const (
	EdgeCausedBy    = model.EdgeCausedBy
	EdgeSupports    = model.EdgeSupports
	EdgeContradicts = model.EdgeContradicts
	EdgeSupersedes  = model.EdgeSupersedes
	EdgeRelatedTo   = model.EdgeRelatedTo
)

const (
	Forward  = model.Forward
	Backward = model.Backward
)

// DefaultDimension is the feature-vector width new engines use when
// Create is not given an explicit WithDimension option.
const DefaultDimension = 128

// Config holds every option Create/Open accept, built up via functional
// options in the teacher's field-group-struct style
// (pkg/config/config.go's grouped Config plus constructor functions).
type Config struct {
	Dimension int
	EncodeCfg codec.EncodeConfig
	IndexCfg  index.BuildConfig
	Embedder  embed.Embedder
}

// Option configures a Config.
type Option func(*Config)

// WithDimension sets the embedding dimension for a newly created engine.
// Ignored by Open, which takes the dimension recorded in the file.
func WithDimension(dim int) Option {
	return func(c *Config) { c.Dimension = dim }
}

// WithIndexConfig overrides which auxiliary indexes are built and
// maintained.
func WithIndexConfig(cfg index.BuildConfig) Option {
	return func(c *Config) { c.IndexCfg = cfg }
}

// WithEncodeConfig overrides the on-disk encoding options used on Close.
func WithEncodeConfig(cfg codec.EncodeConfig) Option {
	return func(c *Config) { c.EncodeCfg = cfg }
}

// WithEmbedder overrides the default hashed-feature embedder, e.g. with
// a caller-supplied model-backed implementation.
func WithEmbedder(e embed.Embedder) Option {
	return func(c *Config) { c.Embedder = e }
}

func defaultConfig() Config {
	return Config{
		Dimension: DefaultDimension,
		EncodeCfg: codec.DefaultEncodeConfig(),
		IndexCfg:  index.DefaultBuildConfig(),
	}
}

// Engine is an open cognitive graph: a mutable in-memory graph plus the
// index and query/algo/cognitive/maintenance sources built over it. It
// holds the whole graph in memory while open — the memory-mapped
// internal/reader path is a separate, read-only way to view an encoded
// file and isn't used here, since Add/Link need write access reader
// deliberately doesn't provide.
type Engine struct {
	mu   sync.RWMutex
	path string
	cfg  Config

	graph *graphmem.Graph
	idx   *index.Set

	q     *query.Source
	cog   *cognitive.Source
	maint *maintenance.Source

	indexStale bool
}

// Create makes a new, empty engine backed by path. The file is not
// written until Close (or Flush).
func Create(path string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Embedder == nil {
		cfg.Embedder = embed.NewHashEmbedder(cfg.Dimension)
	}

	g := graphmem.New(cfg.Dimension)
	e := &Engine{path: path, cfg: cfg, graph: g}
	e.rebuildIndex()
	slog.Info("engine created", "path", path, "dimension", cfg.Dimension)
	return e, nil
}

// Open loads an existing engine file into memory for reading and
// mutation. The file's own dimension overrides any WithDimension option.
func Open(path string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g, idx, err := codec.OpenFile(path)
	if err != nil {
		slog.Error("engine open failed", "path", path, "error", err)
		return nil, err
	}
	if cfg.Embedder == nil || cfg.Embedder.Dimension() != g.Dimension() {
		cfg.Embedder = embed.NewHashEmbedder(g.Dimension())
	}
	cfg.Dimension = g.Dimension()

	e := &Engine{path: path, cfg: cfg, graph: g, idx: idx}
	e.wireSources()
	slog.Info("engine opened", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return e, nil
}

// Close flushes the engine's state to its file and releases resources.
// An engine must not be used after Close.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := codec.WriteFile(e.path, e.graph, e.cfg.EncodeCfg); err != nil {
		slog.Error("engine close failed", "path", e.path, "error", err)
		return err
	}
	slog.Info("engine closed", "path", e.path, "nodes", e.graph.NodeCount())
	return nil
}

// Flush writes the engine's current state to disk without closing it,
// useful for long-running processes that want periodic durability.
func (e *Engine) Flush() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return codec.WriteFile(e.path, e.graph, e.cfg.EncodeCfg)
}

// rebuildIndex rebuilds the index set from the current graph and rewires
// the query/cognitive/maintenance sources over it. Called once by Create,
// and lazily by Query and Cognitive once Add/Link have marked the index
// stale; Open reuses the index set decoded from the file instead.
func (e *Engine) rebuildIndex() {
	e.idx = index.Build(e.graph, e.cfg.IndexCfg)
	e.wireSources()
	e.indexStale = false
	slog.Debug("index rebuilt", "path", e.path, "nodes", e.graph.NodeCount())
}

func (e *Engine) wireSources() {
	e.q = query.New(e.graph).WithIndex(e.idx)
	e.cog = cognitive.New(e.graph, e.q)
	e.maint = maintenance.New(e.graph)
}

// Add inserts a new event node, embedding its content with the engine's
// configured embedder when the engine carries a nonzero dimension.
func (e *Engine) Add(kind EventKind, content string, session uint32, confidence float32, metadata map[string]string) (NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var vector []float32
	if e.cfg.Dimension > 0 {
		vector = e.cfg.Embedder.Embed(content)
	}
	timestamp := timestampFor(e.graph)

	id, err := e.graph.AddNode(kind, session, confidence, timestamp, content, metadata, vector)
	if err != nil {
		return 0, err
	}
	e.indexStale = true
	return id, nil
}

// Embed runs text through the engine's configured embedder, giving a
// caller with only text (not an already-computed vector) a way to reach
// Query().Similar and Query().Hybrid, both of which take a vector rather
// than embedding on the caller's behalf. Returns nil if the engine was
// opened with dimension zero (vectors disabled for this file).
func (e *Engine) Embed(text string) []float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cfg.Dimension == 0 {
		return nil
	}
	return e.cfg.Embedder.Embed(text)
}

// timestampFor derives a monotonic logical timestamp from the current
// node count so tests and callers that never supply wall-clock time
// still get a strictly increasing sequence. Callers who need real
// wall-clock timestamps should encode them into metadata; the file
// format's Timestamp field is caller-defined units throughout (§4.1).
func timestampFor(g *graphmem.Graph) int64 {
	return int64(g.NodeCount())
}

// Link creates a directed, weighted edge between two existing nodes.
func (e *Engine) Link(src, dst NodeID, kind EdgeKind, weight float32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.graph.AddEdge(src, dst, kind, weight)
	if err != nil {
		return 0, err
	}
	e.indexStale = true
	return idx, nil
}

// Get returns a node's current view and records an access against its
// decay bookkeeping (reinforcement-on-access): the node's "_access_count"
// metadata value is incremented in place and written to disk with the
// rest of the metadata on the next flush. The returned view is taken
// before the increment.
func (e *Engine) Get(id NodeID) (model.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.graph.Node(id)
	if ok {
		e.graph.Touch(id)
	}
	return node, ok
}

// Neighbors returns the edges incident to id in the given direction.
func (e *Engine) Neighbors(id NodeID, direction Direction) []model.Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch direction {
	case Backward:
		return e.graph.InEdges(id)
	case model.Both:
		edges := append([]model.Edge(nil), e.graph.OutEdges(id)...)
		return append(edges, e.graph.InEdges(id)...)
	}
	return e.graph.OutEdges(id)
}

// Query returns the query.Source backing retrieval operations
// (ByType/BySession/InTimeRange/Traverse/Context/Similar/TextSearch/
// Hybrid/Resolve/Impact), rebuilding the index first if a mutation has
// happened since the last rebuild. Similar and Hybrid take a vector, not
// text; a caller starting from text calls Engine.Embed first to get one.
func (e *Engine) Query() *query.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexStale {
		e.rebuildIndex()
	}
	return e.q
}

// Algo exposes the read-only graph algorithms (PageRank, centrality,
// shortest path) over the engine's current graph.
func (e *Engine) Algo() model.View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// Cognitive returns the cognitive.Source backing revise/gaps/analogy/
// consolidate/drift, rebuilding the index first if stale.
func (e *Engine) Cognitive() *cognitive.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexStale {
		e.rebuildIndex()
	}
	return e.cog
}

// Maintenance returns the maintenance.Source backing storage-budget
// projection, rollup, and auto-capture.
func (e *Engine) Maintenance() *maintenance.Source {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maint
}

// Stats summarizes the engine's current size (§6.3).
type Stats struct {
	NodeCount    int
	EdgeCount    int
	SessionCount int
	PerKind      map[EventKind]int
}

// Stats reports node/edge/session counts and a per-kind node breakdown.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	perKind := make(map[EventKind]int)
	n := e.graph.NodeCount()
	for i := 0; i < n; i++ {
		node, ok := e.graph.Node(model.NodeID(i))
		if !ok {
			continue
		}
		perKind[node.Kind]++
	}

	return Stats{
		NodeCount:    n,
		EdgeCount:    e.graph.EdgeCount(),
		SessionCount: e.graph.SessionCount(),
		PerKind:      perKind,
	}
}

// CentralityMetric selects which algo package computation Centrality
// runs.
type CentralityMetric string

const (
	CentralityDegree      CentralityMetric = "degree"
	CentralityBetweenness CentralityMetric = "betweenness"
	CentralityPageRank    CentralityMetric = "pagerank"
)

// Centrality scores every node in the graph by the requested metric
// (§6.3, centrality(metric)).
func (e *Engine) Centrality(metric CentralityMetric) map[NodeID]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch metric {
	case CentralityBetweenness:
		return algo.BetweennessCentrality(e.graph)
	case CentralityPageRank:
		return algo.PageRank(e.graph)
	default:
		return algo.DegreeCentrality(e.graph)
	}
}

// PathAlgorithm selects which algo package implementation ShortestPath
// uses.
type PathAlgorithm string

const (
	// PathBFS is unweighted bidirectional breadth-first search.
	PathBFS PathAlgorithm = "bfs"
	// PathDijkstra is weighted single-source shortest path.
	PathDijkstra PathAlgorithm = "dijkstra"
)

// ShortestPath finds a path between src and dst using the requested
// algorithm (§6.3, shortest_path(src, dst, algorithm)). BFS ignores edge
// weight and reports the path's hop count as its distance; Dijkstra
// honors weight and reports the total path cost.
func (e *Engine) ShortestPath(src, dst NodeID, algorithm PathAlgorithm) ([]NodeID, float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if algorithm == PathDijkstra {
		path, cost, err := algo.Dijkstra(e.graph, src, dst)
		return path, cost, err
	}

	path, ok := algo.ShortestPath(e.graph, src, dst)
	if !ok {
		return nil, 0, model.New(model.KindNodeNotFound, "no path between nodes")
	}
	return path, float64(len(path) - 1), nil
}
