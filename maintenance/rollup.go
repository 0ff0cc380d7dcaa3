package maintenance

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/amem/internal/model"
)

// SessionStatusKey is the node metadata key a session's last node carries
// to mark the session complete. Rollup only considers a session for
// summarization once its last node has this key set to
// SessionStatusCompleted; the format has no separate session-status
// table, so this is the metadata convention rollup and its callers share.
const SessionStatusKey = "session_status"

// SessionStatusCompleted is the SessionStatusKey value marking a session
// eligible for rollup once it is also old enough.
const SessionStatusCompleted = "completed"

// RollupOptions parameterizes Rollup.
type RollupOptions struct {
	// Now is the current time in the same units as node Timestamps.
	Now int64
	// AgeThreshold is how old (Now - session's last node Timestamp) a
	// completed session must be before it is rolled up.
	AgeThreshold int64
}

// RollupResult describes one session rollup.
type RollupResult struct {
	Session      uint32         `yaml:"session"`
	EpisodeNode  model.NodeID   `yaml:"episode_node"`
	LinkedNodes  []model.NodeID `yaml:"linked_nodes"`  // constituents given a part-of edge
	SkippedNodes []model.NodeID `yaml:"skipped_nodes"` // constituents with outdegree zero, left unlinked
}

// ToYAML renders a batch of rollup results for an operator's audit log,
// using RollupResult's yaml.v3 field tags.
func ToYAML(results []RollupResult) ([]byte, error) {
	return yaml.Marshal(results)
}

// Rollup replaces sessions old enough and marked completed with a single
// episode node summarizing them (§4.9, "Storage budget" / rollup). The
// format is append-only, so "replaced" here means a new episode node is
// added and constituent nodes are linked to it as part-of children,
// never that the constituent nodes are deleted — a session's nodes with
// zero outdegree are left unlinked per §4.9 ("unless their outdegree is
// zero"), since a node nothing else references and that references
// nothing itself contributes no structure the summary needs to capture.
//
// Constituents are linked with EdgePartOf, direction constituent ->
// episode, matching the part-of children §4.9 asks a rollup to preserve.
func (s *Source) Rollup(opts RollupOptions) ([]RollupResult, error) {
	var results []RollupResult
	for _, session := range s.Graph.Sessions() {
		first, last, ok := s.Graph.SessionRange(session)
		if !ok {
			continue
		}
		lastNode, ok := s.Graph.Node(last)
		if !ok || lastNode.Metadata[SessionStatusKey] != SessionStatusCompleted {
			continue
		}
		if opts.Now-lastNode.Timestamp < opts.AgeThreshold {
			continue
		}

		result, err := s.rollupSession(session, first, last, opts.Now)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) rollupSession(session uint32, first, last model.NodeID, now int64) (RollupResult, error) {
	var kindCounts [6]int
	nodeCount := 0
	for id := first; id <= last; id++ {
		node, ok := s.Graph.Node(id)
		if !ok {
			continue
		}
		if int(node.Kind) < len(kindCounts) {
			kindCounts[node.Kind]++
		}
		nodeCount++
	}

	summary := fmt.Sprintf(
		"session %d rollup: %d nodes (facts=%d decisions=%d inferences=%d corrections=%d skills=%d episodes=%d)",
		session, nodeCount,
		kindCounts[model.KindFact], kindCounts[model.KindDecision], kindCounts[model.KindInference],
		kindCounts[model.KindCorrection], kindCounts[model.KindSkill], kindCounts[model.KindEpisode],
	)

	// AddNode extends the session's range so the episode node becomes its
	// new last node. That is harmless here: the episode node carries no
	// metadata, so a later Rollup call's SessionStatusKey check on this
	// session's (now the episode's) last node fails closed and the
	// session is never rolled up twice.
	episode, err := s.Graph.AddNode(model.KindEpisode, session, 1.0, now, summary, nil, nil)
	if err != nil {
		return RollupResult{}, err
	}

	result := RollupResult{Session: session, EpisodeNode: episode}
	for id := first; id <= last; id++ {
		if len(s.Graph.OutEdges(id)) == 0 {
			result.SkippedNodes = append(result.SkippedNodes, id)
			continue
		}
		if _, err := s.Graph.AddEdge(id, episode, model.EdgePartOf, 1.0); err != nil {
			return result, err
		}
		result.LinkedNodes = append(result.LinkedNodes, id)
	}
	return result, nil
}
