package pathfind

import (
	"fmt"
	"strings"

	"github.com/bioreason/hypothesis/pkg/kg"
)

// strengthFloor prevents a single zero-strength edge from collapsing the
// whole path confidence product.
const strengthFloor = 0.01

// Strategy names used by the finder dispatch.
const (
	StrategyShortest       = "shortest"
	StrategyHighConfidence = "high_confidence"
	StrategyRandomWaypoint = "random_waypoint"
	StrategyDiverse        = "diverse"
)

// PathResult is an immutable ranked reasoning path between two concepts.
type PathResult struct {
	Source        string     `json:"source"`
	Target        string     `json:"target"`
	NodeIDs       []string   `json:"node_ids"`
	Nodes         []*kg.Node `json:"nodes"`
	Edges         []*kg.Edge `json:"edges"`
	TotalStrength float64    `json:"total_strength"`
	PathString    string     `json:"path_string"`
	Rationale     []string   `json:"rationale"`
	Strategy      string     `json:"strategy"`
}

// Strategy is a single path-search algorithm over an index. Find returns
// false when no path within maxLength hops exists.
type Strategy interface {
	Name() string
	Find(source, target string, maxLength int) (*PathResult, bool)
}

// buildResult assembles a PathResult from an ordered node-id sequence.
// Between consecutive nodes the max-strength edge is chosen; waypoint
// detours may leave consecutive nodes connected only in reverse, in which
// case the reverse edge is used. TotalStrength is the product of the chosen
// edges' strengths, each floored at strengthFloor.
func buildResult(idx *kg.Index, nodeIDs []string, strategy string) *PathResult {
	if len(nodeIDs) == 0 {
		return nil
	}

	result := &PathResult{
		Source:        nodeIDs[0],
		Target:        nodeIDs[len(nodeIDs)-1],
		NodeIDs:       nodeIDs,
		TotalStrength: 1.0,
		Strategy:      strategy,
	}

	for _, id := range nodeIDs {
		if node, ok := idx.Node(id); ok {
			result.Nodes = append(result.Nodes, node)
		}
	}

	var trace strings.Builder
	trace.WriteString(labelFor(idx, nodeIDs[0]))
	for i := 0; i+1 < len(nodeIDs); i++ {
		edge, ok := idx.BestEdgeBetween(nodeIDs[i], nodeIDs[i+1])
		if !ok {
			edge, ok = idx.BestEdgeBetween(nodeIDs[i+1], nodeIDs[i])
		}
		if ok {
			result.Edges = append(result.Edges, edge)
			strength := edge.Strength
			if strength < strengthFloor {
				strength = strengthFloor
			}
			result.TotalStrength *= strength
			fmt.Fprintf(&trace, " --[%s]--> %s", edge.Label, labelFor(idx, nodeIDs[i+1]))
		} else {
			fmt.Fprintf(&trace, " ~~> %s", labelFor(idx, nodeIDs[i+1]))
		}
	}
	result.PathString = trace.String()
	result.Rationale = buildRationale(result, strategy)

	return result
}

func labelFor(idx *kg.Index, id string) string {
	if node, ok := idx.Node(id); ok && node.Label != "" {
		return node.Label
	}
	return id
}

// reversePath returns a reversed copy of ids.
func reversePath(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
