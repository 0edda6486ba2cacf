package kg

import (
	"sort"
	"strings"
)

// Direction selects edge orientation for neighbor queries.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// NodeStats holds per-node statistics derived by the index builder. Stats are
// computed once at build time and never mutated; rebuild the index to refresh.
type NodeStats struct {
	InDegree      int             `json:"in_degree"`
	OutDegree     int             `json:"out_degree"`
	TotalDegree   int             `json:"total_degree"`
	MeanStrength  float64         `json:"mean_strength"`
	IsHub         bool            `json:"is_hub"`
	NeighborTypes map[string]bool `json:"neighbor_types"`
}

// hubPercentile: nodes in the top 10% by total degree count as hubs.
const hubPercentile = 10

// Index provides adjacency and lookup structures over a KnowledgeGraph.
// All relationships are expressed as id references into the node and edge
// arenas; the index never embeds back-references.
type Index struct {
	graph *KnowledgeGraph

	nodes map[string]*Node
	edges map[string]*Edge

	out    map[string][]*Edge
	in     map[string][]*Edge
	byType map[string][]*Node

	stats map[string]*NodeStats
	hubs  []string

	strengthByType map[string]float64

	fuzzyLookup bool
}

// IndexOption configures index construction.
type IndexOption func(*Index)

// WithExactLookup disables fuzzy label matching; FindNodeByLabel then
// requires an exact label or id match.
func WithExactLookup() IndexOption {
	return func(idx *Index) {
		idx.fuzzyLookup = false
	}
}

// BuildIndex computes adjacency, per-node statistics, hub detection, and the
// edge-strength distribution for the graph in a single pass over its nodes
// and edges.
func BuildIndex(graph *KnowledgeGraph, opts ...IndexOption) *Index {
	idx := &Index{
		graph:          graph,
		nodes:          make(map[string]*Node, len(graph.Nodes)),
		edges:          make(map[string]*Edge, len(graph.Edges)),
		out:            map[string][]*Edge{},
		in:             map[string][]*Edge{},
		byType:         map[string][]*Node{},
		stats:          make(map[string]*NodeStats, len(graph.Nodes)),
		strengthByType: map[string]float64{},
		fuzzyLookup:    true,
	}
	for _, o := range opts {
		o(idx)
	}

	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		idx.nodes[node.ID] = node
		idx.byType[node.Type] = append(idx.byType[node.Type], node)
		idx.stats[node.ID] = &NodeStats{NeighborTypes: map[string]bool{}}
	}

	strengthSums := map[string]float64{}
	typeStrengthSums := map[string]float64{}
	typeStrengthCounts := map[string]int{}

	for i := range graph.Edges {
		edge := &graph.Edges[i]
		idx.edges[edge.ID] = edge
		idx.out[edge.Source] = append(idx.out[edge.Source], edge)
		idx.in[edge.Target] = append(idx.in[edge.Target], edge)

		srcStats := idx.stats[edge.Source]
		dstStats := idx.stats[edge.Target]
		srcStats.OutDegree++
		dstStats.InDegree++
		strengthSums[edge.Source] += edge.Strength
		strengthSums[edge.Target] += edge.Strength
		if dst, ok := idx.nodes[edge.Target]; ok {
			srcStats.NeighborTypes[dst.Type] = true
		}
		if src, ok := idx.nodes[edge.Source]; ok {
			dstStats.NeighborTypes[src.Type] = true
		}

		typeStrengthSums[edge.CorrelationType] += edge.Strength
		typeStrengthCounts[edge.CorrelationType]++
	}

	for id, stats := range idx.stats {
		stats.TotalDegree = stats.InDegree + stats.OutDegree
		if stats.TotalDegree > 0 {
			stats.MeanStrength = strengthSums[id] / float64(stats.TotalDegree)
		}
	}

	for correlationType, sum := range typeStrengthSums {
		idx.strengthByType[correlationType] = sum / float64(typeStrengthCounts[correlationType])
	}

	idx.detectHubs()

	return idx
}

// detectHubs marks every node whose total degree reaches the degree at the
// top-10% rank. Zero-degree nodes are never hubs.
func (idx *Index) detectHubs() {
	n := len(idx.graph.Nodes)
	if n == 0 {
		return
	}

	byDegree := make([]string, 0, n)
	for id := range idx.stats {
		byDegree = append(byDegree, id)
	}
	sort.Slice(byDegree, func(i, j int) bool {
		di := idx.stats[byDegree[i]].TotalDegree
		dj := idx.stats[byDegree[j]].TotalDegree
		if di != dj {
			return di > dj
		}
		return byDegree[i] < byDegree[j]
	})

	rank := n * hubPercentile / 100
	if rank < 1 {
		rank = 1
	}
	threshold := idx.stats[byDegree[rank-1]].TotalDegree

	for _, id := range byDegree {
		stats := idx.stats[id]
		if stats.TotalDegree >= threshold && stats.TotalDegree > 0 {
			stats.IsHub = true
			idx.hubs = append(idx.hubs, id)
		}
	}
}

// Graph returns the indexed graph.
func (idx *Index) Graph() *KnowledgeGraph {
	return idx.graph
}

// Node returns the node with the given id.
func (idx *Index) Node(id string) (*Node, bool) {
	node, ok := idx.nodes[id]
	return node, ok
}

// Edge returns the edge with the given id.
func (idx *Index) Edge(id string) (*Edge, bool) {
	edge, ok := idx.edges[id]
	return edge, ok
}

// Stats returns the derived statistics for a node id.
func (idx *Index) Stats(id string) (*NodeStats, bool) {
	stats, ok := idx.stats[id]
	return stats, ok
}

// Hubs returns the hub nodes in degree-descending order.
func (idx *Index) Hubs() []*Node {
	hubs := make([]*Node, 0, len(idx.hubs))
	for _, id := range idx.hubs {
		hubs = append(hubs, idx.nodes[id])
	}
	return hubs
}

// StrengthDistribution returns the mean edge strength grouped by
// correlation type. Reporting only.
func (idx *Index) StrengthDistribution() map[string]float64 {
	dist := make(map[string]float64, len(idx.strengthByType))
	for k, v := range idx.strengthByType {
		dist[k] = v
	}
	return dist
}

// EdgesFrom returns the outgoing edges of a node.
func (idx *Index) EdgesFrom(id string) []*Edge {
	return idx.out[id]
}

// EdgesTo returns the incoming edges of a node.
func (idx *Index) EdgesTo(id string) []*Edge {
	return idx.in[id]
}

// EdgesBetween returns all edges from source to target.
func (idx *Index) EdgesBetween(source, target string) []*Edge {
	var edges []*Edge
	for _, edge := range idx.out[source] {
		if edge.Target == target {
			edges = append(edges, edge)
		}
	}
	return edges
}

// BestEdgeBetween returns the max-strength edge from source to target, used
// to pick one edge between consecutive path nodes when several exist.
func (idx *Index) BestEdgeBetween(source, target string) (*Edge, bool) {
	var best *Edge
	for _, edge := range idx.out[source] {
		if edge.Target != target {
			continue
		}
		if best == nil || edge.Strength > best.Strength {
			best = edge
		}
	}
	return best, best != nil
}

// Neighbors returns the distinct neighbor nodes of id in the given direction.
func (idx *Index) Neighbors(id string, direction Direction) []*Node {
	seen := map[string]struct{}{}
	var neighbors []*Node

	appendNode := func(nid string) {
		if nid == id {
			return
		}
		if _, ok := seen[nid]; ok {
			return
		}
		if node, ok := idx.nodes[nid]; ok {
			seen[nid] = struct{}{}
			neighbors = append(neighbors, node)
		}
	}

	if direction == DirectionOut || direction == DirectionBoth {
		for _, edge := range idx.out[id] {
			appendNode(edge.Target)
		}
	}
	if direction == DirectionIn || direction == DirectionBoth {
		for _, edge := range idx.in[id] {
			appendNode(edge.Source)
		}
	}

	return neighbors
}

// NodesByType returns all nodes with the given type tag.
func (idx *Index) NodesByType(nodeType string) []*Node {
	return idx.byType[nodeType]
}

// FindNodeByLabel resolves a node by label or id. With fuzzy lookup enabled
// (the default), matching is case-insensitive substring on label or id, with
// exact matches preferred. With fuzzy lookup disabled, only exact matches
// resolve.
func (idx *Index) FindNodeByLabel(query string) (*Node, bool) {
	if query == "" {
		return nil, false
	}
	if node, ok := idx.nodes[query]; ok {
		return node, true
	}

	lowered := strings.ToLower(query)
	var fuzzyMatch *Node
	for i := range idx.graph.Nodes {
		node := &idx.graph.Nodes[i]
		label := strings.ToLower(node.Label)
		if label == lowered {
			return node, true
		}
		if !idx.fuzzyLookup || fuzzyMatch != nil {
			continue
		}
		if strings.Contains(label, lowered) || strings.Contains(strings.ToLower(node.ID), lowered) {
			fuzzyMatch = node
		}
	}

	if fuzzyMatch != nil {
		return fuzzyMatch, true
	}
	return nil, false
}

// FindNodesByMetadata returns nodes whose metadata field contains value as a
// case-insensitive substring. The field may hold a scalar or a list.
func (idx *Index) FindNodesByMetadata(field, value string) []*Node {
	if field == "" || value == "" {
		return nil
	}
	lowered := strings.ToLower(value)

	var matches []*Node
	for i := range idx.graph.Nodes {
		node := &idx.graph.Nodes[i]
		raw, ok := node.Metadata[field]
		if !ok {
			continue
		}
		if metadataValueContains(raw, lowered) {
			matches = append(matches, node)
		}
	}
	return matches
}

func metadataValueContains(raw any, lowered string) bool {
	switch v := raw.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), lowered)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), lowered) {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if strings.Contains(strings.ToLower(s), lowered) {
				return true
			}
		}
	}
	return false
}
