package subgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/pathfind"
)

// Resolution and search failures are normal empty-result cases for callers,
// not programmer errors.
var (
	ErrConceptNotFound = errors.New("could not resolve concept")
	ErrNoPath          = errors.New("no path found")
)

// identifierFields is the ordered list of metadata fields tried when a
// concept resolves neither by id nor by label.
var identifierFields = []string{"name", "symbol", "aliases", "accession", "identifier"}

const (
	defaultContextHops     = 2
	defaultMaxContextNodes = 20
	maxHubNodes            = 3
)

// ReasoningSubgraph is the bounded evidence neighborhood assembled around a
// single reasoning path. Built per extraction call; never persisted.
type ReasoningSubgraph struct {
	Path *pathfind.PathResult `json:"path"`

	Nodes []*kg.Node `json:"nodes"`
	Edges []*kg.Edge `json:"edges"`

	ContextNodeIDs []string `json:"context_node_ids"`
	HubNodeIDs     []string `json:"hub_node_ids"`

	NodeTypes   []string `json:"node_types"`
	FeatureTags []string `json:"feature_tags"`

	Narrative string `json:"narrative"`
}

// Extractor expands reasoning paths into bounded subgraphs with context and
// hub nodes.
type Extractor struct {
	idx    *kg.Index
	finder *pathfind.PathFinder

	contextHops     int
	maxContextNodes int
}

// ExtractorParams configures an Extractor. Zero values select the defaults
// (2 context hops, 20 context nodes).
type ExtractorParams struct {
	ContextHops     int
	MaxContextNodes int
}

// NewExtractor creates an extractor over idx.
func NewExtractor(idx *kg.Index, params ExtractorParams) *Extractor {
	hops := params.ContextHops
	if hops <= 0 {
		hops = defaultContextHops
	}
	maxNodes := params.MaxContextNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxContextNodes
	}
	return &Extractor{
		idx:             idx,
		finder:          pathfind.NewPathFinder(idx),
		contextHops:     hops,
		maxContextNodes: maxNodes,
	}
}

// ResolveConcept resolves a concept reference to a node: exact id first,
// then fuzzy label match, then the ordered identifier-like metadata fields.
func (e *Extractor) ResolveConcept(query string) (*kg.Node, error) {
	if node, ok := e.idx.Node(query); ok {
		return node, nil
	}
	if node, ok := e.idx.FindNodeByLabel(query); ok {
		return node, nil
	}
	for _, field := range identifierFields {
		if matches := e.idx.FindNodesByMetadata(field, query); len(matches) > 0 {
			return matches[0], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrConceptNotFound, query)
}

// Extract resolves both concepts, finds one path with the named strategy,
// and expands it into a reasoning subgraph.
func (e *Extractor) Extract(sourceConcept, targetConcept, strategy string, maxLength int) (*ReasoningSubgraph, error) {
	source, err := e.ResolveConcept(sourceConcept)
	if err != nil {
		return nil, err
	}
	target, err := e.ResolveConcept(targetConcept)
	if err != nil {
		return nil, err
	}

	path, found, err := e.finder.FindPath(strategy, source.ID, target.ID, maxLength)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoPath, source.ID, target.ID)
	}

	sg := e.expand([]*pathfind.PathResult{path})
	result := &ReasoningSubgraph{
		Path:           path,
		Nodes:          sg.nodes,
		Edges:          sg.edges,
		ContextNodeIDs: sg.contextIDs,
		HubNodeIDs:     sg.hubIDs,
		NodeTypes:      sg.nodeTypes,
		FeatureTags:    sg.featureTags,
	}
	result.Narrative = singleNarrative(result)

	logger.Debug("[Subgraph] Extracted",
		"source", source.ID,
		"target", target.ID,
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
	)

	return result, nil
}

// expansion is the shared node/edge neighborhood built around one or more
// selected paths.
type expansion struct {
	nodes       []*kg.Node
	edges       []*kg.Edge
	contextIDs  []string
	hubIDs      []string
	nodeTypes   []string
	featureTags []string
	pathNodeIDs map[string]bool
}

// expand grows the path node set with breadth-first context (contextHops
// rounds, capped at maxContextNodes collected nodes) and up to three
// adjacent hub nodes, then assembles the induced edge set and the type and
// feature unions.
func (e *Extractor) expand(paths []*pathfind.PathResult) *expansion {
	included := map[string]bool{}
	pathNodes := map[string]bool{}
	var order []string

	for _, path := range paths {
		for _, id := range path.NodeIDs {
			pathNodes[id] = true
			if !included[id] {
				included[id] = true
				order = append(order, id)
			}
		}
	}

	// Context: BFS outward from every path node, bounded by rounds and by
	// the total collected-node cap.
	var contextIDs []string
	frontier := append([]string{}, order...)
	for hop := 0; hop < e.contextHops && len(contextIDs) < e.maxContextNodes; hop++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range e.idx.Neighbors(id, kg.DirectionBoth) {
				if included[neighbor.ID] {
					continue
				}
				if len(contextIDs) >= e.maxContextNodes {
					break
				}
				included[neighbor.ID] = true
				order = append(order, neighbor.ID)
				contextIDs = append(contextIDs, neighbor.ID)
				next = append(next, neighbor.ID)
			}
		}
		frontier = next
	}

	// Hubs: up to three not-yet-included hub nodes directly adjacent to the
	// path-or-context set, taken in degree-descending order.
	var hubIDs []string
	for _, hub := range e.idx.Hubs() {
		if len(hubIDs) >= maxHubNodes {
			break
		}
		if included[hub.ID] {
			continue
		}
		if !e.adjacentToSet(hub.ID, included) {
			continue
		}
		included[hub.ID] = true
		order = append(order, hub.ID)
		hubIDs = append(hubIDs, hub.ID)
	}

	result := &expansion{
		contextIDs:  contextIDs,
		hubIDs:      hubIDs,
		pathNodeIDs: pathNodes,
	}

	typeSet := map[string]bool{}
	tagSet := map[string]bool{}
	for _, id := range order {
		node, ok := e.idx.Node(id)
		if !ok {
			continue
		}
		result.nodes = append(result.nodes, node)
		typeSet[node.Type] = true
		for _, tag := range node.FeatureTags() {
			tagSet[tag] = true
		}
	}

	// Induced edges over the included node set.
	seenEdges := map[string]bool{}
	for _, node := range result.nodes {
		for _, edge := range e.idx.EdgesFrom(node.ID) {
			if !included[edge.Target] || seenEdges[edge.ID] {
				continue
			}
			seenEdges[edge.ID] = true
			result.edges = append(result.edges, edge)
		}
	}

	result.nodeTypes = sortedKeys(typeSet)
	result.featureTags = sortedKeys(tagSet)

	return result
}

func (e *Extractor) adjacentToSet(id string, set map[string]bool) bool {
	for _, edge := range e.idx.EdgesFrom(id) {
		if set[edge.Target] {
			return true
		}
	}
	for _, edge := range e.idx.EdgesTo(id) {
		if set[edge.Source] {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
