package kg

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bioreason/hypothesis/pkg/logger"
)

// graphDocument mirrors the on-disk JSON layout of a knowledge-graph file.
type graphDocument struct {
	Name                string   `json:"name"`
	MainObjective       string   `json:"mainObjective"`
	SecondaryObjectives []string `json:"secondaryObjectives"`
	KnowledgeGraph      struct {
		Nodes []documentNode `json:"nodes"`
		Edges []documentEdge `json:"edges"`
	} `json:"knowledgeGraph"`
	Groups      []Group         `json:"groups"`
	DataPool    json.RawMessage `json:"dataPool"`
	Constraints json.RawMessage `json:"constraints"`
	Notes       string          `json:"notes"`
}

type documentNode struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	FileURL     string         `json:"file_url"`
	TrustLevel  string         `json:"trust_level"`
	GroupID     string         `json:"group_id"`
	Metadata    map[string]any `json:"metadata"`
	Notes       string         `json:"notes"`
}

type documentEdge struct {
	ID              string         `json:"id"`
	Source          string         `json:"source"`
	Target          string         `json:"target"`
	Label           string         `json:"label"`
	CorrelationType string         `json:"correlation_type"`
	Strength        float64        `json:"strength"`
	Explanation     string         `json:"explanation"`
	Metadata        map[string]any `json:"metadata"`
}

var (
	cacheLock  sync.Mutex
	graphCache = map[string]*KnowledgeGraph{}
)

// Load reads, validates, and indexes a knowledge-graph document from path.
// Graphs are cached by path: loading the same path again returns the cached
// instance. Nodes and edges missing required fields are dropped; duplicate
// edge ids keep the first occurrence; edges referencing unknown nodes are
// dropped. A malformed or missing file is a fatal load error and nothing is
// cached.
func Load(path string) (*KnowledgeGraph, error) {
	cacheLock.Lock()
	defer cacheLock.Unlock()

	if cached, ok := graphCache[path]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}

	graph := buildGraph(&doc)
	graphCache[path] = graph

	logger.Info("[KG] Graph loaded",
		"path", path,
		"nodes", graph.NodeCount,
		"edges", graph.EdgeCount,
	)

	return graph, nil
}

// ClearCache drops all cached graphs. Intended for tests.
func ClearCache() {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	graphCache = map[string]*KnowledgeGraph{}
}

func buildGraph(doc *graphDocument) *KnowledgeGraph {
	graph := &KnowledgeGraph{
		Name:                doc.Name,
		MainObjective:       doc.MainObjective,
		SecondaryObjectives: doc.SecondaryObjectives,
		Groups:              doc.Groups,
		NodeTypeCounts:      map[string]int{},
		EdgeTypeCounts:      map[string]int{},
	}

	nodeIDs := map[string]struct{}{}
	dropped := 0
	for _, n := range doc.KnowledgeGraph.Nodes {
		if n.ID == "" || n.Type == "" || n.Label == "" {
			dropped++
			continue
		}
		if _, exists := nodeIDs[n.ID]; exists {
			dropped++
			continue
		}
		nodeIDs[n.ID] = struct{}{}

		trust := TrustLevel(n.TrustLevel)
		if trust != TrustHigh && trust != TrustMedium && trust != TrustLow {
			trust = TrustMedium
		}

		graph.Nodes = append(graph.Nodes, Node{
			ID:          n.ID,
			Type:        n.Type,
			Label:       n.Label,
			Description: n.Description,
			Content:     n.Content,
			FileURL:     n.FileURL,
			TrustLevel:  trust,
			GroupID:     n.GroupID,
			Metadata:    n.Metadata,
			Notes:       n.Notes,
		})
		graph.NodeTypeCounts[n.Type]++
	}

	edgeIDs := map[string]struct{}{}
	for _, e := range doc.KnowledgeGraph.Edges {
		if e.ID == "" || e.Source == "" || e.Target == "" || e.Label == "" {
			dropped++
			continue
		}
		// Duplicate edge ids: first occurrence wins.
		if _, exists := edgeIDs[e.ID]; exists {
			dropped++
			continue
		}
		if _, ok := nodeIDs[e.Source]; !ok {
			dropped++
			continue
		}
		if _, ok := nodeIDs[e.Target]; !ok {
			dropped++
			continue
		}
		edgeIDs[e.ID] = struct{}{}

		strength := e.Strength
		if strength < 0 {
			strength = 0
		}
		if strength > 1 {
			strength = 1
		}

		graph.Edges = append(graph.Edges, Edge{
			ID:              e.ID,
			Source:          e.Source,
			Target:          e.Target,
			Label:           e.Label,
			CorrelationType: e.CorrelationType,
			Strength:        strength,
			Explanation:     e.Explanation,
			Metadata:        e.Metadata,
		})
		graph.EdgeTypeCounts[e.CorrelationType]++
	}

	graph.NodeCount = len(graph.Nodes)
	graph.EdgeCount = len(graph.Edges)

	if dropped > 0 {
		logger.Warn("[KG] Dropped invalid graph elements", "count", dropped)
	}

	return graph
}
