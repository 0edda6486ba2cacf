package subgraph

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/pathfind"
)

func testIndex() *kg.Index {
	graph := &kg.KnowledgeGraph{
		Nodes: []kg.Node{
			{ID: "A", Type: "protein", Label: "Kinase Alpha",
				Metadata: map[string]any{"symbol": "KNA1", "biological_features": []any{"phosphorylation"}}},
			{ID: "B", Type: "paper", Label: "Study B"},
			{ID: "C", Type: "disease", Label: "Condition C"},
			{ID: "ctx1", Type: "compound", Label: "Compound X"},
			{ID: "ctx2", Type: "pathway", Label: "Pathway Y"},
		},
		Edges: []kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "cited_in", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "C", Label: "implicates", Strength: 0.8},
			{ID: "c1", Source: "ctx1", Target: "B", Label: "tested_in", Strength: 0.5},
			{ID: "c2", Source: "ctx1", Target: "ctx2", Label: "part_of", Strength: 0.4},
		},
	}
	graph.NodeCount = len(graph.Nodes)
	graph.EdgeCount = len(graph.Edges)
	return kg.BuildIndex(graph)
}

func TestResolveConcept(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{})

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"by id", "A", "A"},
		{"by label", "Kinase Alpha", "A"},
		{"by fuzzy label", "kinase", "A"},
		{"by metadata symbol", "KNA1", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := e.ResolveConcept(tt.query)
			if err != nil {
				t.Fatalf("ResolveConcept(%q) error = %v", tt.query, err)
			}
			if node.ID != tt.want {
				t.Errorf("resolved %s, want %s", node.ID, tt.want)
			}
		})
	}
}

func TestResolveConceptNotFound(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{})
	_, err := e.ResolveConcept("completely unknown")
	if !errors.Is(err, ErrConceptNotFound) {
		t.Errorf("got error %v, want ErrConceptNotFound", err)
	}
}

func TestExtractBuildsSubgraph(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{ContextHops: 2, MaxContextNodes: 10})

	sg, err := e.Extract("Kinase Alpha", "Condition C", pathfind.StrategyShortest, 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(sg.Path.NodeIDs) != 3 {
		t.Errorf("path = %v, want 3 nodes", sg.Path.NodeIDs)
	}

	includedIDs := map[string]bool{}
	for _, n := range sg.Nodes {
		includedIDs[n.ID] = true
	}
	for _, id := range []string{"A", "B", "C", "ctx1", "ctx2"} {
		if !includedIDs[id] {
			t.Errorf("expected node %s in subgraph", id)
		}
	}

	// ctx1 is one hop from the path, ctx2 two hops.
	contextSet := map[string]bool{}
	for _, id := range sg.ContextNodeIDs {
		contextSet[id] = true
	}
	if !contextSet["ctx1"] || !contextSet["ctx2"] {
		t.Errorf("context nodes = %v, want ctx1 and ctx2", sg.ContextNodeIDs)
	}

	if len(sg.FeatureTags) == 0 || sg.FeatureTags[0] != "phosphorylation" {
		t.Errorf("feature tags = %v, want phosphorylation", sg.FeatureTags)
	}
	if !strings.Contains(sg.Narrative, "[path]") {
		t.Error("narrative must mark path members")
	}
}

func TestExtractContextNodeCap(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{ContextHops: 3, MaxContextNodes: 1})

	sg, err := e.Extract("A", "C", pathfind.StrategyShortest, 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(sg.ContextNodeIDs) > 1 {
		t.Errorf("context nodes = %v, want at most 1", sg.ContextNodeIDs)
	}
}

func TestExtractUnresolvedConceptFails(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{})
	_, err := e.Extract("A", "no such thing", pathfind.StrategyShortest, 5)
	if !errors.Is(err, ErrConceptNotFound) {
		t.Errorf("got error %v, want ErrConceptNotFound", err)
	}
}

func TestExtractNoPath(t *testing.T) {
	e := NewExtractor(testIndex(), ExtractorParams{})
	_, err := e.Extract("Condition C", "A", pathfind.StrategyShortest, 5)
	if !errors.Is(err, ErrNoPath) {
		t.Errorf("got error %v, want ErrNoPath", err)
	}
}

func multiPathIndex() *kg.Index {
	// Two disjoint routes and one shared route between A and D.
	graph := &kg.KnowledgeGraph{
		Nodes: []kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "C", Type: "pathway", Label: "C"},
			{ID: "D", Type: "disease", Label: "D"},
		},
		Edges: []kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "l", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "D", Label: "l", Strength: 0.8},
			{ID: "e3", Source: "A", Target: "C", Label: "l", Strength: 0.6},
			{ID: "e4", Source: "C", Target: "D", Label: "l", Strength: 0.5},
			{ID: "e5", Source: "A", Target: "D", Label: "l", Strength: 0.3},
		},
	}
	graph.NodeCount = len(graph.Nodes)
	graph.EdgeCount = len(graph.Edges)
	return kg.BuildIndex(graph)
}

func TestExtractMultiPath(t *testing.T) {
	e := NewExtractor(multiPathIndex(), ExtractorParams{ContextHops: 1, MaxContextNodes: 5})

	sg, err := e.ExtractMultiPath("A", "D", 5, 2)
	if err != nil {
		t.Fatalf("ExtractMultiPath() error = %v", err)
	}

	if strings.Join(sg.Primary.NodeIDs, ",") != "A,B,D" {
		t.Errorf("primary = %v, want strongest path A,B,D", sg.Primary.NodeIDs)
	}
	if len(sg.Alternatives) != 1 {
		t.Fatalf("got %d alternatives, want 1", len(sg.Alternatives))
	}

	// Selected paths share A and D.
	if sg.PathOverlapRatio <= 0 {
		t.Errorf("overlap ratio = %f, want > 0 for paths sharing endpoints", sg.PathOverlapRatio)
	}
	if !strings.Contains(sg.Narrative, "Alternative path 1") {
		t.Error("narrative must list alternative paths")
	}
}

func TestDiversityMetrics(t *testing.T) {
	mkPath := func(ids ...string) *pathfind.PathResult {
		return &pathfind.PathResult{NodeIDs: ids}
	}

	tests := []struct {
		name        string
		paths       []*pathfind.PathResult
		wantOverlap float64
		wantUnique  float64
	}{
		{
			name:        "disjoint paths",
			paths:       []*pathfind.PathResult{mkPath("A", "B"), mkPath("C", "D")},
			wantOverlap: 0.0,
			wantUnique:  2.0,
		},
		{
			name:        "identical paths",
			paths:       []*pathfind.PathResult{mkPath("A", "B", "C"), mkPath("A", "B", "C")},
			wantOverlap: 1.0,
			wantUnique:  1.5,
		},
		{
			name:        "partial overlap",
			paths:       []*pathfind.PathResult{mkPath("A", "B", "D"), mkPath("A", "C", "D")},
			wantOverlap: 0.5,
			wantUnique:  2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlap, unique := diversityMetrics(tt.paths)
			if math.Abs(overlap-tt.wantOverlap) > 1e-9 {
				t.Errorf("overlap = %f, want %f", overlap, tt.wantOverlap)
			}
			if math.Abs(unique-tt.wantUnique) > 1e-9 {
				t.Errorf("unique per path = %f, want %f", unique, tt.wantUnique)
			}
		})
	}
}
