package kg

import (
	"os"
	"path/filepath"
	"testing"
)

const testDocument = `{
	"name": "test-graph",
	"mainObjective": "connect proteins to phenotypes",
	"secondaryObjectives": ["find intermediates"],
	"knowledgeGraph": {
		"nodes": [
			{"id": "A", "type": "protein", "label": "Protein A"},
			{"id": "B", "type": "paper", "label": "Paper B"},
			{"id": "C", "type": "protein", "label": "Protein C", "trust_level": "high"},
			{"id": "", "type": "protein", "label": "missing id"},
			{"id": "D", "type": "", "label": "missing type"}
		],
		"edges": [
			{"id": "e1", "source": "A", "target": "B", "label": "cited_in", "strength": 0.9},
			{"id": "e2", "source": "B", "target": "C", "label": "describes", "strength": 0.8},
			{"id": "e2", "source": "C", "target": "A", "label": "duplicate id", "strength": 0.1},
			{"id": "e3", "source": "A", "target": "Z", "label": "dangling", "strength": 0.5},
			{"id": "e4", "source": "A", "target": "C", "label": "missing strength ok"}
		]
	}
}`

func writeTestGraph(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test graph: %v", err)
	}
	return path
}

func TestLoadValidatesAndDeduplicates(t *testing.T) {
	ClearCache()
	path := writeTestGraph(t, testDocument)

	graph, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if graph.NodeCount != 3 {
		t.Errorf("got %d nodes, want 3 (invalid nodes dropped)", graph.NodeCount)
	}
	if graph.EdgeCount != 3 {
		t.Errorf("got %d edges, want 3 (duplicate and dangling edges dropped)", graph.EdgeCount)
	}

	// Duplicate edge id: first occurrence wins.
	for _, e := range graph.Edges {
		if e.ID == "e2" && e.Source != "B" {
			t.Errorf("duplicate edge id e2 resolved to %s->%s, want first occurrence B->C", e.Source, e.Target)
		}
	}

	if graph.NodeTypeCounts["protein"] != 2 {
		t.Errorf("got %d protein nodes, want 2", graph.NodeTypeCounts["protein"])
	}
	if graph.MainObjective != "connect proteins to phenotypes" {
		t.Errorf("unexpected main objective %q", graph.MainObjective)
	}
}

func TestLoadDefaultsTrustLevel(t *testing.T) {
	ClearCache()
	path := writeTestGraph(t, testDocument)

	graph, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, n := range graph.Nodes {
		switch n.ID {
		case "C":
			if n.TrustLevel != TrustHigh {
				t.Errorf("node C trust = %q, want high", n.TrustLevel)
			}
		case "A":
			if n.TrustLevel != TrustMedium {
				t.Errorf("node A trust = %q, want medium default", n.TrustLevel)
			}
		}
	}
}

func TestLoadCachesByPath(t *testing.T) {
	ClearCache()
	path := writeTestGraph(t, testDocument)

	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first != second {
		t.Error("expected cached instance on second Load of the same path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	ClearCache()
	if _, err := Load("/nonexistent/graph.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedDocument(t *testing.T) {
	ClearCache()
	path := writeTestGraph(t, "{not valid json")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, ok := graphCache[path]; ok {
		t.Error("malformed document must not be cached")
	}
}
