package pathfind

import (
	"fmt"
	"math"
	"testing"

	"github.com/bioreason/hypothesis/pkg/kg"
)

func indexFrom(nodes []kg.Node, edges []kg.Edge) *kg.Index {
	graph := &kg.KnowledgeGraph{
		Nodes:     nodes,
		Edges:     edges,
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}
	return kg.BuildIndex(graph)
}

// twoHopIndex is the reference scenario: A(protein) -> B(paper) -> C(protein)
// with strengths 0.9 and 0.8.
func twoHopIndex() *kg.Index {
	return indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "Protein A"},
			{ID: "B", Type: "paper", Label: "Paper B"},
			{ID: "C", Type: "protein", Label: "Protein C"},
		},
		[]kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "cited_in", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "C", Label: "describes", Strength: 0.8},
		},
	)
}

func assertSequence(t *testing.T, result *PathResult, want ...string) {
	t.Helper()
	if len(result.NodeIDs) != len(want) {
		t.Fatalf("path = %v, want %v", result.NodeIDs, want)
	}
	for i, id := range want {
		if result.NodeIDs[i] != id {
			t.Fatalf("path = %v, want %v", result.NodeIDs, want)
		}
	}
}

func TestShortestTwoHopScenario(t *testing.T) {
	idx := twoHopIndex()
	s := NewShortestStrategy(idx)

	result, found := s.Find("A", "C", 5)
	if !found {
		t.Fatal("expected a path from A to C")
	}
	assertSequence(t, result, "A", "B", "C")

	if math.Abs(result.TotalStrength-0.72) > 1e-9 {
		t.Errorf("total strength = %f, want 0.72", result.TotalStrength)
	}
	if result.Source != "A" || result.Target != "C" {
		t.Errorf("endpoints = %s..%s, want A..C", result.Source, result.Target)
	}
}

func TestDiverseTwoHopScenario(t *testing.T) {
	idx := twoHopIndex()
	s := NewDiverseStrategy(idx)

	result, found := s.Find("A", "C", 5)
	if !found {
		t.Fatal("expected a path from A to C")
	}
	assertSequence(t, result, "A", "B", "C")
}

func TestShortestRespectsEdgeDirection(t *testing.T) {
	idx := twoHopIndex()
	s := NewShortestStrategy(idx)

	if _, found := s.Find("C", "A", 5); found {
		t.Error("no directed path C to A should exist")
	}
}

func TestShortestPicksMinimalHops(t *testing.T) {
	// A -> B -> C -> D and a direct A -> D.
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "C", Type: "pathway", Label: "C"},
			{ID: "D", Type: "disease", Label: "D"},
		},
		[]kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "l", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "C", Label: "l", Strength: 0.9},
			{ID: "e3", Source: "C", Target: "D", Label: "l", Strength: 0.9},
			{ID: "e4", Source: "A", Target: "D", Label: "l", Strength: 0.1},
		},
	)
	s := NewShortestStrategy(idx)

	result, found := s.Find("A", "D", 5)
	if !found {
		t.Fatal("expected a path")
	}
	assertSequence(t, result, "A", "D")
}

func TestShortestBidirectionalFallback(t *testing.T) {
	// A five-hop chain; plain BFS is bounded out at 4 hops but the
	// bidirectional fallback (4/2+1 = 3 rounds per side) still reaches.
	nodes := []kg.Node{}
	edges := []kg.Edge{}
	ids := []string{"n0", "n1", "n2", "n3", "n4", "n5"}
	for _, id := range ids {
		nodes = append(nodes, kg.Node{ID: id, Type: "protein", Label: id})
	}
	for i := 0; i+1 < len(ids); i++ {
		edges = append(edges, kg.Edge{
			ID: fmt.Sprintf("e%d", i), Source: ids[i], Target: ids[i+1], Label: "l", Strength: 0.9,
		})
	}
	idx := indexFrom(nodes, edges)
	s := NewShortestStrategy(idx)

	result, found := s.Find("n0", "n5", 4)
	if !found {
		t.Fatal("expected bidirectional fallback to find the path")
	}
	assertSequence(t, result, "n0", "n1", "n2", "n3", "n4", "n5")
}

func TestHighConfidencePrefersStrongEdges(t *testing.T) {
	// Two routes A->D: weak direct edge vs strong two-hop route.
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "D", Type: "disease", Label: "D"},
		},
		[]kg.Edge{
			{ID: "weak", Source: "A", Target: "D", Label: "l", Strength: 0.2},
			{ID: "s1", Source: "A", Target: "B", Label: "l", Strength: 0.95},
			{ID: "s2", Source: "B", Target: "D", Label: "l", Strength: 0.9},
		},
	)
	s := NewHighConfidenceStrategy(idx)

	result, found := s.Find("A", "D", 5)
	if !found {
		t.Fatal("expected a path")
	}
	assertSequence(t, result, "A", "B", "D")
}

func TestTotalStrengthMatchesEdgeProduct(t *testing.T) {
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "C", Type: "disease", Label: "C"},
		},
		[]kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "l", Strength: 0.0},
			{ID: "e2", Source: "B", Target: "C", Label: "l", Strength: 0.5},
		},
	)
	s := NewShortestStrategy(idx)

	result, found := s.Find("A", "C", 5)
	if !found {
		t.Fatal("expected a path")
	}

	product := 1.0
	for _, edge := range result.Edges {
		strength := edge.Strength
		if strength < strengthFloor {
			strength = strengthFloor
		}
		product *= strength
	}
	if result.TotalStrength != product {
		t.Errorf("total strength %f != re-derived product %f", result.TotalStrength, product)
	}
	// Zero-strength edge floored, never collapsing the product to zero.
	if result.TotalStrength == 0 {
		t.Error("total strength must not collapse to zero")
	}
}

func TestRandomWaypointShortPathsUnchanged(t *testing.T) {
	idx := twoHopIndex()
	s := NewRandomWaypointStrategy(idx, 2)

	result, found := s.Find("A", "C", 5)
	if !found {
		t.Fatal("expected a path")
	}
	assertSequence(t, result, "A", "B", "C")
	if result.Strategy != StrategyRandomWaypoint {
		t.Errorf("strategy = %q, want %q", result.Strategy, StrategyRandomWaypoint)
	}
}

func TestRandomWaypointSplicesDetours(t *testing.T) {
	// Chain A->B->C->D with off-path neighbors attached to B and C.
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "C", Type: "pathway", Label: "C"},
			{ID: "D", Type: "disease", Label: "D"},
			{ID: "W1", Type: "compound", Label: "W1"},
			{ID: "W2", Type: "compound", Label: "W2"},
		},
		[]kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "l", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "C", Label: "l", Strength: 0.9},
			{ID: "e3", Source: "C", Target: "D", Label: "l", Strength: 0.9},
			{ID: "w1", Source: "B", Target: "W1", Label: "l", Strength: 0.5},
			{ID: "w2", Source: "W2", Target: "C", Label: "l", Strength: 0.5},
		},
	)
	s := NewRandomWaypointStrategy(idx, 2)

	result, found := s.Find("A", "D", 10)
	if !found {
		t.Fatal("expected a path")
	}
	if result.NodeIDs[0] != "A" {
		t.Errorf("first node = %s, want A", result.NodeIDs[0])
	}
	if last := result.NodeIDs[len(result.NodeIDs)-1]; last != "D" {
		t.Errorf("last node = %s, want D", last)
	}
	if len(result.NodeIDs) <= 4 {
		t.Errorf("expected at least one spliced waypoint, got %v", result.NodeIDs)
	}
	if len(result.NodeIDs) > 6 {
		t.Errorf("at most two waypoints may be spliced, got %v", result.NodeIDs)
	}

	seen := map[string]bool{}
	for _, id := range result.NodeIDs {
		if seen[id] {
			t.Errorf("node %s appears twice in %v", id, result.NodeIDs)
		}
		seen[id] = true
	}
}

func TestRandomWaypointHonorsHopBound(t *testing.T) {
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B", Type: "paper", Label: "B"},
			{ID: "C", Type: "pathway", Label: "C"},
			{ID: "D", Type: "disease", Label: "D"},
			{ID: "W1", Type: "compound", Label: "W1"},
		},
		[]kg.Edge{
			{ID: "e1", Source: "A", Target: "B", Label: "l", Strength: 0.9},
			{ID: "e2", Source: "B", Target: "C", Label: "l", Strength: 0.9},
			{ID: "e3", Source: "C", Target: "D", Label: "l", Strength: 0.9},
			{ID: "w1", Source: "B", Target: "W1", Label: "l", Strength: 0.5},
		},
	)
	s := NewRandomWaypointStrategy(idx, 2)

	result, found := s.Find("A", "D", 3)
	if !found {
		t.Fatal("expected a path")
	}
	if len(result.NodeIDs)-1 > 3 {
		t.Errorf("path %v exceeds the hop bound", result.NodeIDs)
	}
}

func TestDiversePrefersTypeCoverage(t *testing.T) {
	// Two equal-length routes A..D; the lower route covers more types.
	idx := indexFrom(
		[]kg.Node{
			{ID: "A", Type: "protein", Label: "A"},
			{ID: "B1", Type: "protein", Label: "B1"},
			{ID: "B2", Type: "protein", Label: "B2"},
			{ID: "C1", Type: "paper", Label: "C1"},
			{ID: "C2", Type: "pathway", Label: "C2"},
			{ID: "D", Type: "disease", Label: "D"},
		},
		[]kg.Edge{
			// Monotype route: A -> B1 -> B2 -> D.
			{ID: "m1", Source: "A", Target: "B1", Label: "l", Strength: 0.9},
			{ID: "m2", Source: "B1", Target: "B2", Label: "l", Strength: 0.9},
			{ID: "m3", Source: "B2", Target: "D", Label: "l", Strength: 0.9},
			// Diverse route: A -> C1 -> C2 -> D.
			{ID: "d1", Source: "A", Target: "C1", Label: "l", Strength: 0.5},
			{ID: "d2", Source: "C1", Target: "C2", Label: "l", Strength: 0.5},
			{ID: "d3", Source: "C2", Target: "D", Label: "l", Strength: 0.5},
		},
	)
	s := NewDiverseStrategy(idx)

	result, found := s.Find("A", "D", 4)
	if !found {
		t.Fatal("expected a path")
	}
	assertSequence(t, result, "A", "C1", "C2", "D")

	types := map[string]bool{}
	for _, node := range result.Nodes {
		types[node.Type] = true
	}
	if len(types) != 4 {
		t.Errorf("got %d distinct types, want 4", len(types))
	}
}

func TestRationaleContents(t *testing.T) {
	idx := twoHopIndex()
	s := NewShortestStrategy(idx)

	result, _ := s.Find("A", "C", 5)
	if len(result.Rationale) < 2 {
		t.Fatalf("rationale too short: %v", result.Rationale)
	}
	last := result.Rationale[len(result.Rationale)-1]
	if last != "minimal path length" {
		t.Errorf("strategy note = %q, want %q", last, "minimal path length")
	}
}
