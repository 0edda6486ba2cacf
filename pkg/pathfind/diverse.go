package pathfind

import (
	"math/rand"
	"sort"

	"github.com/bioreason/hypothesis/pkg/kg"
)

// DiverseStrategy searches for the path covering the most distinct node
// types. It runs a BFS over (node, path, types-seen) states and orders
// neighbor expansion to prefer node types not yet on the path.
type DiverseStrategy struct {
	idx *kg.Index
	rng *rand.Rand
}

// NewDiverseStrategy creates a type-diversity strategy over idx.
func NewDiverseStrategy(idx *kg.Index) *DiverseStrategy {
	return &DiverseStrategy{
		idx: idx,
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// Name returns the strategy's dispatch name.
func (s *DiverseStrategy) Name() string {
	return StrategyDiverse
}

type diverseState struct {
	id    string
	path  []string
	types map[string]bool
}

// Find returns, among all paths reaching target within maxLength hops, the
// one covering the largest number of distinct node types.
func (s *DiverseStrategy) Find(source, target string, maxLength int) (*PathResult, bool) {
	sourceNode, ok := s.idx.Node(source)
	if !ok {
		return nil, false
	}
	if _, ok := s.idx.Node(target); !ok {
		return nil, false
	}
	if source == target {
		return buildResult(s.idx, []string{source}, StrategyDiverse), true
	}

	var best []string
	bestTypes := -1

	queue := []diverseState{{
		id:    source,
		path:  []string{source},
		types: map[string]bool{sourceNode.Type: true},
	}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.id == target {
			if len(current.types) > bestTypes {
				bestTypes = len(current.types)
				best = current.path
			}
			continue
		}
		if len(current.path)-1 >= maxLength {
			continue
		}

		onPath := map[string]bool{}
		for _, id := range current.path {
			onPath[id] = true
		}

		var next []*kg.Node
		for _, edge := range s.idx.EdgesFrom(current.id) {
			if onPath[edge.Target] {
				continue
			}
			if node, ok := s.idx.Node(edge.Target); ok {
				next = append(next, node)
			}
		}

		// Prefer node types not yet on the path; random tie order.
		s.rng.Shuffle(len(next), func(a, b int) {
			next[a], next[b] = next[b], next[a]
		})
		sort.SliceStable(next, func(a, b int) bool {
			return !current.types[next[a].Type] && current.types[next[b].Type]
		})

		for _, node := range next {
			types := map[string]bool{node.Type: true}
			for t := range current.types {
				types[t] = true
			}
			queue = append(queue, diverseState{
				id:    node.ID,
				path:  append(append([]string{}, current.path...), node.ID),
				types: types,
			})
		}
	}

	if best == nil {
		return nil, false
	}
	return buildResult(s.idx, best, StrategyDiverse), true
}
