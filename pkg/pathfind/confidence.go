package pathfind

import (
	"container/heap"

	"github.com/bioreason/hypothesis/pkg/kg"
)

// HighConfidenceStrategy greedily maximizes cumulative edge strength with a
// best-first search over outgoing edges. Each node is visited at most once
// and the first path reaching the target under the hop bound is returned, so
// the result is a greedy maximum, not a global one.
type HighConfidenceStrategy struct {
	idx *kg.Index
}

// NewHighConfidenceStrategy creates a high-confidence strategy over idx.
func NewHighConfidenceStrategy(idx *kg.Index) *HighConfidenceStrategy {
	return &HighConfidenceStrategy{idx: idx}
}

// Name returns the strategy's dispatch name.
func (s *HighConfidenceStrategy) Name() string {
	return StrategyHighConfidence
}

type confidenceState struct {
	id       string
	path     []string
	strength float64
}

// confidenceQueue orders states by cumulative strength descending, ties
// broken by shorter hop count.
type confidenceQueue []*confidenceState

func (q confidenceQueue) Len() int { return len(q) }

func (q confidenceQueue) Less(i, j int) bool {
	if q[i].strength != q[j].strength {
		return q[i].strength > q[j].strength
	}
	return len(q[i].path) < len(q[j].path)
}

func (q confidenceQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *confidenceQueue) Push(x any) {
	*q = append(*q, x.(*confidenceState))
}

func (q *confidenceQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Find returns the first path reaching target found by strength-ordered
// best-first expansion within maxLength hops.
func (s *HighConfidenceStrategy) Find(source, target string, maxLength int) (*PathResult, bool) {
	if _, ok := s.idx.Node(source); !ok {
		return nil, false
	}
	if _, ok := s.idx.Node(target); !ok {
		return nil, false
	}
	if source == target {
		return buildResult(s.idx, []string{source}, StrategyHighConfidence), true
	}

	visited := map[string]bool{}
	queue := &confidenceQueue{{id: source, path: []string{source}, strength: 0}}
	heap.Init(queue)

	for queue.Len() > 0 {
		current := heap.Pop(queue).(*confidenceState)
		if visited[current.id] {
			continue
		}
		visited[current.id] = true

		if current.id == target {
			return buildResult(s.idx, current.path, StrategyHighConfidence), true
		}
		if len(current.path)-1 >= maxLength {
			continue
		}

		for _, edge := range s.idx.EdgesFrom(current.id) {
			if visited[edge.Target] {
				continue
			}
			heap.Push(queue, &confidenceState{
				id:       edge.Target,
				path:     append(append([]string{}, current.path...), edge.Target),
				strength: current.strength + edge.Strength,
			})
		}
	}
	return nil, false
}
