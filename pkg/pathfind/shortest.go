package pathfind

import (
	"github.com/bioreason/hypothesis/pkg/kg"
)

// ShortestStrategy finds the minimum-hop path following outgoing edges with
// an unweighted BFS. When the target is unreachable within the hop bound it
// falls back to a bidirectional BFS that meets in the middle.
type ShortestStrategy struct {
	idx *kg.Index
}

// NewShortestStrategy creates a shortest-path strategy over idx.
func NewShortestStrategy(idx *kg.Index) *ShortestStrategy {
	return &ShortestStrategy{idx: idx}
}

// Name returns the strategy's dispatch name.
func (s *ShortestStrategy) Name() string {
	return StrategyShortest
}

// Find returns the shortest outgoing-edge path from source to target within
// maxLength hops.
func (s *ShortestStrategy) Find(source, target string, maxLength int) (*PathResult, bool) {
	if _, ok := s.idx.Node(source); !ok {
		return nil, false
	}
	if _, ok := s.idx.Node(target); !ok {
		return nil, false
	}
	if source == target {
		return buildResult(s.idx, []string{source}, StrategyShortest), true
	}

	if path := s.bfs(source, target, maxLength); path != nil {
		return buildResult(s.idx, path, StrategyShortest), true
	}
	if path := s.bidirectional(source, target, maxLength); path != nil {
		return buildResult(s.idx, path, StrategyShortest), true
	}
	return nil, false
}

func (s *ShortestStrategy) bfs(source, target string, maxLength int) []string {
	type state struct {
		id   string
		path []string
	}

	visited := map[string]bool{source: true}
	queue := []state{{id: source, path: []string{source}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if len(current.path)-1 >= maxLength {
			continue
		}

		for _, edge := range s.idx.EdgesFrom(current.id) {
			next := edge.Target
			if visited[next] {
				continue
			}
			visited[next] = true

			path := append(append([]string{}, current.path...), next)
			if next == target {
				return path
			}
			queue = append(queue, state{id: next, path: path})
		}
	}
	return nil
}

// bidirectional expands a forward frontier from source over out-edges and a
// backward frontier from target over in-edges for up to maxLength/2+1
// rounds, splicing the partial paths at the first meeting node.
func (s *ShortestStrategy) bidirectional(source, target string, maxLength int) []string {
	forward := map[string][]string{source: {source}}
	backward := map[string][]string{target: {target}}
	forwardFrontier := []string{source}
	backwardFrontier := []string{target}

	rounds := maxLength/2 + 1
	for round := 0; round < rounds; round++ {
		var nextForward []string
		for _, id := range forwardFrontier {
			for _, edge := range s.idx.EdgesFrom(id) {
				next := edge.Target
				if _, seen := forward[next]; seen {
					continue
				}
				forward[next] = append(append([]string{}, forward[id]...), next)
				if tail, met := backward[next]; met {
					return splice(forward[next], tail)
				}
				nextForward = append(nextForward, next)
			}
		}
		forwardFrontier = nextForward

		var nextBackward []string
		for _, id := range backwardFrontier {
			for _, edge := range s.idx.EdgesTo(id) {
				prev := edge.Source
				if _, seen := backward[prev]; seen {
					continue
				}
				backward[prev] = append(append([]string{}, backward[id]...), prev)
				if head, met := forward[prev]; met {
					return splice(head, backward[prev])
				}
				nextBackward = append(nextBackward, prev)
			}
		}
		backwardFrontier = nextBackward

		if len(forwardFrontier) == 0 && len(backwardFrontier) == 0 {
			break
		}
	}
	return nil
}

// splice joins a forward partial path ending at the meeting node with a
// backward partial path that also ends at the meeting node.
func splice(head, tailReversed []string) []string {
	tail := reversePath(tailReversed)
	// Both include the meeting node; drop one copy.
	return append(append([]string{}, head...), tail[1:]...)
}
