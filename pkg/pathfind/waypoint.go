package pathfind

import (
	"math/rand"

	"github.com/bioreason/hypothesis/pkg/kg"
)

const defaultNumWaypoints = 2

// RandomWaypointStrategy perturbs the shortest path with randomly chosen
// detour nodes to increase evidence diversity, at the cost of optimality.
type RandomWaypointStrategy struct {
	idx          *kg.Index
	shortest     *ShortestStrategy
	numWaypoints int
	rng          *rand.Rand
}

// NewRandomWaypointStrategy creates a waypoint strategy over idx splicing up
// to numWaypoints detours (the default 2 when numWaypoints <= 0).
func NewRandomWaypointStrategy(idx *kg.Index, numWaypoints int) *RandomWaypointStrategy {
	if numWaypoints <= 0 {
		numWaypoints = defaultNumWaypoints
	}
	return &RandomWaypointStrategy{
		idx:          idx,
		shortest:     NewShortestStrategy(idx),
		numWaypoints: numWaypoints,
		rng:          rand.New(rand.NewSource(rand.Int63())),
	}
}

// Name returns the strategy's dispatch name.
func (s *RandomWaypointStrategy) Name() string {
	return StrategyRandomWaypoint
}

// Find computes the shortest path and, when it has more than 3 nodes,
// splices shuffled off-path neighbors after interior anchor nodes, then
// truncates the node sequence to maxLength hops.
func (s *RandomWaypointStrategy) Find(source, target string, maxLength int) (*PathResult, bool) {
	base, ok := s.shortest.Find(source, target, maxLength)
	if !ok {
		return nil, false
	}
	if len(base.NodeIDs) <= 3 {
		return buildResult(s.idx, base.NodeIDs, StrategyRandomWaypoint), true
	}

	onPath := map[string]bool{}
	for _, id := range base.NodeIDs {
		onPath[id] = true
	}

	spliced := make([]string, 0, len(base.NodeIDs)+s.numWaypoints)
	inserted := 0
	for i, anchor := range base.NodeIDs {
		spliced = append(spliced, anchor)
		if i == 0 || i == len(base.NodeIDs)-1 || inserted >= s.numWaypoints {
			continue
		}

		var candidates []string
		for _, neighbor := range s.idx.Neighbors(anchor, kg.DirectionBoth) {
			if !onPath[neighbor.ID] {
				candidates = append(candidates, neighbor.ID)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		s.rng.Shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})

		waypoint := candidates[0]
		onPath[waypoint] = true
		spliced = append(spliced, waypoint)
		inserted++
	}

	if len(spliced)-1 > maxLength {
		spliced = spliced[:maxLength+1]
	}

	return buildResult(s.idx, spliced, StrategyRandomWaypoint), true
}
