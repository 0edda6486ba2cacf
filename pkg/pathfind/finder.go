package pathfind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/logger"
)

// DefaultMaxLength bounds path search when the caller passes no hop bound.
const DefaultMaxLength = 6

// PathFinder dispatches to the registered path strategies and combines
// their results.
type PathFinder struct {
	idx        *kg.Index
	strategies map[string]Strategy
}

// NewPathFinder creates a finder with the four standard strategies over idx.
func NewPathFinder(idx *kg.Index) *PathFinder {
	strategies := map[string]Strategy{}
	for _, s := range []Strategy{
		NewShortestStrategy(idx),
		NewHighConfidenceStrategy(idx),
		NewRandomWaypointStrategy(idx, 0),
		NewDiverseStrategy(idx),
	} {
		strategies[s.Name()] = s
	}
	return &PathFinder{idx: idx, strategies: strategies}
}

// Index returns the underlying graph index.
func (f *PathFinder) Index() *kg.Index {
	return f.idx
}

// FindPath runs a single named strategy. It returns an error for unknown
// strategy names; an unreachable target is a (nil, false) result, not an
// error.
func (f *PathFinder) FindPath(strategy, source, target string, maxLength int) (*PathResult, bool, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	s, ok := f.strategies[strategy]
	if !ok {
		return nil, false, fmt.Errorf("unknown path strategy %q", strategy)
	}
	result, found := s.Find(source, target, maxLength)
	return result, found, nil
}

// FindAllPaths runs every strategy once (the waypoint strategy with a single
// waypoint), removes duplicate node sequences, and returns up to maxPaths
// results sorted by total strength descending.
func (f *PathFinder) FindAllPaths(source, target string, maxLength, maxPaths int) []*PathResult {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if maxPaths <= 0 {
		maxPaths = 1
	}

	strategies := []Strategy{
		NewShortestStrategy(f.idx),
		NewHighConfidenceStrategy(f.idx),
		NewRandomWaypointStrategy(f.idx, 1),
		NewDiverseStrategy(f.idx),
	}

	seen := map[string]bool{}
	var results []*PathResult
	for _, s := range strategies {
		result, found := s.Find(source, target, maxLength)
		if !found {
			continue
		}
		key := strings.Join(result.NodeIDs, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalStrength > results[j].TotalStrength
	})

	if len(results) > maxPaths {
		results = results[:maxPaths]
	}

	logger.Debug("[PathFinder] Combined search complete",
		"source", source,
		"target", target,
		"paths", len(results),
	)

	return results
}
