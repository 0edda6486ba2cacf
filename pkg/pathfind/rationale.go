package pathfind

import (
	"fmt"
	"strings"
)

const strongEdgeThreshold = 0.9

var strategyNotes = map[string]string{
	StrategyShortest:       "minimal path length",
	StrategyHighConfidence: "high-confidence edges",
	StrategyRandomWaypoint: "waypoint diversity",
	StrategyDiverse:        "node type diversity",
}

// buildRationale derives the ordered explanatory strings attached to every
// path result: type coverage, edge-strength summary, biological feature
// tags, and one strategy-specific note.
func buildRationale(result *PathResult, strategy string) []string {
	var rationale []string

	types := map[string]bool{}
	for _, node := range result.Nodes {
		types[node.Type] = true
	}
	rationale = append(rationale,
		pluralize("path spans %d distinct node type", len(types)))

	if len(result.Edges) > 0 {
		sum := 0.0
		strong := 0
		for _, edge := range result.Edges {
			sum += edge.Strength
			if edge.Strength >= strongEdgeThreshold {
				strong++
			}
		}
		mean := sum / float64(len(result.Edges))
		rationale = append(rationale,
			fmt.Sprintf("mean edge strength %.2f, %d edge(s) at or above %.1f", mean, strong, strongEdgeThreshold))
	}

	seen := map[string]bool{}
	var tags []string
	for _, node := range result.Nodes {
		for _, tag := range node.FeatureTags() {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
			if len(tags) == 5 {
				break
			}
		}
		if len(tags) == 5 {
			break
		}
	}
	if len(tags) > 0 {
		rationale = append(rationale, "biological features: "+strings.Join(tags, ", "))
	}

	if note, ok := strategyNotes[strategy]; ok {
		rationale = append(rationale, note)
	}

	return rationale
}

func pluralize(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}
