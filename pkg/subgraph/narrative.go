package subgraph

import (
	"fmt"
	"strings"

	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/pathfind"
)

// singleNarrative renders a reasoning subgraph as natural language for the
// generation phase, marking path members and hub nodes.
func singleNarrative(sg *ReasoningSubgraph) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reasoning path from %s to %s:\n%s\n\n",
		sg.Path.Source, sg.Path.Target, sg.Path.PathString)

	if len(sg.Path.Rationale) > 0 {
		b.WriteString("Why this path: ")
		b.WriteString(strings.Join(sg.Path.Rationale, "; "))
		b.WriteString("\n\n")
	}

	writeNodeSection(&b, sg.Nodes, pathMembership(sg.Path), sg.HubNodeIDs)
	writeEdgeSection(&b, sg.Edges)

	if len(sg.NodeTypes) > 0 {
		fmt.Fprintf(&b, "Node types present: %s\n", strings.Join(sg.NodeTypes, ", "))
	}
	if len(sg.FeatureTags) > 0 {
		fmt.Fprintf(&b, "Biological features: %s\n", strings.Join(sg.FeatureTags, ", "))
	}

	return b.String()
}

// multiNarrative renders a multi-path subgraph, listing the primary path,
// its alternatives, and the shared evidence neighborhood.
func multiNarrative(sg *MultiPathSubgraph) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Primary reasoning path from %s to %s:\n%s\n\n",
		sg.Primary.Source, sg.Primary.Target, sg.Primary.PathString)

	for i, alt := range sg.Alternatives {
		fmt.Fprintf(&b, "Alternative path %d:\n%s\n\n", i+1, alt.PathString)
	}

	fmt.Fprintf(&b, "Path overlap ratio: %.2f; mean unique nodes per path: %.1f\n\n",
		sg.PathOverlapRatio, sg.UniqueNodesPerPath)

	membership := pathMembership(sg.Primary)
	for _, alt := range sg.Alternatives {
		for id := range pathMembership(alt) {
			membership[id] = true
		}
	}

	writeNodeSection(&b, sg.Nodes, membership, sg.HubNodeIDs)
	writeEdgeSection(&b, sg.Edges)

	if len(sg.NodeTypes) > 0 {
		fmt.Fprintf(&b, "Node types present: %s\n", strings.Join(sg.NodeTypes, ", "))
	}
	if len(sg.FeatureTags) > 0 {
		fmt.Fprintf(&b, "Biological features: %s\n", strings.Join(sg.FeatureTags, ", "))
	}

	return b.String()
}

func pathMembership(path *pathfind.PathResult) map[string]bool {
	members := map[string]bool{}
	for _, id := range path.NodeIDs {
		members[id] = true
	}
	return members
}

func writeNodeSection(b *strings.Builder, nodes []*kg.Node, pathMembers map[string]bool, hubIDs []string) {
	hubs := map[string]bool{}
	for _, id := range hubIDs {
		hubs[id] = true
	}

	b.WriteString("Evidence nodes:\n")
	for _, node := range nodes {
		marker := ""
		if pathMembers[node.ID] {
			marker = " [path]"
		} else if hubs[node.ID] {
			marker = " [hub]"
		}
		fmt.Fprintf(b, "- %s (%s)%s", node.Label, node.Type, marker)
		if node.Description != "" {
			fmt.Fprintf(b, ": %s", node.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeEdgeSection(b *strings.Builder, edges []*kg.Edge) {
	if len(edges) == 0 {
		return
	}
	b.WriteString("Evidence relationships:\n")
	for _, edge := range edges {
		fmt.Fprintf(b, "- %s -[%s]-> %s (strength %.2f)", edge.Source, edge.Label, edge.Target, edge.Strength)
		if edge.Explanation != "" {
			fmt.Fprintf(b, ": %s", edge.Explanation)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
