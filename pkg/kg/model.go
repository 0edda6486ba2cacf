package kg

// TrustLevel grades the provenance quality of a node.
type TrustLevel string

const (
	TrustHigh   TrustLevel = "high"
	TrustMedium TrustLevel = "medium"
	TrustLow    TrustLevel = "low"
)

// Node is a concept in the knowledge graph. Nodes are created at graph load
// time and are immutable for the lifetime of a search session.
type Node struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Content     string         `json:"content,omitempty"`
	FileURL     string         `json:"file_url,omitempty"`
	TrustLevel  TrustLevel     `json:"trust_level,omitempty"`
	GroupID     string         `json:"group_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// Edge is a directional relationship between two nodes. Strength is a 0-1
// confidence value.
type Edge struct {
	ID              string         `json:"id"`
	Source          string         `json:"source"`
	Target          string         `json:"target"`
	Label           string         `json:"label"`
	CorrelationType string         `json:"correlation_type,omitempty"`
	Strength        float64        `json:"strength"`
	Explanation     string         `json:"explanation,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Group is a named collection of nodes.
type Group struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Notes string `json:"notes,omitempty"`
}

// KnowledgeGraph is the loaded, validated graph document. It is built once
// per file path and cached; re-loading the same path returns the cached
// instance.
type KnowledgeGraph struct {
	Name                string   `json:"name"`
	MainObjective       string   `json:"main_objective"`
	SecondaryObjectives []string `json:"secondary_objectives"`
	Nodes               []Node   `json:"nodes"`
	Edges               []Edge   `json:"edges"`
	Groups              []Group  `json:"groups"`

	NodeCount      int            `json:"node_count"`
	EdgeCount      int            `json:"edge_count"`
	NodeTypeCounts map[string]int `json:"node_type_counts"`
	EdgeTypeCounts map[string]int `json:"edge_type_counts"`
}

// FeatureTags returns the node's biological feature tags from metadata.
// The "biological_features" key may hold a single string or a list.
func (n *Node) FeatureTags() []string {
	raw, ok := n.Metadata["biological_features"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case []string:
		return v
	}
	return nil
}
