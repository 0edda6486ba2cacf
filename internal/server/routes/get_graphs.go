package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/pkg/kg"
)

// GraphStatsHandler loads a graph document and returns its index
// statistics.
func GraphStatsHandler(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path query parameter is required"})
	}

	graph, err := kg.Load(path)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	idx := kg.BuildIndex(graph)

	hubs := idx.Hubs()
	hubIDs := make([]string, 0, len(hubs))
	for _, hub := range hubs {
		hubIDs = append(hubIDs, hub.ID)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"name":                  graph.Name,
		"main_objective":        graph.MainObjective,
		"node_count":            graph.NodeCount,
		"edge_count":            graph.EdgeCount,
		"node_type_counts":      graph.NodeTypeCounts,
		"edge_type_counts":      graph.EdgeTypeCounts,
		"hubs":                  hubIDs,
		"mean_strength_by_type": idx.StrengthDistribution(),
	})
}
