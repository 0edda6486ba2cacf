package server

import (
	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Workflow run routes
	apiRoutes.POST("/runs", routes.StartRunHandler)
	apiRoutes.POST("/runs/stream", routes.StreamRunHandler)
	apiRoutes.GET("/runs/:id", routes.GetRunHandler)

	// Checkpoint routes
	apiRoutes.GET("/checkpoints", routes.ListCheckpointsHandler)
	apiRoutes.POST("/checkpoints/:id/resolve", routes.ResolveCheckpointHandler)

	// Graph inspection routes
	apiRoutes.GET("/graphs/stats", routes.GraphStatsHandler)
	apiRoutes.POST("/graphs/paths", routes.FindPathsHandler)
}
