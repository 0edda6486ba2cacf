package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/internal/server/middleware"
)

// ListCheckpointsHandler returns the pending checkpoints, optionally
// filtered by run_id.
func ListCheckpointsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	runID := c.QueryParam("run_id")

	pending := app.Runner.Checkpoints().ListPending(runID)
	return c.JSON(http.StatusOK, map[string]any{
		"checkpoints": pending,
	})
}
