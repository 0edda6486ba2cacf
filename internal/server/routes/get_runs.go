package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/internal/server/middleware"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

// GetRunHandler returns the state snapshot of a run, including its phase
// outputs and audit trail.
func GetRunHandler(c echo.Context) error {
	runID := c.Param("id")
	app := c.(*middleware.AppContext).App

	state, err := app.Runner.Registry().Get(runID)
	if err != nil {
		if errors.Is(err, workflow.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, state)
}
