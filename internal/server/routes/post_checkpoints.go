package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/internal/server/middleware"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

// ResolveCheckpointHandler records a human decision for a pending
// checkpoint and unblocks the waiting workflow.
func ResolveCheckpointHandler(c echo.Context) error {
	type resolveRequest struct {
		Status        string         `json:"status" validate:"required,oneof=approved modified rejected skipped"`
		Modifications map[string]any `json:"modifications"`
		Feedback      string         `json:"feedback"`
	}

	data := new(resolveRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	id := c.Param("id")

	resolution, err := app.Runner.Checkpoints().Resolve(
		id,
		workflow.CheckpointStatus(data.Status),
		data.Modifications,
		data.Feedback,
	)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrCheckpointNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Checkpoint not found"})
		case errors.Is(err, workflow.ErrCheckpointResolved):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"checkpoint_id": id,
		"status":        resolution.Status,
		"output":        resolution.Output,
	})
}
