package routes

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/internal/queue"
	"github.com/bioreason/hypothesis/internal/server/middleware"
	serverutil "github.com/bioreason/hypothesis/internal/server/util"
	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

type startRunRequest struct {
	GraphPath     string                   `json:"graph_path" validate:"required"`
	SourceConcept string                   `json:"source_concept"`
	TargetConcept string                   `json:"target_concept"`
	Config        *workflow.WorkflowConfig `json:"config"`
}

func (r *startRunRequest) runRequest() workflow.RunRequest {
	cfg := workflow.DefaultConfig()
	if r.Config != nil {
		cfg = *r.Config
	}
	return workflow.RunRequest{
		GraphPath:     r.GraphPath,
		SourceConcept: r.SourceConcept,
		TargetConcept: r.TargetConcept,
		Config:        cfg,
	}
}

// StartRunHandler prepares a workflow run and hands it off for execution.
// Interactive runs execute in-process so their checkpoints stay reachable;
// non-interactive runs go to the worker queue when a broker is connected.
func StartRunHandler(c echo.Context) error {
	data := new(startRunRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	req := data.runRequest()

	runID, err := app.Runner.Prepare(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if app.Queue != nil && req.Config.HITLMode == workflow.HITLDisabled {
		if err := queue.PublishRun(app.Queue, runID, req); err != nil {
			logger.Error("[Server] Failed to enqueue run", "run", runID, "err", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue run"})
		}
	} else {
		go func() {
			if _, err := app.Runner.Execute(context.Background(), runID, req); err != nil {
				logger.Error("[Server] Run failed", "run", runID, "err", err)
			}
		}()
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(workflow.RunCreated),
	})
}

// StreamRunHandler executes a run and streams its events as SSE.
func StreamRunHandler(c echo.Context) error {
	data := new(startRunRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	req := data.runRequest()

	runID, err := app.Runner.Prepare(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for event := range app.Runner.ExecuteStream(ctx, runID, req) {
		if err := serverutil.WriteSSEEvent(c, event.Type, event); err != nil {
			logger.Warn("[Server] Client disconnected from stream", "run", runID, "err", err)
			return nil
		}
	}
	return nil
}
