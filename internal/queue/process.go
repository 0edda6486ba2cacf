package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

// RunJobMsg is the payload of a queued workflow run. RunID references a
// run the control surface already prepared, so clients can poll its state
// while the job waits for a worker.
type RunJobMsg struct {
	Message string              `json:"message"`
	RunID   string              `json:"run_id"`
	Request workflow.RunRequest `json:"request"`
}

// PublishRun enqueues a prepared workflow run for the worker.
func PublishRun(ch *amqp091.Channel, runID string, req workflow.RunRequest) error {
	msg := RunJobMsg{
		Message: "Queued workflow run",
		RunID:   runID,
		Request: req,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal run job: %w", err)
	}
	return PublishFIFO(ch, RunQueue, data)
}

// ProcessRunMessage executes one queued workflow run to its terminal
// state.
func ProcessRunMessage(
	ctx context.Context,
	runner *workflow.Runner,
	msg string,
) error {
	data := new(RunJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.RunID == "" {
		return fmt.Errorf("run job carries no run_id")
	}

	logger.Info("[Queue] Starting workflow run", "run", data.RunID, "graph", data.Request.GraphPath)
	result, err := runner.Execute(ctx, data.RunID, data.Request)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Workflow run finished", "run", data.RunID, "status", result.Status, "iterations", result.Iterations)
	return nil
}
