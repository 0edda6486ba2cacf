package workflow

import (
	"context"
	"time"

	"github.com/bioreason/hypothesis/pkg/logger"
)

// Event types emitted over a streaming run, in the order a client observes
// them: workflow_start, then per phase phase_start, agent_token (zero or
// more), agent_complete, an optional checkpoint event, phase_complete; an
// iteration_decision after every critique; finally workflow_complete or
// error.
const (
	EventWorkflowStart     = "workflow_start"
	EventPhaseStart        = "phase_start"
	EventAgentToken        = "agent_token"
	EventAgentComplete     = "agent_complete"
	EventCheckpoint        = "checkpoint"
	EventPhaseComplete     = "phase_complete"
	EventIterationDecision = "iteration_decision"
	EventWorkflowComplete  = "workflow_complete"
	EventError             = "error"
)

// Event is one observable step of a workflow run.
type Event struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Iteration int            `json:"iteration,omitempty"`
	Content   string         `json:"content,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Error     string         `json:"error,omitempty"`
	Time      time.Time      `json:"time"`
}

// eventSink receives events in emission order. A nil sink disables
// streaming and the agents fall back to blocking completions.
type eventSink func(Event)

// ExecuteStream runs a workflow and delivers its events over the returned
// channel. The channel closes after the terminal event. The buffer absorbs
// token bursts; a consumer that stops reading must cancel ctx to unblock
// the run once the buffer fills.
func (r *Runner) ExecuteStream(ctx context.Context, runID string, req RunRequest) <-chan Event {
	events := make(chan Event, 64)

	go func() {
		defer close(events)
		emit := func(event Event) {
			event.RunID = runID
			event.Time = time.Now()
			select {
			case events <- event:
			case <-ctx.Done():
			}
		}
		if _, err := r.execute(ctx, runID, req, emit); err != nil {
			logger.Error("[Workflow] Streaming run failed", "run", runID, "error", err)
		}
	}()

	return events
}
