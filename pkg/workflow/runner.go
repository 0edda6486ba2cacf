package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioreason/hypothesis/pkg/ai"
	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/literature"
	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/subgraph"
)

// RunRequest describes one workflow run.
type RunRequest struct {
	GraphPath     string         `json:"graph_path" validate:"required"`
	SourceConcept string         `json:"source_concept"`
	TargetConcept string         `json:"target_concept"`
	Config        WorkflowConfig `json:"config"`
}

// RunResult is the terminal outcome of a run.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Status     RunStatus        `json:"status"`
	Hypothesis string           `json:"hypothesis,omitempty"`
	Report     string           `json:"report,omitempty"`
	Iterations int              `json:"iterations"`
	Critiques  []CritiqueResult `json:"critiques,omitempty"`
	Reason     string           `json:"reason,omitempty"`
}

// Runner drives workflow runs against a knowledge graph, one goroutine per
// run.
type Runner struct {
	provider    ai.ProviderClient
	registry    *RunRegistry
	checkpoints *CheckpointManager
	sources     []literature.Source
}

type NewRunnerParams struct {
	Provider    ai.ProviderClient
	Registry    *RunRegistry
	Checkpoints *CheckpointManager
	Sources     []literature.Source
}

func NewRunner(params NewRunnerParams) *Runner {
	registry := params.Registry
	if registry == nil {
		registry = NewRunRegistry()
	}
	checkpoints := params.Checkpoints
	if checkpoints == nil {
		checkpoints = NewCheckpointManager()
	}
	return &Runner{
		provider:    params.Provider,
		registry:    registry,
		checkpoints: checkpoints,
		sources:     params.Sources,
	}
}

// Registry exposes run state for the control surface.
func (r *Runner) Registry() *RunRegistry { return r.registry }

// Checkpoints exposes the checkpoint manager for the control surface.
func (r *Runner) Checkpoints() *CheckpointManager { return r.checkpoints }

// Prepare validates a request and registers a new run in the created
// state. The caller decides whether to execute inline, in a goroutine, or
// through the queue.
func (r *Runner) Prepare(req RunRequest) (string, error) {
	if req.GraphPath == "" {
		return "", fmt.Errorf("graph_path is required")
	}
	if err := req.Config.Validate(); err != nil {
		return "", fmt.Errorf("invalid workflow config: %w", err)
	}
	return r.registry.Create(), nil
}

// Execute runs the full workflow for a prepared run, blocking until the
// terminal state.
func (r *Runner) Execute(ctx context.Context, runID string, req RunRequest) (*RunResult, error) {
	return r.execute(ctx, runID, req, nil)
}

func (r *Runner) execute(ctx context.Context, runID string, req RunRequest, emit eventSink) (*RunResult, error) {
	cfg := req.Config
	defer r.checkpoints.DiscardRun(runID)

	r.registry.Ensure(runID)
	r.registry.SetStatus(runID, RunRunning, "")
	r.emitEvent(emit, Event{Type: EventWorkflowStart, Payload: map[string]any{
		"graph_path": req.GraphPath,
		"hitl_mode":  string(cfg.HITLMode),
	}})

	graph, err := kg.Load(req.GraphPath)
	if err != nil {
		return r.fail(runID, emit, fmt.Errorf("loading knowledge graph: %w", err))
	}
	idx := kg.BuildIndex(graph)

	var aggregator *literature.Aggregator
	if cfg.EnableLiteratureSearch && len(r.sources) > 0 {
		aggregator = literature.NewAggregator(r.sources...)
	}
	team := &agents{
		provider:   r.provider,
		extractor:  subgraph.NewExtractor(idx, subgraph.ExtractorParams{}),
		idx:        idx,
		aggregator: aggregator,
	}

	// Planning.
	planning, failed, err := r.phase(ctx, runID, cfg, StagePlanning, 0, emit, func() (map[string]any, error) {
		return team.plan(req.SourceConcept, req.TargetConcept, cfg)
	})
	if err != nil {
		if failed {
			return r.fail(runID, emit, err)
		}
		return r.cancel(runID, emit, err.Error())
	}
	narrative, _ := planning["narrative"].(string)

	// Ontology, optional.
	if cfg.EnableOntologist {
		_, failed, err := r.optionalPhase(ctx, runID, cfg, StageOntology, 0, emit, func() (map[string]any, error) {
			return team.interpret(ctx, narrative)
		})
		if err != nil {
			if !failed {
				return r.cancel(runID, emit, err.Error())
			}
			logger.Warn("[Workflow] Ontology phase skipped", "run", runID, "error", err)
		}
	}

	// Hypothesis generation.
	generation, failed, err := r.phase(ctx, runID, cfg, StageHypothesisGeneration, 1, emit, func() (map[string]any, error) {
		return team.generate(ctx, narrative, stageSink(emit, StageHypothesisGeneration, 1))
	})
	if err != nil {
		if failed {
			return r.fail(runID, emit, err)
		}
		return r.cancel(runID, emit, err.Error())
	}
	hypothesis, _ := generation["hypothesis"].(string)

	// Literature expansion, optional.
	if cfg.EnableExpansion {
		if rejected, reason := r.expandPhase(ctx, runID, cfg, 1, emit, team, planning); rejected {
			return r.cancel(runID, emit, reason)
		}
	}

	// Critique loop.
	var critiques []CritiqueResult
	iterations := 0
	for iteration := 1; iteration <= cfg.MaxIterations; iteration++ {
		iterations = iteration

		critiqueOut, failed, err := r.phase(ctx, runID, cfg, StageCritique, iteration, emit, func() (map[string]any, error) {
			verdict, err := team.critique(ctx, narrative, hypothesis)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"decision":   verdict.Decision,
				"score":      verdict.Score,
				"strengths":  verdict.Strengths,
				"weaknesses": verdict.Weaknesses,
				"guidance":   verdict.Guidance,
			}, nil
		})
		if err != nil {
			if failed {
				return r.fail(runID, emit, err)
			}
			return r.cancel(runID, emit, err.Error())
		}

		verdict := critiqueFromOutput(critiqueOut)
		critiques = append(critiques, verdict)

		accepted := verdict.Decision == "approve" || verdict.Score >= cfg.MinApprovalScore
		r.emitEvent(emit, Event{
			Type:      EventIterationDecision,
			Stage:     StageCritique,
			Iteration: iteration,
			Payload: map[string]any{
				"decision": verdict.Decision,
				"score":    verdict.Score,
				"accepted": accepted,
			},
		})
		r.registry.AppendAudit(runID, StageCritique, fmt.Sprintf("iteration %d: %s (score %.2f)", iteration, verdict.Decision, verdict.Score))

		if accepted || iteration == cfg.MaxIterations {
			break
		}

		// Revision under the generation stage, gated like the first draft.
		revision, failed, err := r.phase(ctx, runID, cfg, StageHypothesisGeneration, iteration+1, emit, func() (map[string]any, error) {
			return team.revise(ctx, narrative, hypothesis, verdict.Guidance, stageSink(emit, StageHypothesisGeneration, iteration+1))
		})
		if err != nil {
			if failed {
				return r.fail(runID, emit, err)
			}
			return r.cancel(runID, emit, err.Error())
		}
		hypothesis, _ = revision["hypothesis"].(string)

		if cfg.EnableExpansion {
			if rejected, reason := r.expandPhase(ctx, runID, cfg, iteration+1, emit, team, planning); rejected {
				return r.cancel(runID, emit, reason)
			}
		}
	}

	// Final assembly.
	assembly, failed, err := r.phase(ctx, runID, cfg, StageFinalAssembly, iterations, emit, func() (map[string]any, error) {
		return team.assemble(ctx, narrative, hypothesis, critiqueSummary(critiques), stageSink(emit, StageFinalAssembly, iterations))
	})
	if err != nil {
		if failed {
			return r.fail(runID, emit, err)
		}
		return r.cancel(runID, emit, err.Error())
	}
	report, _ := assembly["report"].(string)

	r.registry.SetStatus(runID, RunCompleted, "")
	result := &RunResult{
		RunID:      runID,
		Status:     RunCompleted,
		Hypothesis: hypothesis,
		Report:     report,
		Iterations: iterations,
		Critiques:  critiques,
	}
	r.emitEvent(emit, Event{Type: EventWorkflowComplete, Payload: map[string]any{
		"status":     string(RunCompleted),
		"iterations": iterations,
	}})
	logger.Info("[Workflow] Run completed", "run", runID, "iterations", iterations)
	return result, nil
}

// phase executes one required stage: run the agent, surface its output
// through a checkpoint when the stage is gated, then record the accepted
// output. The bool distinguishes agent failure (true) from human rejection
// (false).
func (r *Runner) phase(
	ctx context.Context,
	runID string,
	cfg WorkflowConfig,
	stage string,
	iteration int,
	emit eventSink,
	fn func() (map[string]any, error),
) (map[string]any, bool, error) {
	r.registry.SetStage(runID, stage, iteration)
	r.emitEvent(emit, Event{Type: EventPhaseStart, Stage: stage, Iteration: iteration})

	output, err := fn()
	if err != nil {
		return nil, true, err
	}
	r.emitEvent(emit, Event{Type: EventAgentComplete, Stage: stage, Iteration: iteration})

	if cfg.StageActive(stage) {
		checkpoint := r.checkpoints.Create(runID, stage, output, summarize(output), cfg.CheckpointTimeout)
		r.emitEvent(emit, Event{Type: EventCheckpoint, Stage: stage, Iteration: iteration, Payload: map[string]any{
			"checkpoint_id":   checkpoint.ID,
			"timeout_seconds": checkpoint.TimeoutSeconds,
		}})
		r.registry.AppendAudit(runID, stage, fmt.Sprintf("checkpoint %s pending", checkpoint.ID))

		resolution, err := r.checkpoints.Wait(ctx, checkpoint.ID, cfg.CheckpointTimeout)
		if err != nil {
			return nil, true, fmt.Errorf("waiting for checkpoint: %w", err)
		}
		r.registry.AppendAudit(runID, stage, fmt.Sprintf("checkpoint %s %s", checkpoint.ID, resolution.Status))

		if resolution.Status == CheckpointRejected {
			reason := resolution.Feedback
			if reason == "" {
				reason = fmt.Sprintf("%s output rejected", stage)
			}
			return nil, false, fmt.Errorf("%s", reason)
		}
		output = resolution.Output
	}

	r.registry.SetPhaseOutput(runID, stage, output)
	r.emitEvent(emit, Event{Type: EventPhaseComplete, Stage: stage, Iteration: iteration})
	return output, false, nil
}

// optionalPhase is phase for stages whose failure is logged and omitted
// rather than failing the run. Human rejection still cancels.
func (r *Runner) optionalPhase(
	ctx context.Context,
	runID string,
	cfg WorkflowConfig,
	stage string,
	iteration int,
	emit eventSink,
	fn func() (map[string]any, error),
) (map[string]any, bool, error) {
	output, failed, err := r.phase(ctx, runID, cfg, stage, iteration, emit, fn)
	if err != nil && failed {
		r.registry.AppendAudit(runID, stage, fmt.Sprintf("skipped: %s", err))
		r.emitEvent(emit, Event{Type: EventPhaseComplete, Stage: stage, Iteration: iteration, Error: err.Error()})
	}
	return output, failed, err
}

func (r *Runner) expandPhase(ctx context.Context, runID string, cfg WorkflowConfig, iteration int, emit eventSink, team *agents, planning map[string]any) (rejected bool, reason string) {
	_, failed, err := r.optionalPhase(ctx, runID, cfg, StageHypothesisExpansion, iteration, emit, func() (map[string]any, error) {
		return team.expand(ctx, planning, 10)
	})
	if err != nil {
		if !failed {
			return true, err.Error()
		}
		logger.Warn("[Workflow] Expansion phase skipped", "run", runID, "error", err)
	}
	return false, ""
}

func (r *Runner) fail(runID string, emit eventSink, err error) (*RunResult, error) {
	r.registry.SetStatus(runID, RunFailed, err.Error())
	r.emitEvent(emit, Event{Type: EventError, Error: err.Error()})
	logger.Error("[Workflow] Run failed", "run", runID, "error", err)
	return &RunResult{RunID: runID, Status: RunFailed, Reason: err.Error()}, err
}

func (r *Runner) cancel(runID string, emit eventSink, reason string) (*RunResult, error) {
	r.registry.SetStatus(runID, RunCancelled, reason)
	r.emitEvent(emit, Event{Type: EventWorkflowComplete, Payload: map[string]any{
		"status": string(RunCancelled),
		"reason": reason,
	}})
	logger.Info("[Workflow] Run cancelled", "run", runID, "reason", reason)
	return &RunResult{RunID: runID, Status: RunCancelled, Reason: reason}, nil
}

func (r *Runner) emitEvent(emit eventSink, event Event) {
	if emit != nil {
		emit(event)
	}
}

// stageSink stamps agent-emitted events with their stage and iteration.
func stageSink(emit eventSink, stage string, iteration int) eventSink {
	if emit == nil {
		return nil
	}
	return func(event Event) {
		event.Stage = stage
		event.Iteration = iteration
		emit(event)
	}
}

func critiqueFromOutput(output map[string]any) CritiqueResult {
	verdict := CritiqueResult{}
	verdict.Decision, _ = output["decision"].(string)
	verdict.Score, _ = output["score"].(float64)
	verdict.Guidance, _ = output["guidance"].(string)
	verdict.Strengths = stringSlice(output["strengths"])
	verdict.Weaknesses = stringSlice(output["weaknesses"])
	return verdict
}

func stringSlice(raw any) []string {
	switch value := raw.(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func critiqueSummary(critiques []CritiqueResult) string {
	if len(critiques) == 0 {
		return "No critique was performed."
	}
	var b strings.Builder
	for i, critique := range critiques {
		fmt.Fprintf(&b, "Iteration %d: %s (score %.2f)\n", i+1, critique.Decision, critique.Score)
		for _, strength := range critique.Strengths {
			fmt.Fprintf(&b, "  + %s\n", strength)
		}
		for _, weakness := range critique.Weaknesses {
			fmt.Fprintf(&b, "  - %s\n", weakness)
		}
	}
	return b.String()
}

// summarize builds the short human-facing text shown on a checkpoint.
func summarize(output map[string]any) string {
	for _, key := range []string{"hypothesis", "report", "narrative", "interpretation", "decision"} {
		if value, ok := output[key].(string); ok && value != "" {
			if len(value) > 280 {
				return value[:280] + "..."
			}
			return value
		}
	}
	return fmt.Sprintf("%d output field(s)", len(output))
}
