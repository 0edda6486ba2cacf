package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/bioreason/hypothesis/pkg/logger"
)

var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointResolved = errors.New("checkpoint already resolved")
)

// CheckpointStatus is the lifecycle state of a checkpoint.
type CheckpointStatus string

const (
	CheckpointPending  CheckpointStatus = "pending"
	CheckpointApproved CheckpointStatus = "approved"
	CheckpointModified CheckpointStatus = "modified"
	CheckpointRejected CheckpointStatus = "rejected"
	CheckpointTimeout  CheckpointStatus = "timeout"
	CheckpointSkipped  CheckpointStatus = "skipped"
)

// resolutionStatuses are the decisions a human may return for a pending
// checkpoint, surfaced on the serialized checkpoint as options.
var resolutionStatuses = []CheckpointStatus{
	CheckpointApproved,
	CheckpointModified,
	CheckpointRejected,
	CheckpointSkipped,
}

// Checkpoint is a paused workflow stage awaiting a human decision.
type Checkpoint struct {
	ID             string             `json:"id"`
	RunID          string             `json:"run_id"`
	Stage          string             `json:"stage"`
	AgentOutput    map[string]any     `json:"agent_output"`
	Summary        string             `json:"summary"`
	Options        []CheckpointStatus `json:"options"`
	TimeoutSeconds int                `json:"timeout_seconds"`
	Status         CheckpointStatus   `json:"status"`
	Feedback       string             `json:"feedback,omitempty"`
	Result         map[string]any     `json:"result,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`

	resolved chan Resolution
}

// snapshot copies the checkpoint for use outside the manager's lock. The
// caller must hold the lock.
func (c *Checkpoint) snapshot() Checkpoint {
	s := *c
	s.resolved = nil
	return s
}

// Resolution is the outcome of a checkpoint decision, carrying the output
// the workflow should continue with.
type Resolution struct {
	Status   CheckpointStatus
	Output   map[string]any
	Feedback string
}

// CheckpointManager tracks pending checkpoints across runs and hands
// resolutions back to waiting workflows.
type CheckpointManager struct {
	lock        sync.Mutex
	checkpoints map[string]*Checkpoint
}

func NewCheckpointManager() *CheckpointManager {
	return &CheckpointManager{
		checkpoints: make(map[string]*Checkpoint),
	}
}

// Create registers a pending checkpoint for a stage output. The returned
// value is a copy; the manager keeps the mutable record.
func (m *CheckpointManager) Create(runID string, stage string, output map[string]any, summary string, timeout time.Duration) Checkpoint {
	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("cp-%d", time.Now().UnixNano())
	}

	checkpoint := &Checkpoint{
		ID:             id,
		RunID:          runID,
		Stage:          stage,
		AgentOutput:    output,
		Summary:        summary,
		Options:        resolutionStatuses,
		TimeoutSeconds: int(timeout / time.Second),
		Status:         CheckpointPending,
		CreatedAt:      time.Now(),
		resolved:       make(chan Resolution, 1),
	}

	m.lock.Lock()
	m.checkpoints[id] = checkpoint
	snapshot := checkpoint.snapshot()
	m.lock.Unlock()

	logger.Info("[Checkpoint] Created", "id", id, "run", runID, "stage", stage)
	return snapshot
}

// Resolve records a human decision for a pending checkpoint. A checkpoint
// resolves exactly once, later calls fail with ErrCheckpointResolved.
// Modifications apply only when status is CheckpointModified and deep-merge
// over the agent output with the human values winning.
func (m *CheckpointManager) Resolve(id string, status CheckpointStatus, modifications map[string]any, feedback string) (Resolution, error) {
	valid := false
	for _, s := range resolutionStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return Resolution{}, fmt.Errorf("invalid checkpoint resolution status %q", status)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	checkpoint, ok := m.checkpoints[id]
	if !ok {
		return Resolution{}, ErrCheckpointNotFound
	}
	if checkpoint.Status != CheckpointPending {
		return Resolution{}, fmt.Errorf("%w: %s is %s", ErrCheckpointResolved, id, checkpoint.Status)
	}

	output := checkpoint.AgentOutput
	if status == CheckpointModified {
		output = DeepMerge(checkpoint.AgentOutput, modifications)
	}

	checkpoint.Status = status
	checkpoint.Feedback = feedback
	checkpoint.Result = output

	resolution := Resolution{Status: status, Output: output, Feedback: feedback}
	checkpoint.resolved <- resolution

	logger.Info("[Checkpoint] Resolved", "id", id, "status", status)
	return resolution, nil
}

// Wait blocks until the checkpoint resolves, the timeout elapses, or the
// context is done. On timeout the checkpoint is recorded as timed out and
// the workflow continues with the unmodified agent output.
func (m *CheckpointManager) Wait(ctx context.Context, id string, timeout time.Duration) (Resolution, error) {
	m.lock.Lock()
	checkpoint, ok := m.checkpoints[id]
	m.lock.Unlock()
	if !ok {
		return Resolution{}, ErrCheckpointNotFound
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resolution := <-checkpoint.resolved:
		return resolution, nil
	case <-timer.C:
		m.lock.Lock()
		if checkpoint.Status == CheckpointPending {
			checkpoint.Status = CheckpointTimeout
			m.lock.Unlock()
			logger.Warn("[Checkpoint] Timed out, continuing with agent output", "id", id, "stage", checkpoint.Stage)
			return Resolution{Status: CheckpointTimeout, Output: checkpoint.AgentOutput}, nil
		}
		m.lock.Unlock()
		// Resolved between the timer firing and the lock.
		return <-checkpoint.resolved, nil
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
}

// Get returns a copy of a checkpoint by id. Copies keep callers from
// observing Resolve's writes without the manager's lock.
func (m *CheckpointManager) Get(id string) (Checkpoint, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	checkpoint, ok := m.checkpoints[id]
	if !ok {
		return Checkpoint{}, false
	}
	return checkpoint.snapshot(), true
}

// ListPending returns copies of the pending checkpoints for a run, or for
// all runs when runID is empty.
func (m *CheckpointManager) ListPending(runID string) []Checkpoint {
	m.lock.Lock()
	defer m.lock.Unlock()

	pending := []Checkpoint{}
	for _, checkpoint := range m.checkpoints {
		if checkpoint.Status != CheckpointPending {
			continue
		}
		if runID != "" && checkpoint.RunID != runID {
			continue
		}
		pending = append(pending, checkpoint.snapshot())
	}
	return pending
}

// DiscardRun removes every checkpoint belonging to a finished run.
func (m *CheckpointManager) DiscardRun(runID string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for id, checkpoint := range m.checkpoints {
		if checkpoint.RunID == runID {
			delete(m.checkpoints, id)
		}
	}
}
