package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunCreated   RunStatus = "created"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// AuditEntry is one recorded workflow event.
type AuditEntry struct {
	Time  time.Time `json:"time"`
	Stage string    `json:"stage,omitempty"`
	Event string    `json:"event"`
}

// RunState is the mutable record of one workflow run.
type RunState struct {
	RunID        string                    `json:"run_id"`
	Status       RunStatus                 `json:"status"`
	CurrentStage string                    `json:"current_stage,omitempty"`
	Iteration    int                       `json:"iteration"`
	PhaseOutputs map[string]map[string]any `json:"phase_outputs"`
	Audit        []AuditEntry              `json:"audit"`
	Error        string                    `json:"error,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// RunRegistry holds run state behind a mutex so the HTTP handlers, the
// queue worker, and the run goroutine can read and write concurrently.
type RunRegistry struct {
	lock sync.RWMutex
	runs map[string]*RunState
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*RunState)}
}

// Create registers a new run and returns its id.
func (r *RunRegistry) Create() string {
	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	now := time.Now()
	r.lock.Lock()
	r.runs[id] = &RunState{
		RunID:        id,
		Status:       RunCreated,
		PhaseOutputs: make(map[string]map[string]any),
		Audit:        []AuditEntry{{Time: now, Event: "run created"}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.lock.Unlock()
	return id
}

// Ensure registers a run prepared in another process, such as a job
// arriving over the queue. Existing runs are left untouched.
func (r *RunRegistry) Ensure(id string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.runs[id]; ok {
		return
	}
	now := time.Now()
	r.runs[id] = &RunState{
		RunID:        id,
		Status:       RunCreated,
		PhaseOutputs: make(map[string]map[string]any),
		Audit:        []AuditEntry{{Time: now, Event: "run created"}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Get returns a snapshot of a run, safe to serialize without holding the
// lock.
func (r *RunRegistry) Get(id string) (RunState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	state, ok := r.runs[id]
	if !ok {
		return RunState{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	snapshot := *state
	snapshot.PhaseOutputs = make(map[string]map[string]any, len(state.PhaseOutputs))
	for stage, output := range state.PhaseOutputs {
		snapshot.PhaseOutputs[stage] = output
	}
	snapshot.Audit = append([]AuditEntry{}, state.Audit...)
	return snapshot, nil
}

// SetStatus transitions a run and records the transition in the audit
// trail.
func (r *RunRegistry) SetStatus(id string, status RunStatus, detail string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.Status = status
	if status == RunFailed || status == RunCancelled {
		state.Error = detail
	}
	event := fmt.Sprintf("status %s", status)
	if detail != "" {
		event = fmt.Sprintf("%s: %s", event, detail)
	}
	state.Audit = append(state.Audit, AuditEntry{Time: time.Now(), Event: event})
	state.UpdatedAt = time.Now()
}

// SetStage records the stage a run is currently executing.
func (r *RunRegistry) SetStage(id string, stage string, iteration int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.CurrentStage = stage
	state.Iteration = iteration
	state.Audit = append(state.Audit, AuditEntry{Time: time.Now(), Stage: stage, Event: "stage started"})
	state.UpdatedAt = time.Now()
}

// SetPhaseOutput stores the accepted output of a completed stage.
func (r *RunRegistry) SetPhaseOutput(id string, stage string, output map[string]any) {
	r.lock.Lock()
	defer r.lock.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.PhaseOutputs[stage] = output
	state.Audit = append(state.Audit, AuditEntry{Time: time.Now(), Stage: stage, Event: "stage completed"})
	state.UpdatedAt = time.Now()
}

// AppendAudit records an event against a run.
func (r *RunRegistry) AppendAudit(id string, stage string, event string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.Audit = append(state.Audit, AuditEntry{Time: time.Now(), Stage: stage, Event: event})
	state.UpdatedAt = time.Now()
}
