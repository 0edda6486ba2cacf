package workflow

import (
	"fmt"
	"time"
)

// Workflow stages in execution order.
const (
	StagePlanning             = "planning"
	StageOntology             = "ontology"
	StageHypothesisGeneration = "hypothesis_generation"
	StageHypothesisExpansion  = "hypothesis_expansion"
	StageCritique             = "critique"
	StageFinalAssembly        = "final_assembly"
)

// Stages lists every workflow stage in execution order.
var Stages = []string{
	StagePlanning,
	StageOntology,
	StageHypothesisGeneration,
	StageHypothesisExpansion,
	StageCritique,
	StageFinalAssembly,
}

// criticalStages is the fixed subset gated under HITLCriticalOnly.
var criticalStages = []string{
	StageHypothesisGeneration,
	StageFinalAssembly,
}

// HITLMode selects which stages pause for a human checkpoint.
type HITLMode string

const (
	HITLDisabled     HITLMode = "disabled"
	HITLCriticalOnly HITLMode = "critical_only"
	HITLFull         HITLMode = "full"
	HITLCustom       HITLMode = "custom"
)

// ExplorationMode selects the evidence-gathering breadth of the planning
// phase.
type ExplorationMode string

const (
	// ExplorationFocused extracts a single-path subgraph.
	ExplorationFocused ExplorationMode = "focused"
	// ExplorationBroad extracts a multi-path subgraph with alternatives.
	ExplorationBroad ExplorationMode = "broad"
)

// WorkflowConfig is the policy for one run.
type WorkflowConfig struct {
	MaxIterations    int     `json:"max_iterations" validate:"min=1,max=20"`
	MinApprovalScore float64 `json:"min_approval_score" validate:"min=0,max=1"`

	ExplorationMode ExplorationMode `json:"exploration_mode"`
	PathStrategy    string          `json:"path_strategy"`
	MaxPathLength   int             `json:"max_path_length"`
	MaxPaths        int             `json:"max_paths"`

	HITLMode          HITLMode      `json:"hitl_mode"`
	CustomStages      []string      `json:"custom_stages,omitempty"`
	CheckpointTimeout time.Duration `json:"checkpoint_timeout"`

	EnableOntologist       bool `json:"enable_ontologist"`
	EnableExpansion        bool `json:"enable_expansion"`
	EnableLiteratureSearch bool `json:"enable_literature_search"`
}

// DefaultConfig returns the standard run policy.
func DefaultConfig() WorkflowConfig {
	return WorkflowConfig{
		MaxIterations:          3,
		MinApprovalScore:       0.8,
		ExplorationMode:        ExplorationFocused,
		PathStrategy:           "shortest",
		MaxPathLength:          6,
		MaxPaths:               3,
		HITLMode:               HITLDisabled,
		CheckpointTimeout:      5 * time.Minute,
		EnableOntologist:       true,
		EnableExpansion:        true,
		EnableLiteratureSearch: true,
	}
}

// Validate checks config bounds and mode consistency.
func (c *WorkflowConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.MinApprovalScore < 0 || c.MinApprovalScore > 1 {
		return fmt.Errorf("min_approval_score must be within [0,1], got %f", c.MinApprovalScore)
	}
	switch c.HITLMode {
	case HITLDisabled, HITLCriticalOnly, HITLFull:
	case HITLCustom:
		if len(c.CustomStages) == 0 {
			return fmt.Errorf("custom HITL mode requires custom_stages")
		}
		valid := map[string]bool{}
		for _, s := range Stages {
			valid[s] = true
		}
		for _, s := range c.CustomStages {
			if !valid[s] {
				return fmt.Errorf("unknown workflow stage %q in custom_stages", s)
			}
		}
	default:
		return fmt.Errorf("unknown HITL mode %q", c.HITLMode)
	}
	return nil
}

// ActiveStages returns the checkpoint-gated stages for this config, derived
// from the HITL mode.
func (c *WorkflowConfig) ActiveStages() []string {
	switch c.HITLMode {
	case HITLCriticalOnly:
		return append([]string{}, criticalStages...)
	case HITLFull:
		return append([]string{}, Stages...)
	case HITLCustom:
		return append([]string{}, c.CustomStages...)
	default:
		return nil
	}
}

// StageActive reports whether stage is checkpoint-gated under this config.
func (c *WorkflowConfig) StageActive(stage string) bool {
	for _, s := range c.ActiveStages() {
		if s == stage {
			return true
		}
	}
	return false
}
