package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestResolveApproveKeepsAgentOutput(t *testing.T) {
	manager := NewCheckpointManager()
	output := map[string]any{"hypothesis": "draft"}
	checkpoint := manager.Create("run-1", StageHypothesisGeneration, output, "draft", time.Minute)

	resolution, err := manager.Resolve(checkpoint.ID, CheckpointApproved, nil, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(resolution.Output, output) {
		t.Errorf("approved output = %v, want the agent output unchanged", resolution.Output)
	}
	if resolution.Status != CheckpointApproved {
		t.Errorf("status = %q, want approved", resolution.Status)
	}
}

func TestResolveModifiedDeepMerges(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StagePlanning, map[string]any{
		"narrative": "original",
		"details":   map[string]any{"strength": 0.7, "hops": 2},
	}, "", time.Minute)

	resolution, err := manager.Resolve(checkpoint.ID, CheckpointModified, map[string]any{
		"details": map[string]any{"hops": 3},
	}, "shorter path preferred")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	details := resolution.Output["details"].(map[string]any)
	if details["hops"] != 3 {
		t.Errorf("hops = %v, want human value 3", details["hops"])
	}
	if details["strength"] != 0.7 {
		t.Errorf("strength = %v, want original 0.7 preserved", details["strength"])
	}
	if resolution.Output["narrative"] != "original" {
		t.Errorf("untouched key changed: %v", resolution.Output["narrative"])
	}
}

func TestResolveExactlyOnce(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StageCritique, map[string]any{}, "", time.Minute)

	if _, err := manager.Resolve(checkpoint.ID, CheckpointApproved, nil, ""); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	_, err := manager.Resolve(checkpoint.ID, CheckpointRejected, nil, "")
	if !errors.Is(err, ErrCheckpointResolved) {
		t.Errorf("second Resolve() error = %v, want ErrCheckpointResolved", err)
	}
}

func TestResolveUnknownCheckpoint(t *testing.T) {
	manager := NewCheckpointManager()
	_, err := manager.Resolve("missing", CheckpointApproved, nil, "")
	if !errors.Is(err, ErrCheckpointNotFound) {
		t.Errorf("Resolve() error = %v, want ErrCheckpointNotFound", err)
	}
}

func TestResolveRejectsInvalidStatus(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StagePlanning, map[string]any{}, "", time.Minute)
	if _, err := manager.Resolve(checkpoint.ID, CheckpointPending, nil, ""); err == nil {
		t.Error("expected error resolving to pending")
	}
}

func TestWaitReturnsResolution(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StageFinalAssembly, map[string]any{"report": "v1"}, "", time.Minute)

	go func() {
		time.Sleep(10 * time.Millisecond)
		manager.Resolve(checkpoint.ID, CheckpointApproved, nil, "")
	}()

	resolution, err := manager.Wait(context.Background(), checkpoint.ID, time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if resolution.Status != CheckpointApproved {
		t.Errorf("status = %q, want approved", resolution.Status)
	}
}

func TestWaitTimeoutContinuesWithAgentOutput(t *testing.T) {
	manager := NewCheckpointManager()
	output := map[string]any{"hypothesis": "draft"}
	checkpoint := manager.Create("run-1", StageHypothesisGeneration, output, "", time.Minute)

	resolution, err := manager.Wait(context.Background(), checkpoint.ID, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if resolution.Status != CheckpointTimeout {
		t.Errorf("status = %q, want timeout recorded distinctly from approval", resolution.Status)
	}
	if !reflect.DeepEqual(resolution.Output, output) {
		t.Errorf("timeout output = %v, want the unmodified agent output", resolution.Output)
	}

	stored, _ := manager.Get(checkpoint.ID)
	if stored.Status != CheckpointTimeout {
		t.Errorf("stored status = %q, want timeout", stored.Status)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StagePlanning, map[string]any{}, "", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := manager.Wait(ctx, checkpoint.ID, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestListPendingFiltersByRun(t *testing.T) {
	manager := NewCheckpointManager()
	a := manager.Create("run-a", StagePlanning, map[string]any{}, "", time.Minute)
	manager.Create("run-b", StagePlanning, map[string]any{}, "", time.Minute)
	resolved := manager.Create("run-a", StageCritique, map[string]any{}, "", time.Minute)
	manager.Resolve(resolved.ID, CheckpointApproved, nil, "")

	pending := manager.ListPending("run-a")
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("ListPending(run-a) = %d checkpoint(s), want only the pending one", len(pending))
	}
	if got := len(manager.ListPending("")); got != 2 {
		t.Errorf("ListPending(all) = %d, want 2", got)
	}
}

func TestListPendingReturnsCopies(t *testing.T) {
	manager := NewCheckpointManager()
	checkpoint := manager.Create("run-1", StagePlanning, map[string]any{"narrative": "draft"}, "", time.Minute)

	listed := manager.ListPending("run-1")
	if len(listed) != 1 {
		t.Fatalf("ListPending() = %d checkpoint(s), want 1", len(listed))
	}

	if _, err := manager.Resolve(checkpoint.ID, CheckpointApproved, nil, "fine"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if listed[0].Status != CheckpointPending {
		t.Errorf("listed copy status = %q, want pending untouched by Resolve", listed[0].Status)
	}
	stored, ok := manager.Get(checkpoint.ID)
	if !ok || stored.Status != CheckpointApproved {
		t.Errorf("stored status = %q, want approved", stored.Status)
	}
	stored.Feedback = "scribble"
	if again, _ := manager.Get(checkpoint.ID); again.Feedback != "fine" {
		t.Errorf("Get() copy writes leaked back: feedback = %q", again.Feedback)
	}
}

func TestListPendingDuringResolve(t *testing.T) {
	manager := NewCheckpointManager()
	ids := make([]string, 0, 32)
	for i := 0; i < 32; i++ {
		checkpoint := manager.Create("run-1", StagePlanning, map[string]any{"narrative": "draft"}, "", time.Minute)
		ids = append(ids, checkpoint.ID)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, id := range ids {
			manager.Resolve(id, CheckpointApproved, nil, "")
		}
	}()

	for {
		pending := manager.ListPending("run-1")
		if _, err := json.Marshal(pending); err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		select {
		case <-done:
			if got := len(manager.ListPending("run-1")); got != 0 {
				t.Errorf("pending after all resolutions = %d, want 0", got)
			}
			return
		default:
		}
	}
}

func TestCreateRecordsResolutionContract(t *testing.T) {
	manager := NewCheckpointManager()
	output := map[string]any{"hypothesis": "draft"}
	checkpoint := manager.Create("run-1", StageHypothesisGeneration, output, "draft", 90*time.Second)

	if checkpoint.TimeoutSeconds != 90 {
		t.Errorf("timeout_seconds = %d, want 90", checkpoint.TimeoutSeconds)
	}
	wantOptions := []CheckpointStatus{CheckpointApproved, CheckpointModified, CheckpointRejected, CheckpointSkipped}
	if !reflect.DeepEqual(checkpoint.Options, wantOptions) {
		t.Errorf("options = %v, want %v", checkpoint.Options, wantOptions)
	}

	if _, err := manager.Resolve(checkpoint.ID, CheckpointModified, map[string]any{"hypothesis": "edited"}, ""); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	stored, _ := manager.Get(checkpoint.ID)
	if !reflect.DeepEqual(stored.Result, map[string]any{"hypothesis": "edited"}) {
		t.Errorf("result = %v, want the merged resolution output", stored.Result)
	}
}

func TestDiscardRun(t *testing.T) {
	manager := NewCheckpointManager()
	manager.Create("run-a", StagePlanning, map[string]any{}, "", time.Minute)
	keep := manager.Create("run-b", StagePlanning, map[string]any{}, "", time.Minute)

	manager.DiscardRun("run-a")

	if len(manager.ListPending("run-a")) != 0 {
		t.Error("run-a checkpoints survived DiscardRun")
	}
	if _, ok := manager.Get(keep.ID); !ok {
		t.Error("run-b checkpoint removed by DiscardRun of run-a")
	}
}
