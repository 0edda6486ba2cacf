package literature

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	name   string
	papers []Paper
	err    error
	fail   bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, _ string, _ int) (*SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &SearchResult{Success: !f.fail, Data: f.papers}, nil
}

func TestAggregatorMergesAllSources(t *testing.T) {
	agg := NewAggregator(
		&fakeSource{name: "pubmed", papers: []Paper{{Title: "P1"}, {Title: "P2"}}},
		&fakeSource{name: "arxiv", papers: []Paper{{Title: "A1"}}},
		&fakeSource{name: "scholar", papers: []Paper{{Title: "S1"}}},
	)

	result := agg.Search(context.Background(), "kinase", 5)
	if len(result.Papers) != 4 {
		t.Fatalf("got %d papers, want 4", len(result.Papers))
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	// Merge order follows source registration order.
	if result.Papers[0].Title != "P1" || result.Papers[3].Title != "S1" {
		t.Errorf("unexpected merge order: %+v", result.Papers)
	}
	if result.Papers[0].Source != "pubmed" {
		t.Errorf("paper source = %q, want pubmed", result.Papers[0].Source)
	}
}

func TestAggregatorToleratesPartialFailure(t *testing.T) {
	agg := NewAggregator(
		&fakeSource{name: "pubmed", papers: []Paper{{Title: "P1"}}},
		&fakeSource{name: "arxiv", err: errors.New("connection refused")},
		&fakeSource{name: "scholar", fail: true},
	)

	result := agg.Search(context.Background(), "kinase", 5)
	if len(result.Papers) != 1 {
		t.Fatalf("got %d papers, want 1 from the healthy source", len(result.Papers))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(result.Errors), result.Errors)
	}
	if result.Errors["arxiv"] == "" {
		t.Error("expected recorded error for arxiv")
	}
	if result.Queried != 3 {
		t.Errorf("queried = %d, want 3", result.Queried)
	}
}

func TestAggregatorAllSourcesFail(t *testing.T) {
	agg := NewAggregator(
		&fakeSource{name: "pubmed", err: errors.New("down")},
		&fakeSource{name: "arxiv", err: errors.New("down")},
	)

	result := agg.Search(context.Background(), "kinase", 5)
	if len(result.Papers) != 0 {
		t.Errorf("got %d papers, want 0", len(result.Papers))
	}
	if len(result.Errors) != 2 {
		t.Errorf("got %d errors, want 2", len(result.Errors))
	}
}
