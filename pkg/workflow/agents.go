package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioreason/hypothesis/pkg/ai"
	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/literature"
	"github.com/bioreason/hypothesis/pkg/subgraph"
)

// CritiqueResult is the structured verdict returned by the critic agent.
type CritiqueResult struct {
	Decision   string   `json:"decision" jsonschema:"enum=approve,enum=revise"`
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Guidance   string   `json:"guidance"`
}

// agents bundles the collaborators every workflow phase draws on.
type agents struct {
	provider   ai.ProviderClient
	extractor  *subgraph.Extractor
	idx        *kg.Index
	aggregator *literature.Aggregator
}

// plan runs the planning phase: resolve the concept pair, extract the
// reasoning subgraph, and return the evidence narrative. When no concept
// pair is given the two highest-degree hubs with distinct types are used.
func (a *agents) plan(source, target string, cfg WorkflowConfig) (map[string]any, error) {
	if source == "" || target == "" {
		hubSource, hubTarget, err := a.hubPair()
		if err != nil {
			return nil, err
		}
		source, target = hubSource, hubTarget
	}

	maxLength := cfg.MaxPathLength
	if maxLength <= 0 {
		maxLength = 6
	}

	if cfg.ExplorationMode == ExplorationBroad {
		sg, err := a.extractor.ExtractMultiPath(source, target, maxLength, cfg.MaxPaths)
		if err != nil {
			return nil, fmt.Errorf("multi-path extraction failed: %w", err)
		}
		return map[string]any{
			"source":                sg.Primary.Source,
			"target":                sg.Primary.Target,
			"narrative":             sg.Narrative,
			"path":                  sg.Primary.PathString,
			"path_count":            1 + len(sg.Alternatives),
			"path_overlap_ratio":    sg.PathOverlapRatio,
			"unique_nodes_per_path": sg.UniqueNodesPerPath,
			"node_count":            len(sg.Nodes),
			"edge_count":            len(sg.Edges),
		}, nil
	}

	strategy := cfg.PathStrategy
	if strategy == "" {
		strategy = "shortest"
	}
	sg, err := a.extractor.Extract(source, target, strategy, maxLength)
	if err != nil {
		return nil, fmt.Errorf("subgraph extraction failed: %w", err)
	}
	return map[string]any{
		"source":     sg.Path.Source,
		"target":     sg.Path.Target,
		"narrative":  sg.Narrative,
		"path":       sg.Path.PathString,
		"strategy":   sg.Path.Strategy,
		"strength":   sg.Path.TotalStrength,
		"node_count": len(sg.Nodes),
		"edge_count": len(sg.Edges),
	}, nil
}

// hubPair picks the two highest-degree hubs, preferring a pair with
// distinct node types.
func (a *agents) hubPair() (string, string, error) {
	hubs := a.idx.Hubs()
	if len(hubs) < 2 {
		return "", "", fmt.Errorf("graph has %d hub(s), need a concept pair or at least 2 hubs", len(hubs))
	}
	first := hubs[0]
	for _, candidate := range hubs[1:] {
		if candidate.Type != first.Type {
			return first.ID, candidate.ID, nil
		}
	}
	return first.ID, hubs[1].ID, nil
}

// interpret runs the optional ontology phase over the planning narrative.
func (a *agents) interpret(ctx context.Context, narrative string) (map[string]any, error) {
	interpretation, err := a.provider.GenerateCompletion(ctx, fmt.Sprintf(ai.OntologyPrompt, narrative))
	if err != nil {
		return nil, fmt.Errorf("ontology agent failed: %w", err)
	}
	return map[string]any{"interpretation": interpretation}, nil
}

// generate produces the initial hypothesis from the evidence narrative.
// With an emitter attached tokens stream out as they arrive.
func (a *agents) generate(ctx context.Context, narrative string, emit eventSink) (map[string]any, error) {
	prompt := fmt.Sprintf(ai.HypothesisPrompt, narrative)
	text, err := a.completeStreaming(ctx, prompt, emit)
	if err != nil {
		return nil, fmt.Errorf("hypothesis agent failed: %w", err)
	}
	return map[string]any{"hypothesis": text}, nil
}

// revise rewrites a hypothesis against critique guidance.
func (a *agents) revise(ctx context.Context, narrative, previous, guidance string, emit eventSink) (map[string]any, error) {
	prompt := fmt.Sprintf(ai.RevisionPrompt, narrative, previous, guidance)
	text, err := a.completeStreaming(ctx, prompt, emit)
	if err != nil {
		return nil, fmt.Errorf("revision agent failed: %w", err)
	}
	return map[string]any{"hypothesis": text}, nil
}

// expand runs the optional literature expansion phase, fanning the
// hypothesis concepts out across the registered sources.
func (a *agents) expand(ctx context.Context, planning map[string]any, maxResults int) (map[string]any, error) {
	if a.aggregator == nil {
		return nil, fmt.Errorf("no literature sources registered")
	}

	source, _ := planning["source"].(string)
	target, _ := planning["target"].(string)
	query := strings.TrimSpace(source + " " + target)
	if query == "" {
		return nil, fmt.Errorf("planning output carries no concepts to search for")
	}

	result := a.aggregator.Search(ctx, query, maxResults)
	papers := make([]map[string]any, 0, len(result.Papers))
	for _, paper := range result.Papers {
		papers = append(papers, map[string]any{
			"title":    paper.Title,
			"abstract": paper.Abstract,
			"year":     paper.Year,
			"url":      paper.URL,
			"source":   paper.Source,
		})
	}
	return map[string]any{
		"query":         query,
		"papers":        papers,
		"source_errors": result.Errors,
	}, nil
}

// critique scores a hypothesis and decides approve or revise.
func (a *agents) critique(ctx context.Context, narrative, hypothesis string) (*CritiqueResult, error) {
	prompt := fmt.Sprintf(ai.CritiquePrompt, narrative, hypothesis)
	var result CritiqueResult
	err := a.provider.GenerateCompletionWithFormat(
		ctx,
		"critique_result",
		"Structured critique of a research hypothesis",
		prompt,
		&result,
	)
	if err != nil {
		return nil, fmt.Errorf("critic agent failed: %w", err)
	}
	if result.Decision != "approve" && result.Decision != "revise" {
		return nil, fmt.Errorf("critic returned unknown decision %q", result.Decision)
	}
	return &result, nil
}

// assemble writes the final report from the accepted hypothesis and the
// critique history.
func (a *agents) assemble(ctx context.Context, narrative, hypothesis, critiqueSummary string, emit eventSink) (map[string]any, error) {
	prompt := fmt.Sprintf(ai.AssemblyPrompt, narrative, hypothesis, critiqueSummary)
	report, err := a.completeStreaming(ctx, prompt, emit)
	if err != nil {
		return nil, fmt.Errorf("assembly agent failed: %w", err)
	}
	return map[string]any{"report": report}, nil
}

// completeStreaming generates a completion, forwarding tokens to emit in
// arrival order when an emitter is attached.
func (a *agents) completeStreaming(ctx context.Context, prompt string, emit eventSink) (string, error) {
	if emit == nil {
		return a.provider.GenerateCompletion(ctx, prompt)
	}

	events, err := a.provider.GenerateChatStream(ctx, []ai.ChatMessage{{Message: prompt, Role: "user"}})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for event := range events {
		if event.Type != "content" {
			continue
		}
		b.WriteString(event.Content)
		emit(Event{Type: EventAgentToken, Content: event.Content})
	}
	return b.String(), nil
}
