package literature

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bioreason/hypothesis/pkg/logger"
)

// Paper is a single literature record returned by a search source.
type Paper struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	Year     int      `json:"year"`
	URL      string   `json:"url"`
	Source   string   `json:"source"`
}

// SearchResult is the per-source reply contract.
type SearchResult struct {
	Success bool    `json:"success"`
	Data    []Paper `json:"data"`
}

// Source is one external literature search backend. Implementations are
// external collaborators; this package only aggregates them.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) (*SearchResult, error)
}

// AggregateResult combines per-source outcomes. A failed source contributes
// an entry in Errors but never fails the aggregate call.
type AggregateResult struct {
	Papers  []Paper           `json:"papers"`
	Errors  map[string]string `json:"errors,omitempty"`
	Queried int               `json:"queried"`
}

// Aggregator fans a query out across the registered sources.
type Aggregator struct {
	sources []Source
}

// NewAggregator creates an aggregator over the given sources.
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// Search queries every source in parallel and merges their papers in source
// registration order. Per-source failures are recorded and logged; the
// aggregate succeeds as long as the context stays alive.
func (a *Aggregator) Search(ctx context.Context, query string, maxResults int) *AggregateResult {
	result := &AggregateResult{
		Errors:  map[string]string{},
		Queried: len(a.sources),
	}

	perSource := make([][]Paper, len(a.sources))
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	for i, source := range a.sources {
		eg.Go(func() error {
			res, err := source.Search(gCtx, query, maxResults)
			if err != nil {
				logger.Warn("[Literature] Source failed",
					"source", source.Name(),
					"err", err,
				)
				mu.Lock()
				result.Errors[source.Name()] = err.Error()
				mu.Unlock()
				return nil
			}
			if res == nil || !res.Success {
				mu.Lock()
				result.Errors[source.Name()] = "source reported failure"
				mu.Unlock()
				return nil
			}

			papers := res.Data
			for j := range papers {
				papers[j].Source = source.Name()
			}
			mu.Lock()
			perSource[i] = papers
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	for _, papers := range perSource {
		result.Papers = append(result.Papers, papers...)
	}

	logger.Debug("[Literature] Aggregate search complete",
		"query", query,
		"papers", len(result.Papers),
		"failed_sources", len(result.Errors),
	)

	return result
}
