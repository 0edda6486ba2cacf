package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bioreason/hypothesis/pkg/kg"
	"github.com/bioreason/hypothesis/pkg/pathfind"
	"github.com/bioreason/hypothesis/pkg/subgraph"
)

// FindPathsHandler resolves two concepts and returns reasoning paths
// between them. With a strategy it runs that single strategy, without one
// it gathers paths from every strategy.
func FindPathsHandler(c echo.Context) error {
	type findPathsRequest struct {
		GraphPath string `json:"graph_path" validate:"required"`
		Source    string `json:"source" validate:"required"`
		Target    string `json:"target" validate:"required"`
		Strategy  string `json:"strategy"`
		MaxLength int    `json:"max_length"`
		MaxPaths  int    `json:"max_paths"`
	}

	data := new(findPathsRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	graph, err := kg.Load(data.GraphPath)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	idx := kg.BuildIndex(graph)

	extractor := subgraph.NewExtractor(idx, subgraph.ExtractorParams{})
	source, err := extractor.ResolveConcept(data.Source)
	if err != nil {
		if errors.Is(err, subgraph.ErrConceptNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	target, err := extractor.ResolveConcept(data.Target)
	if err != nil {
		if errors.Is(err, subgraph.ErrConceptNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	maxLength := data.MaxLength
	if maxLength <= 0 {
		maxLength = pathfind.DefaultMaxLength
	}
	maxPaths := data.MaxPaths
	if maxPaths <= 0 {
		maxPaths = 5
	}

	finder := pathfind.NewPathFinder(idx)
	var paths []*pathfind.PathResult
	if data.Strategy != "" {
		path, found, err := finder.FindPath(data.Strategy, source.ID, target.ID, maxLength)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if found {
			paths = append(paths, path)
		}
	} else {
		paths = finder.FindAllPaths(source.ID, target.ID, maxLength, maxPaths)
	}
	if paths == nil {
		paths = []*pathfind.PathResult{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"source": source.ID,
		"target": target.ID,
		"paths":  paths,
	})
}
