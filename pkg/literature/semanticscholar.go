package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholarSource searches the Semantic Scholar Graph API. An API key
// raises the rate limit but is not required.
type SemanticScholarSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSemanticScholarSource(apiKey string) *SemanticScholarSource {
	return &SemanticScholarSource{
		baseURL: semanticScholarBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

func (s *SemanticScholarSource) Search(ctx context.Context, query string, maxResults int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("fields", "title,abstract,year,url,authors")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar returned status %d", resp.StatusCode)
	}

	var reply struct {
		Data []struct {
			Title    string `json:"title"`
			Abstract string `json:"abstract"`
			Year     int    `json:"year"`
			URL      string `json:"url"`
			Authors  []struct {
				Name string `json:"name"`
			} `json:"authors"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(reply.Data))
	for _, item := range reply.Data {
		authors := make([]string, 0, len(item.Authors))
		for _, author := range item.Authors {
			authors = append(authors, author.Name)
		}
		papers = append(papers, Paper{
			Title:    item.Title,
			Authors:  authors,
			Abstract: item.Abstract,
			Year:     item.Year,
			URL:      item.URL,
		})
	}
	return &SearchResult{Success: true, Data: papers}, nil
}
