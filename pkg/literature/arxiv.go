package literature

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const arxivBaseURL = "https://export.arxiv.org/api/query"

// ArxivSource searches arXiv through its Atom query API.
type ArxivSource struct {
	baseURL string
	client  *http.Client
}

func NewArxivSource() *ArxivSource {
	return &ArxivSource{
		baseURL: arxivBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *ArxivSource) Name() string { return "arxiv" }

func (s *ArxivSource) Search(ctx context.Context, query string, maxResults int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	var feed struct {
		Entries []struct {
			ID        string `xml:"id"`
			Title     string `xml:"title"`
			Summary   string `xml:"summary"`
			Published string `xml:"published"`
			Authors   []struct {
				Name string `xml:"name"`
			} `xml:"author"`
		} `xml:"entry"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		authors := make([]string, 0, len(entry.Authors))
		for _, author := range entry.Authors {
			authors = append(authors, author.Name)
		}

		year := 0
		if len(entry.Published) >= 4 {
			year, _ = strconv.Atoi(entry.Published[:4])
		}

		papers = append(papers, Paper{
			Title:    strings.TrimSpace(entry.Title),
			Authors:  authors,
			Abstract: strings.TrimSpace(entry.Summary),
			Year:     year,
			URL:      entry.ID,
		})
	}
	return &SearchResult{Success: true, Data: papers}, nil
}
