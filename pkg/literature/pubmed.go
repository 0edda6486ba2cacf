package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pubmedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedSource searches PubMed through the NCBI E-utilities API.
type PubMedSource struct {
	baseURL string
	client  *http.Client
}

func NewPubMedSource() *PubMedSource {
	return &PubMedSource{
		baseURL: pubmedBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *PubMedSource) Name() string { return "pubmed" }

func (s *PubMedSource) Search(ctx context.Context, query string, maxResults int) (*SearchResult, error) {
	ids, err := s.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &SearchResult{Success: true, Data: []Paper{}}, nil
	}

	papers, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Success: true, Data: papers}, nil
}

func (s *PubMedSource) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")

	var reply struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/esearch.fcgi?"+params.Encode(), &reply); err != nil {
		return nil, err
	}
	return reply.ESearchResult.IDList, nil
}

func (s *PubMedSource) summaries(ctx context.Context, ids []string) ([]Paper, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")

	var reply struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/esummary.fcgi?"+params.Encode(), &reply); err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(ids))
	for _, id := range ids {
		raw, ok := reply.Result[id]
		if !ok {
			continue
		}
		var doc struct {
			Title   string `json:"title"`
			PubDate string `json:"pubdate"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		authors := make([]string, 0, len(doc.Authors))
		for _, author := range doc.Authors {
			authors = append(authors, author.Name)
		}

		papers = append(papers, Paper{
			Title:   doc.Title,
			Authors: authors,
			Year:    yearFromDate(doc.PubDate),
			URL:     "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
		})
	}
	return papers, nil
}

func (s *PubMedSource) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pubmed returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// yearFromDate parses the leading year of a pubdate like "2024 Mar 15".
func yearFromDate(date string) int {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return 0
	}
	year, _ := strconv.Atoi(fields[0])
	return year
}
