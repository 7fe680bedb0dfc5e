// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// exaAPIBase is the Exa search endpoint. Declared as a var so tests can
// substitute an httptest server.
var exaAPIBase = "https://api.exa.ai/search"

const snippetLimit = 300

// ExaBackend queries the Exa search API.
type ExaBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *ExaBackend) Name() string { return "exa" }

// Search issues one search-and-contents call to the Exa API.
func (b *ExaBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Exa query")
	}

	numResults := cfg.ResultsPerQuery
	if numResults <= 0 {
		numResults = 5
	}
	if numResults > 100 {
		return nil, fmt.Errorf("results_per_query must be between 1 and 100, got %d", numResults)
	}

	searchType := cfg.SearchType
	if searchType == "" {
		searchType = "auto"
	}
	switch searchType {
	case "auto", "neural", "keyword":
	default:
		return nil, fmt.Errorf("search_type must be auto, neural, or keyword, got %q", searchType)
	}

	reqBody := exaRequest{
		Query:          query,
		Type:           searchType,
		NumResults:     numResults,
		IncludeDomains: cfg.IncludeDomains,
		ExcludeDomains: cfg.ExcludeDomains,
		Contents:       &exaContents{Text: true},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaAPIBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("x-api-key", b.APIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Exa API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: Exa API rejected the key (HTTP %d)", types.ErrSearchUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("Exa API returned HTTP %d", resp.StatusCode)
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Exa response: %w", err)
	}

	total := len(er.Results)
	var results []types.SearchResult
	for i, item := range er.Results {
		r := types.SearchResult{
			URL:    item.URL,
			Title:  item.Title,
			Author: item.Author,
			Source: "exa",
		}
		if r.Title == "" {
			r.Title = "No title"
		}

		if item.PublishedDate != "" {
			if t, parseErr := time.Parse(time.RFC3339, item.PublishedDate); parseErr == nil {
				r.PublishedDate = t
			} else if t, parseErr := time.Parse("2006-01-02", item.PublishedDate); parseErr == nil {
				r.PublishedDate = t
			}
		}

		r.Snippet = snippetFrom(item)

		// Exa scores are already 0..1; fall back to a position-based
		// score when the service omits one.
		if item.Score > 0 {
			r.RelevanceScore = item.Score
		} else if total > 1 {
			r.RelevanceScore = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.RelevanceScore = 1.0
		}

		results = append(results, r)
	}
	return results, nil
}

// snippetFrom prefers the service summary and falls back to the leading
// text of the page.
func snippetFrom(item exaResult) string {
	if item.Summary != "" {
		return item.Summary
	}
	if len(item.Text) > snippetLimit {
		return item.Text[:snippetLimit]
	}
	return item.Text
}

// Exa API JSON structures.
type exaRequest struct {
	Query          string       `json:"query"`
	Type           string       `json:"type"`
	NumResults     int          `json:"numResults"`
	IncludeDomains []string     `json:"includeDomains,omitempty"`
	ExcludeDomains []string     `json:"excludeDomains,omitempty"`
	Contents       *exaContents `json:"contents,omitempty"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaResponse struct {
	RequestID string      `json:"requestId"`
	Results   []exaResult `json:"results"`
}

type exaResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"publishedDate"`
	Author        string  `json:"author"`
	Score         float64 `json:"score"`
	Text          string  `json:"text"`
	Summary       string  `json:"summary"`
}
