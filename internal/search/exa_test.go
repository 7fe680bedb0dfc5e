// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func withExaServer(t *testing.T, handler http.HandlerFunc) *ExaBackend {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := exaAPIBase
	exaAPIBase = ts.URL
	t.Cleanup(func() { exaAPIBase = old })

	return &ExaBackend{Client: ts.Client(), APIKey: "exa_test"}
}

func TestExaSearchRequestShape(t *testing.T) {
	var captured exaRequest
	var apiKey, contentType string
	b := withExaServer(t, func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"requestId":"r1","results":[]}`)
	})

	cfg := testCfg()
	cfg.ResultsPerQuery = 7
	cfg.IncludeDomains = []string{"example.com"}

	_, err := b.Search(context.Background(), "boiling point of water", cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if apiKey != "exa_test" {
		t.Errorf("x-api-key = %q", apiKey)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if captured.Query != "boiling point of water" {
		t.Errorf("query = %q", captured.Query)
	}
	if captured.Type != "auto" {
		t.Errorf("type = %q, want auto", captured.Type)
	}
	if captured.NumResults != 7 {
		t.Errorf("numResults = %d, want 7", captured.NumResults)
	}
	if len(captured.IncludeDomains) != 1 || captured.IncludeDomains[0] != "example.com" {
		t.Errorf("includeDomains = %v", captured.IncludeDomains)
	}
	if captured.Contents == nil || !captured.Contents.Text {
		t.Errorf("contents.text not requested: %+v", captured.Contents)
	}
}

func TestExaSearchParsesResults(t *testing.T) {
	b := withExaServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"requestId":"r2","results":[
			{"title":"Water","url":"https://en.wikipedia.org/wiki/Water","publishedDate":"2023-05-01T00:00:00.000Z","author":"","score":0.82,"text":"Water boils at 100 degrees Celsius at sea level."},
			{"title":"","url":"https://example.com/untitled","score":0.4,"summary":"A page about water."}
		]}`)
	})

	results, err := b.Search(context.Background(), "water", testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	first := results[0]
	if first.URL != "https://en.wikipedia.org/wiki/Water" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Title != "Water" {
		t.Errorf("title = %q", first.Title)
	}
	if first.RelevanceScore != 0.82 {
		t.Errorf("score = %v", first.RelevanceScore)
	}
	if first.Snippet == "" {
		t.Error("snippet empty, want text fallback")
	}
	if first.PublishedDate.Year() != 2023 {
		t.Errorf("published date = %v", first.PublishedDate)
	}
	if first.Source != "exa" {
		t.Errorf("source = %q", first.Source)
	}

	if results[1].Title != "No title" {
		t.Errorf("missing title placeholder = %q", results[1].Title)
	}
	if results[1].Snippet != "A page about water." {
		t.Errorf("snippet = %q, want summary", results[1].Snippet)
	}
}

func TestExaSearchAuthFailure(t *testing.T) {
	b := withExaServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := b.Search(context.Background(), "water", testCfg())
	if !errors.Is(err, types.ErrSearchUnavailable) {
		t.Fatalf("err = %v, want ErrSearchUnavailable", err)
	}
}

func TestExaSearchServerError(t *testing.T) {
	b := withExaServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := b.Search(context.Background(), "water", testCfg())
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestExaSearchValidation(t *testing.T) {
	b := &ExaBackend{Client: http.DefaultClient, APIKey: "k"}

	if _, err := b.Search(context.Background(), "", testCfg()); err == nil {
		t.Error("expected error for empty query")
	}

	cfg := testCfg()
	cfg.ResultsPerQuery = 101
	if _, err := b.Search(context.Background(), "q", cfg); err == nil {
		t.Error("expected error for results_per_query > 100")
	}

	cfg = testCfg()
	cfg.SearchType = "psychic"
	if _, err := b.Search(context.Background(), "q", cfg); err == nil {
		t.Error("expected error for invalid search_type")
	}
}
