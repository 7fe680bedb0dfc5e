// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the web search service and returns unified,
// deduplicated, ranked results for a question and its derived sub-queries.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Backend searches a single web search service. Implementations follow
// the Strategy pattern so tests can substitute a mock.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Output holds the ranked results and fan-out statistics.
type Output struct {
	Results     []types.SearchResult
	DupsRemoved int
	QueryErrors []string
}

// Search fans the queries out to the backend concurrently, deduplicates
// results across queries, ranks them by relevance score, and returns the
// top N. Per-query failures are isolated; the call fails only when every
// query fails.
func Search(ctx context.Context, backend Backend, queries []string, cfg types.SearchConfig, w io.Writer) (Output, error) {
	queries = dropEmpty(queries)
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("no query: provide a research question")
	}

	type queryResult struct {
		results []types.SearchResult
		err     error
		query   string
	}

	ch := make(chan queryResult, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		if i > 0 && cfg.InterQueryDelay > 0 {
			time.Sleep(cfg.InterQueryDelay)
		}
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			results, err := backend.Search(ctx, q, cfg)
			ch <- queryResult{results: results, err: err, query: q}
		}(q)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	var queryErrors []string
	for qr := range ch {
		if qr.err != nil {
			msg := fmt.Sprintf("%q: %v", qr.query, qr.err)
			queryErrors = append(queryErrors, msg)
			fmt.Fprintf(w, "warning: search for %s failed: %v\n", qr.query, qr.err)
			continue
		}
		all = append(all, qr.results...)
	}

	if len(queryErrors) == len(queries) {
		return Output{QueryErrors: queryErrors}, fmt.Errorf("%w: all %d queries failed (%s)",
			types.ErrSearchUnavailable, len(queries), strings.Join(queryErrors, "; "))
	}

	deduped, removed := deduplicate(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	return Output{
		Results:     deduped,
		DupsRemoved: removed,
		QueryErrors: queryErrors,
	}, nil
}

func dropEmpty(queries []string) []string {
	var out []string
	for _, q := range queries {
		if strings.TrimSpace(q) != "" {
			out = append(out, strings.TrimSpace(q))
		}
	}
	return out
}

// deduplicate merges results that share a normalized URL or normalized title.
func deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.SearchResult
	removed := 0

	for _, r := range results {
		urlKey := "url:" + NormalizeURL(r.URL)
		if idx, ok := seen[urlKey]; ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}

		titleKey := "title:" + normalizeTitle(r.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		seen[urlKey] = idx
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.SearchResult, src types.SearchResult) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if dst.Author == "" && src.Author != "" {
		dst.Author = src.Author
	}
	if dst.PublishedDate.IsZero() && !src.PublishedDate.IsZero() {
		dst.PublishedDate = src.PublishedDate
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
}

// NormalizeURL returns a canonical form for URL comparison: lowercased
// scheme and host, fragment removed, trailing slash trimmed. The citation
// validation step uses the same form, so a cited URL matches its search
// result even when the model alters the trailing slash.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-6s  %s\n", "Rank", "Title", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range out.Results {
		title := truncate(r.Title, 50)
		fmt.Fprintf(w, "%-4d  %-50s  %-6.2f  %s\n", i+1, title, r.RelevanceScore, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
