// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls readable text out of web pages with a headless
// browser. Each URL is attempted independently: failures are captured
// per URL and never abort the batch.
package extract

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Extractor fetches and extracts one page. Implementations must honor
// ctx cancellation; the batch runner applies the per-URL timeout.
type Extractor interface {
	Extract(ctx context.Context, url string) (types.ExtractedDocument, error)
}

// Failure records one URL that could not be extracted.
type Failure struct {
	URL string
	Err error
}

// BatchResult holds the documents and per-URL failures of one batch.
type BatchResult struct {
	Documents []types.ExtractedDocument
	Failures  []Failure
}

// Total returns the number of URLs attempted.
func (r BatchResult) Total() int {
	return len(r.Documents) + len(r.Failures)
}

// HasFailures reports whether any URL failed.
func (r BatchResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// AllFailed reports whether no URL yielded a document.
func (r BatchResult) AllFailed() bool {
	return len(r.Documents) == 0 && len(r.Failures) > 0
}

// ExtractBatch extracts all URLs with bounded concurrency and a per-URL
// timeout. Documents keep the input order of their URLs. Progress and
// failures are written to w as they happen.
func ExtractBatch(ctx context.Context, e Extractor, urls []string, cfg types.ExtractionConfig, w io.Writer) BatchResult {
	if len(urls) == 0 {
		return BatchResult{}
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	type slot struct {
		doc types.ExtractedDocument
		err error
	}
	slots := make([]slot, len(urls))

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex // serializes progress writes

	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			urlCtx := ctx
			if cfg.PerURLTimeout > 0 {
				var cancel context.CancelFunc
				urlCtx, cancel = context.WithTimeout(ctx, cfg.PerURLTimeout)
				defer cancel()
			}

			mu.Lock()
			fmt.Fprintf(w, "extracting %s\n", url)
			mu.Unlock()

			doc, err := e.Extract(urlCtx, url)
			if err == nil {
				doc.Text = TruncateText(doc.Text, cfg.MaxDocumentChars)
				if doc.Text == "" {
					err = fmt.Errorf("no readable content")
				}
			}
			slots[i] = slot{doc: doc, err: err}

			mu.Lock()
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", url, err)
			} else {
				fmt.Fprintf(w, "extracted %s (%d chars)\n", url, len(doc.Text))
			}
			mu.Unlock()
		}(i, url)
	}

	wg.Wait()

	var result BatchResult
	for i, s := range slots {
		if s.err != nil {
			result.Failures = append(result.Failures, Failure{URL: urls[i], Err: s.err})
			continue
		}
		result.Documents = append(result.Documents, s.doc)
	}
	return result
}
