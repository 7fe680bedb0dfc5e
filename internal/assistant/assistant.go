// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant runs the research pipeline for one question: safety
// screen, web search, content extraction, content filtering, and answer
// synthesis with validated citations.
package assistant

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/research-assistant/internal/extract"
	"github.com/pdiddy/research-assistant/internal/guard"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/synth"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Historian archives a completed run. The pipeline only writes; nothing
// in a run ever reads the archive.
type Historian interface {
	SaveRun(ctx context.Context, rec types.RunRecord) (string, error)
}

// Deps collects the pipeline stages. Each field is an interface (or
// function) so tests can substitute any stage.
type Deps struct {
	Backend   search.Backend
	Extractor extract.Extractor
	Filter    guard.Filter
	Synth     synth.Synthesizer

	// Planner derives focused search queries from the question. A nil
	// Planner, or a Planner error, falls back to searching the raw
	// question.
	Planner func(ctx context.Context, question string) ([]string, error)

	// History is optional; nil disables archiving.
	History Historian
}

// Result is the outcome of one successful run.
type Result struct {
	Answer  types.Answer
	Sources []types.SourceRecord

	// RunID is the archive ID, empty when archiving is disabled or failed.
	RunID string
}

// Run executes the full pipeline for one question. Progress lines are
// written to w as stages advance. Stage failures surface as the sentinel
// errors in pkg/types.
func Run(ctx context.Context, question string, deps Deps, cfg types.PipelineConfig, w io.Writer) (Result, error) {
	askedAt := time.Now().UTC()

	verdict, err := guard.ScreenQuestion(ctx, deps.Filter, question, cfg.Filter.FailClosed, w)
	if err != nil {
		return Result{}, err
	}
	if !verdict.Allowed {
		return Result{}, fmt.Errorf("%w: %s", types.ErrQuestionBlocked, verdict.Reason)
	}

	queries := []string{question}
	if deps.Planner != nil {
		derived, err := deps.Planner(ctx, question)
		if err != nil {
			fmt.Fprintf(w, "warning: sub-query derivation failed, searching the question directly: %v\n", err)
		} else if len(derived) > 0 {
			queries = derived
		}
	}
	fmt.Fprintf(w, "searching %d queries\n", len(queries))

	out, err := search.Search(ctx, deps.Backend, queries, cfg.Search, w)
	if err != nil {
		return Result{}, err
	}
	if len(out.Results) == 0 {
		return Result{}, fmt.Errorf("%w: search returned no results", types.ErrNoSources)
	}
	fmt.Fprintf(w, "found %d sources\n", len(out.Results))

	urls := make([]string, len(out.Results))
	sources := make([]types.SourceRecord, len(out.Results))
	for i, r := range out.Results {
		urls[i] = r.URL
		sources[i] = types.SourceRecord{Rank: i + 1, URL: r.URL, Title: r.Title}
	}
	byURL := make(map[string]*types.SourceRecord, len(sources))
	for i := range sources {
		byURL[sources[i].URL] = &sources[i]
	}

	batch := extract.ExtractBatch(ctx, deps.Extractor, urls, cfg.Extraction, w)
	for _, doc := range batch.Documents {
		if src, ok := byURL[doc.URL]; ok {
			src.Extracted = true
			if src.Title == "" {
				src.Title = doc.Title
			}
		}
	}
	for _, f := range batch.Failures {
		if src, ok := byURL[f.URL]; ok {
			src.Error = f.Err.Error()
		}
	}
	if len(batch.Documents) == 0 {
		return Result{Sources: sources}, fmt.Errorf("%w: none of %d pages yielded readable content",
			types.ErrExtractionFailed, batch.Total())
	}

	allowed, blocked, err := guard.ScreenDocuments(ctx, deps.Filter, batch.Documents, cfg.Filter.FailClosed, w)
	if err != nil {
		return Result{Sources: sources}, err
	}
	for _, doc := range allowed {
		if src, ok := byURL[doc.URL]; ok {
			src.Allowed = true
		}
	}
	for _, b := range blocked {
		if src, ok := byURL[b.URL]; ok {
			src.Error = b.Verdict.Reason
		}
	}
	if len(allowed) == 0 {
		return Result{Sources: sources}, fmt.Errorf("%w: all %d extracted documents were blocked",
			types.ErrAllContentFiltered, len(batch.Documents))
	}

	fmt.Fprintf(w, "synthesizing answer from %d documents\n", len(allowed))
	answer, err := deps.Synth.Synthesize(ctx, question, allowed)
	if err != nil {
		return Result{Sources: sources}, err
	}

	valid, fabricated := synth.ValidateCitations(answer.Citations, urls)
	for _, f := range fabricated {
		fmt.Fprintf(w, "warning: dropped citation %s: not among this run's sources\n", f)
	}
	answer.Citations = valid

	result := Result{Answer: answer, Sources: sources}

	if deps.History != nil {
		id, err := deps.History.SaveRun(ctx, types.RunRecord{
			Question:  question,
			AskedAt:   askedAt,
			Answer:    answer.Text,
			Citations: answer.Citations,
			Sources:   sources,
		})
		if err != nil {
			fmt.Fprintf(w, "warning: run not archived: %v\n", err)
		} else {
			result.RunID = id
		}
	}

	return result, nil
}
