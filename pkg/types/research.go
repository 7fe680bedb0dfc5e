// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research assistant
// pipeline: search results, extracted documents, filter verdicts, answers,
// and archived run records.
package types

import "time"

// SearchResult represents a candidate source returned by the web search
// service. Ordering between results follows the relevance rank assigned
// by the service.
type SearchResult struct {
	// URL is the canonical address of the source page.
	URL string `json:"url" yaml:"url"`

	// Title is the page title as returned by the search service.
	Title string `json:"title" yaml:"title"`

	// Snippet is a short excerpt or AI-generated summary of the page.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// PublishedDate is the publication date when the service reports one.
	PublishedDate time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// Author is the content author when the service reports one.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Source identifies which backend found this result (e.g. "exa").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance
	// to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// ExtractedDocument is the readable text pulled out of one search result's
// page by the headless browser. Extraction failures are recorded per URL
// and never produce a document.
type ExtractedDocument struct {
	// URL is the page the text was extracted from.
	URL string `json:"url" yaml:"url"`

	// Title is the rendered page title, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Text is the cleaned readable content of the page.
	Text string `json:"text" yaml:"text"`

	// Retrieved is when the extraction completed.
	Retrieved time.Time `json:"retrieved" yaml:"retrieved"`
}

// FilterVerdict is the safety filter's decision for one unit of text.
type FilterVerdict struct {
	// Allowed reports whether the content may be used.
	Allowed bool `json:"allowed" yaml:"allowed"`

	// Score is the raw moderation score returned by the filter model
	// (higher means more likely unsafe).
	Score float64 `json:"score" yaml:"score"`

	// Reason explains a rejection or a fail-open admission. Empty for a
	// clean pass.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Answer is the final synthesized output for one question.
type Answer struct {
	// Text is the natural-language answer with inline markdown citations.
	Text string `json:"text" yaml:"text"`

	// Citations lists the cited source URLs in order of first appearance.
	// Every entry corresponds to a URL returned by the search step of the
	// same run.
	Citations []string `json:"citations" yaml:"citations"`
}

// SourceRecord captures what happened to one search result during a run.
type SourceRecord struct {
	// Rank is the 1-based position in the ranked search output.
	Rank int `json:"rank" yaml:"rank"`

	URL   string `json:"url" yaml:"url"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Extracted reports whether readable text was obtained from the page.
	Extracted bool `json:"extracted" yaml:"extracted"`

	// Allowed reports the safety filter's verdict on the extracted text.
	// Only meaningful when Extracted is true.
	Allowed bool `json:"allowed" yaml:"allowed"`

	// Error holds the extraction or filter failure message, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunRecord is one completed question/answer exchange as stored in the
// history archive.
type RunRecord struct {
	// ID is a UUID assigned when the run is archived.
	ID string `json:"id" yaml:"id"`

	// Question is the user's research question verbatim.
	Question string `json:"question" yaml:"question"`

	// AskedAt is when the run started.
	AskedAt time.Time `json:"asked_at" yaml:"asked_at"`

	// Answer is the synthesized answer text.
	Answer string `json:"answer" yaml:"answer"`

	// Citations lists the validated citation URLs.
	Citations []string `json:"citations" yaml:"citations"`

	// Sources records the outcome for every search result in the run.
	Sources []SourceRecord `json:"sources" yaml:"sources"`
}
