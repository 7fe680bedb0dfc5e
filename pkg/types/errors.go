// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy for the pipeline. Adapters wrap these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is while still seeing the underlying cause.
var (
	// ErrConfiguration indicates missing or invalid credentials or
	// settings. Raised before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrSearchUnavailable indicates the search service is unreachable
	// or rejected the API key. Fatal to the current question.
	ErrSearchUnavailable = errors.New("search service unavailable")

	// ErrExtractionFailed indicates content extraction failed. Per-URL
	// failures are recorded and skipped; the sentinel is only fatal when
	// every URL in the run failed.
	ErrExtractionFailed = errors.New("content extraction failed")

	// ErrFilterUnavailable indicates the safety filter service failed
	// while the filter is configured fail-closed.
	ErrFilterUnavailable = errors.New("safety filter unavailable")

	// ErrSynthesisUnavailable indicates the language model call failed.
	ErrSynthesisUnavailable = errors.New("synthesis service unavailable")
)

// Run outcomes that are not service failures but still end the run
// without an answer.
var (
	// ErrNoSources indicates the search step returned zero results.
	ErrNoSources = errors.New("no sources found")

	// ErrAllContentFiltered indicates the safety filter rejected every
	// extracted document, so synthesis was never invoked.
	ErrAllContentFiltered = errors.New("all extracted content was blocked by the safety filter")

	// ErrQuestionBlocked indicates the question itself was rejected by
	// the safety filter before any search.
	ErrQuestionBlocked = errors.New("question blocked by the safety filter")
)
