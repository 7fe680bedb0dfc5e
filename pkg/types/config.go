package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Credentials holds the API keys the pipeline needs. Loaded once at
// startup and passed to each adapter; never read ad hoc from the
// environment inside a stage.
type Credentials struct {
	// ExaAPIKey authenticates against the Exa search API.
	ExaAPIKey string `json:"-" yaml:"-"`

	// GroqAPIKey authenticates against the Groq API, used for both the
	// safety filter and synthesis.
	GroqAPIKey string `json:"-" yaml:"-"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of ranked results to keep after
	// deduplication (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ResultsPerQuery is the number of results requested from the search
	// service per query (1-100, default 5).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// SearchType selects the Exa search mode: "auto", "neural", or
	// "keyword" (default "auto").
	SearchType string `json:"search_type" yaml:"search_type"`

	// IncludeDomains restricts results to these domains when non-empty.
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`

	// ExcludeDomains removes results from these domains.
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`

	// InterQueryDelay is the delay between launching consecutive query
	// fan-out calls (default 0).
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay"`
}

// ExtractionConfig holds settings for the headless-browser extraction stage.
type ExtractionConfig struct {
	// PerURLTimeout bounds the rendering and extraction of a single page
	// (default 30s). Enforced by the caller, not the browser.
	PerURLTimeout time.Duration `json:"per_url_timeout" yaml:"per_url_timeout"`

	// MaxConcurrent is the number of pages extracted in parallel
	// (default 4). Each URL is attempted independently.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// Headless controls whether the browser runs without a display
	// (default true).
	Headless bool `json:"headless" yaml:"headless"`

	// UserAgent is the browser user agent string.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxDocumentChars truncates extracted text to this many characters
	// (default 20000, 0 disables truncation).
	MaxDocumentChars int `json:"max_document_chars" yaml:"max_document_chars"`
}

// FilterConfig holds settings for the safety filter stage.
type FilterConfig struct {
	// Model is the moderation model identifier
	// (default "meta-llama/llama-prompt-guard-2-86m").
	Model string `json:"model" yaml:"model"`

	// Threshold is the score above which content is blocked (default 0.6).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// FailClosed controls behavior when the filter service itself fails:
	// true (default) aborts the run, false admits the content with a
	// warning.
	FailClosed bool `json:"fail_closed" yaml:"fail_closed"`

	// MaxInputChars truncates filter input to this many characters
	// (default 6000). The guard model has a small context window.
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`
}

// SynthesisConfig holds settings for the answer synthesis stage.
type SynthesisConfig struct {
	// Model is the language model identifier
	// (default "llama-3.3-70b-versatile").
	Model string `json:"model" yaml:"model"`

	// MaxTokens caps the completion length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// SubQueries is the number of sub-questions derived from the question
	// before searching (default 4, 0 disables derivation).
	SubQueries int `json:"sub_queries" yaml:"sub_queries"`

	// MaxExcerptChars caps the per-document excerpt included in the
	// synthesis prompt (default 4000).
	MaxExcerptChars int `json:"max_excerpt_chars" yaml:"max_excerpt_chars"`
}

// HistoryConfig holds settings for the run archive.
type HistoryConfig struct {
	// Dir is the base directory for the archive database (default "history").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of listed runs (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Filter     FilterConfig     `json:"filter" yaml:"filter"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}
