// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves credentials and pipeline settings once at
// startup. Credentials come from the environment first and the
// .secrets/ directory second; settings come from viper (config file and
// RESEARCH_ASSISTANT_* environment variables) with defaults applied.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/secrets"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Environment variable names for the required credentials.
const (
	EnvExaAPIKey  = "EXA_API_KEY"
	EnvGroqAPIKey = "GROQ_API_KEY"
)

// ResolveCredentials builds the credential set for a run. Environment
// variables win over key files from the secrets directory. getenv is
// injectable so tests do not touch the process environment; pass
// os.Getenv in production.
//
// A missing credential fails here, before any network call.
func ResolveCredentials(getenv func(string) string, secretFiles map[string]string) (types.Credentials, error) {
	creds := types.Credentials{
		ExaAPIKey:  getenv(EnvExaAPIKey),
		GroqAPIKey: getenv(EnvGroqAPIKey),
	}
	if creds.ExaAPIKey == "" {
		creds.ExaAPIKey = secretFiles[secrets.KeyExa]
	}
	if creds.GroqAPIKey == "" {
		creds.GroqAPIKey = secretFiles[secrets.KeyGroq]
	}

	if creds.ExaAPIKey == "" {
		return types.Credentials{}, fmt.Errorf("%w: %s is not set and .secrets/%s is missing",
			types.ErrConfiguration, EnvExaAPIKey, secrets.KeyExa)
	}
	if creds.GroqAPIKey == "" {
		return types.Credentials{}, fmt.Errorf("%w: %s is not set and .secrets/%s is missing",
			types.ErrConfiguration, EnvGroqAPIKey, secrets.KeyGroq)
	}

	return creds, nil
}

// Viper keys and their defaults.
var defaults = map[string]any{
	"search.timeout":                "20s",
	"search.user_agent":             "research-assistant/0.1",
	"search.max_results":            5,
	"search.results_per_query":      5,
	"search.search_type":            "auto",
	"search.inter_query_delay":      "0s",
	"extraction.per_url_timeout":    "30s",
	"extraction.max_concurrent":     4,
	"extraction.headless":           true,
	"extraction.user_agent":         "research-assistant/0.1",
	"extraction.max_document_chars": 20000,
	"filter.model":                  "meta-llama/llama-prompt-guard-2-86m",
	"filter.threshold":              0.6,
	"filter.fail_closed":            true,
	"filter.max_input_chars":        6000,
	"synthesis.model":               "llama-3.3-70b-versatile",
	"synthesis.max_tokens":          2048,
	"synthesis.sub_queries":         4,
	"synthesis.max_excerpt_chars":   4000,
	"history.dir":                   "history",
	"history.max_results":           20,
}

// SetDefaults registers every pipeline default with v.
func SetDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// Load builds the pipeline configuration from v. SetDefaults must have
// been called on v first.
func Load(v *viper.Viper) types.PipelineConfig {
	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   getDuration(v, "search.timeout"),
				UserAgent: v.GetString("search.user_agent"),
			},
			MaxResults:      v.GetInt("search.max_results"),
			ResultsPerQuery: v.GetInt("search.results_per_query"),
			SearchType:      v.GetString("search.search_type"),
			IncludeDomains:  v.GetStringSlice("search.include_domains"),
			ExcludeDomains:  v.GetStringSlice("search.exclude_domains"),
			InterQueryDelay: getDuration(v, "search.inter_query_delay"),
		},
		Extraction: types.ExtractionConfig{
			PerURLTimeout:    getDuration(v, "extraction.per_url_timeout"),
			MaxConcurrent:    v.GetInt("extraction.max_concurrent"),
			Headless:         v.GetBool("extraction.headless"),
			UserAgent:        v.GetString("extraction.user_agent"),
			MaxDocumentChars: v.GetInt("extraction.max_document_chars"),
		},
		Filter: types.FilterConfig{
			Model:         v.GetString("filter.model"),
			Threshold:     v.GetFloat64("filter.threshold"),
			FailClosed:    v.GetBool("filter.fail_closed"),
			MaxInputChars: v.GetInt("filter.max_input_chars"),
		},
		Synthesis: types.SynthesisConfig{
			Model:           v.GetString("synthesis.model"),
			MaxTokens:       v.GetInt("synthesis.max_tokens"),
			SubQueries:      v.GetInt("synthesis.sub_queries"),
			MaxExcerptChars: v.GetInt("synthesis.max_excerpt_chars"),
		},
		History: types.HistoryConfig{
			Dir:        v.GetString("history.dir"),
			MaxResults: v.GetInt("history.max_results"),
		},
	}
}

func getDuration(v *viper.Viper, key string) time.Duration {
	d := v.GetDuration(key)
	if d < 0 {
		return 0
	}
	return d
}
