// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"regexp"

	"github.com/pdiddy/research-assistant/internal/search"
)

// markdownLinkRe matches the mandated citation format [Title](URL).
var markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)

// ExtractCitations returns the cited URLs in order of first appearance,
// deduplicated by normalized form.
func ExtractCitations(text string) []string {
	seen := make(map[string]bool)
	var cited []string

	for _, m := range markdownLinkRe.FindAllStringSubmatch(text, -1) {
		url := m[1]
		key := search.NormalizeURL(url)
		if seen[key] {
			continue
		}
		seen[key] = true
		cited = append(cited, url)
	}
	return cited
}

// ValidateCitations partitions cited URLs into those backed by a source
// URL from the run's search results and fabrications. Matching uses the
// normalized URL form; valid citations are returned in their source
// spelling so they stay traceable to the search output.
func ValidateCitations(cited []string, sourceURLs []string) (valid, fabricated []string) {
	bySource := make(map[string]string, len(sourceURLs))
	for _, u := range sourceURLs {
		bySource[search.NormalizeURL(u)] = u
	}

	for _, c := range cited {
		if src, ok := bySource[search.NormalizeURL(c)]; ok {
			valid = append(valid, src)
			continue
		}
		fabricated = append(fabricated, c)
	}
	return valid, fabricated
}
