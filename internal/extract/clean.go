// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// minLineLength drops lines shorter than this; they are almost always
// labels, counters, or leftover UI fragments.
const minLineLength = 10

// skipLineRes match common navigation and UI boilerplate that survives
// DOM filtering.
var skipLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(menu|navigation|skip to|cookie|privacy|terms|subscribe|sign up|log in)`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[|•·→←↑↓\-\s]+$`),
	regexp.MustCompile(`(?i)^(share|tweet|facebook|linkedin|print)$`),
	regexp.MustCompile(`(?i)^copyright.*\d{4}`),
}

var multiSpaceRe = regexp.MustCompile(`[ \t]+`)

// CleanText normalizes whitespace and strips boilerplate lines from
// extracted page text.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
		if line == "" || len(line) < minLineLength {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

func isBoilerplate(line string) bool {
	for _, re := range skipLineRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// TruncateText caps text at max characters, cutting at the last line
// boundary inside the window. max <= 0 disables truncation.
func TruncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
