// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guard screens text through a hosted moderation model. The
// model replies with a single float score; scores above the configured
// threshold mean the content is unsafe.
package guard

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/research-assistant/internal/groq"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Filter classifies one unit of text. Implementations return an error
// only when the filter service itself fails; an unsafe verdict is not
// an error.
type Filter interface {
	Check(ctx context.Context, text string) (types.FilterVerdict, error)
}

// guardMaxTokens caps the moderation reply; the score is a short float.
const guardMaxTokens = 100

// PromptGuard scores text with a Groq-hosted prompt-guard model.
type PromptGuard struct {
	Client *groq.Client
	Config types.FilterConfig
}

// Check sends text to the moderation model and converts its score reply
// into a verdict.
func (g *PromptGuard) Check(ctx context.Context, text string) (types.FilterVerdict, error) {
	maxChars := g.Config.MaxInputChars
	if maxChars <= 0 {
		maxChars = 6000
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}

	reply, err := g.Client.Complete(ctx, g.Config.Model, "", text, guardMaxTokens)
	if err != nil {
		return types.FilterVerdict{}, fmt.Errorf("moderation call: %w", err)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return types.FilterVerdict{}, fmt.Errorf("moderation model returned non-numeric verdict %q", reply)
	}

	threshold := g.Config.Threshold
	if threshold <= 0 {
		threshold = 0.6
	}

	verdict := types.FilterVerdict{Allowed: score <= threshold, Score: score}
	if !verdict.Allowed {
		verdict.Reason = fmt.Sprintf("flagged by moderation model (score %.2f > %.2f)", score, threshold)
	}
	return verdict, nil
}

// Blocked records one document the filter rejected.
type Blocked struct {
	URL     string
	Verdict types.FilterVerdict
}

// ScreenQuestion checks the question before any search happens. A filter
// service failure follows the fail-open/fail-closed setting: closed
// aborts with ErrFilterUnavailable, open admits the question with a
// warning.
func ScreenQuestion(ctx context.Context, f Filter, question string, failClosed bool, w io.Writer) (types.FilterVerdict, error) {
	verdict, err := f.Check(ctx, question)
	if err != nil {
		if failClosed {
			return types.FilterVerdict{}, fmt.Errorf("%w: %v", types.ErrFilterUnavailable, err)
		}
		fmt.Fprintf(w, "warning: safety filter unavailable, admitting question: %v\n", err)
		return types.FilterVerdict{Allowed: true, Reason: fmt.Sprintf("filter unavailable: %v", err)}, nil
	}
	return verdict, nil
}

// ScreenDocuments checks every extracted document before synthesis and
// partitions them into admitted and blocked. Filter service failures
// follow the same fail-open/fail-closed policy as ScreenQuestion.
func ScreenDocuments(ctx context.Context, f Filter, docs []types.ExtractedDocument, failClosed bool, w io.Writer) ([]types.ExtractedDocument, []Blocked, error) {
	var allowed []types.ExtractedDocument
	var blocked []Blocked

	for _, doc := range docs {
		verdict, err := f.Check(ctx, doc.Text)
		if err != nil {
			if failClosed {
				return nil, nil, fmt.Errorf("%w: %v", types.ErrFilterUnavailable, err)
			}
			fmt.Fprintf(w, "warning: safety filter unavailable, admitting %s: %v\n", doc.URL, err)
			allowed = append(allowed, doc)
			continue
		}
		if !verdict.Allowed {
			fmt.Fprintf(w, "blocked %s: %s\n", doc.URL, verdict.Reason)
			blocked = append(blocked, Blocked{URL: doc.URL, Verdict: verdict})
			continue
		}
		allowed = append(allowed, doc)
	}

	return allowed, blocked, nil
}
