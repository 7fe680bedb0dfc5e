// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns a question and a set of admitted documents into a
// cited answer with one language model call. Multi-step reasoning is the
// model's own business; this package only owns the prompt contract and
// the citation discipline.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/pdiddy/research-assistant/internal/groq"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// systemPromptTmpl instructs the model to ground its answer in the
// supplied sources and cite every fact with a markdown URL citation.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are an expert research assistant. Your task is to synthesize an answer to the user's question from the source documents provided.

CRITICAL REQUIREMENTS:
1. Use ONLY the provided source documents. Do not introduce outside facts.
2. ALWAYS include the full URL in your citations. Every fact, quote, or piece of information MUST be cited with its source URL.
3. Format citations as: "According to [Source Title](URL), ..." or "As reported by [Source Title](URL)..."
4. Never provide information without a proper URL citation.
5. Only cite URLs that appear in the source documents. If the sources do not answer the question, say so.

Focus on accuracy, clarity, and MANDATORY URL citation of all sources. Today's date is {{.Date}}.`))

// userPromptTmpl lays out the question and the per-source excerpts.
var userPromptTmpl = template.Must(template.New("user").Parse(`Question: {{.Question}}

Source documents:
{{range .Documents}}
--- Source {{.Index}}: [{{.Title}}]({{.URL}}) ---
{{.Excerpt}}
{{end}}`))

// promptDoc is one source as rendered into the user prompt.
type promptDoc struct {
	Index   int
	Title   string
	URL     string
	Excerpt string
}

// Synthesizer produces an answer from a question and admitted documents.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, docs []types.ExtractedDocument) (types.Answer, error)
}

// Engine is the Groq-backed Synthesizer.
type Engine struct {
	Client *groq.Client
	Config types.SynthesisConfig
}

// Synthesize issues one chat call and returns the answer text with the
// citations parsed out of it. Citations are unvalidated here; the
// pipeline checks them against the run's search results.
func (e *Engine) Synthesize(ctx context.Context, question string, docs []types.ExtractedDocument) (types.Answer, error) {
	if len(docs) == 0 {
		return types.Answer{}, fmt.Errorf("no documents to synthesize from")
	}

	system, user, err := BuildPrompt(question, docs, e.Config.MaxExcerptChars)
	if err != nil {
		return types.Answer{}, fmt.Errorf("rendering prompt: %w", err)
	}

	maxTokens := e.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	text, err := e.Client.Complete(ctx, e.Config.Model, system, user, maxTokens)
	if err != nil {
		return types.Answer{}, fmt.Errorf("%w: %v", types.ErrSynthesisUnavailable, err)
	}

	return types.Answer{
		Text:      text,
		Citations: ExtractCitations(text),
	}, nil
}

// BuildPrompt renders the system and user prompts for one synthesis call.
// Document excerpts are capped at maxExcerptChars (default 4000).
func BuildPrompt(question string, docs []types.ExtractedDocument, maxExcerptChars int) (system, user string, err error) {
	if maxExcerptChars <= 0 {
		maxExcerptChars = 4000
	}

	var sysBuf bytes.Buffer
	if err := systemPromptTmpl.Execute(&sysBuf, struct{ Date string }{
		Date: time.Now().Format("2006-01-02"),
	}); err != nil {
		return "", "", err
	}

	pdocs := make([]promptDoc, 0, len(docs))
	for i, d := range docs {
		title := d.Title
		if title == "" {
			title = d.URL
		}
		excerpt := d.Text
		if len(excerpt) > maxExcerptChars {
			excerpt = excerpt[:maxExcerptChars]
		}
		pdocs = append(pdocs, promptDoc{Index: i + 1, Title: title, URL: d.URL, Excerpt: excerpt})
	}

	var userBuf bytes.Buffer
	if err := userPromptTmpl.Execute(&userBuf, struct {
		Question  string
		Documents []promptDoc
	}{Question: question, Documents: pdocs}); err != nil {
		return "", "", err
	}

	return sysBuf.String(), userBuf.String(), nil
}
