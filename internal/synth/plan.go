// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-assistant/internal/groq"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// subQueryPromptTmpl asks the model to decompose the question into
// focused search queries, returned as bare JSON.
var subQueryPromptTmpl = template.Must(template.New("subqueries").Parse(`Break down the following research question into {{.Count}} focused web search queries that together cover the question. Each query should be short and self-contained.

Respond with a JSON array of {{.Count}} strings. Do not include any text outside the JSON array.

Question: {{.Question}}`))

const planMaxTokens = 512

// DeriveSubQueries asks the model for cfg.SubQueries focused search
// queries derived from the question. Any call or parse failure is
// returned to the caller, which falls back to searching the raw
// question alone.
func DeriveSubQueries(ctx context.Context, client *groq.Client, cfg types.SynthesisConfig, question string) ([]string, error) {
	n := cfg.SubQueries
	if n <= 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := subQueryPromptTmpl.Execute(&buf, struct {
		Count    int
		Question string
	}{Count: n, Question: question}); err != nil {
		return nil, fmt.Errorf("rendering sub-query prompt: %w", err)
	}

	reply, err := client.Complete(ctx, cfg.Model, "", buf.String(), planMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("sub-query call: %w", err)
	}

	queries, err := parseQueryArray(reply)
	if err != nil {
		return nil, err
	}
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}

// parseQueryArray decodes a JSON string array, tolerating a markdown
// code fence around it.
func parseQueryArray(reply string) ([]string, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var raw []string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("parsing sub-query response %q: %w", reply, err)
	}

	var queries []string
	for _, q := range raw {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("sub-query response contained no queries")
	}
	return queries, nil
}
