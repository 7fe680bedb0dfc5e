package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/research-assistant/internal/groq"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func testFilterCfg() types.FilterConfig {
	return types.FilterConfig{
		Model:         "meta-llama/llama-prompt-guard-2-86m",
		Threshold:     0.6,
		FailClosed:    true,
		MaxInputChars: 6000,
	}
}

func guardWithReply(t *testing.T, reply string) *PromptGuard {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, reply)
	}))
	t.Cleanup(ts.Close)

	return &PromptGuard{
		Client: &groq.Client{APIKey: "gsk_test", BaseURL: ts.URL, HTTPClient: ts.Client()},
		Config: testFilterCfg(),
	}
}

func TestPromptGuardCheck(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantAllowed bool
		wantErr     bool
	}{
		{"low score allows", "0.02", true, false},
		{"score at threshold allows", "0.6", true, false},
		{"high score blocks", "0.97", false, false},
		{"whitespace around score", " 0.10\n", true, false},
		{"non-numeric reply errors", "I cannot score this.", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := guardWithReply(t, tt.reply)
			verdict, err := g.Check(context.Background(), "some text to screen")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if verdict.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (score %v)", verdict.Allowed, tt.wantAllowed, verdict.Score)
			}
			if !verdict.Allowed && verdict.Reason == "" {
				t.Error("blocked verdict missing reason")
			}
		})
	}
}

func TestPromptGuardTruncatesInput(t *testing.T) {
	var gotLen int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req groq.ChatRequest
		if err := jsonDecode(r, &req); err == nil && len(req.Messages) > 0 {
			gotLen = len(req.Messages[len(req.Messages)-1].Content)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"0.1"}}]}`)
	}))
	defer ts.Close()

	cfg := testFilterCfg()
	cfg.MaxInputChars = 100
	g := &PromptGuard{
		Client: &groq.Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()},
		Config: cfg,
	}

	if _, err := g.Check(context.Background(), strings.Repeat("x", 5000)); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if gotLen != 100 {
		t.Errorf("filter input length = %d, want 100", gotLen)
	}
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// --- screening policy ---

type stubFilter struct {
	verdict types.FilterVerdict
	err     error
	calls   int
}

func (s *stubFilter) Check(_ context.Context, _ string) (types.FilterVerdict, error) {
	s.calls++
	return s.verdict, s.err
}

func TestScreenQuestionFailClosed(t *testing.T) {
	f := &stubFilter{err: errors.New("service down")}
	var buf bytes.Buffer

	_, err := ScreenQuestion(context.Background(), f, "q", true, &buf)
	if !errors.Is(err, types.ErrFilterUnavailable) {
		t.Fatalf("err = %v, want ErrFilterUnavailable", err)
	}
}

func TestScreenQuestionFailOpen(t *testing.T) {
	f := &stubFilter{err: errors.New("service down")}
	var buf bytes.Buffer

	verdict, err := ScreenQuestion(context.Background(), f, "q", false, &buf)
	if err != nil {
		t.Fatalf("ScreenQuestion: %v", err)
	}
	if !verdict.Allowed {
		t.Error("fail-open should admit the question")
	}
	if !strings.Contains(buf.String(), "warning") {
		t.Errorf("expected warning line, got %q", buf.String())
	}
}

func docs(urls ...string) []types.ExtractedDocument {
	var out []types.ExtractedDocument
	for _, u := range urls {
		out = append(out, types.ExtractedDocument{URL: u, Text: "content of " + u})
	}
	return out
}

func TestScreenDocumentsPartitions(t *testing.T) {
	f := &stubFilter{verdict: types.FilterVerdict{Allowed: false, Score: 0.9, Reason: "flagged"}}
	var buf bytes.Buffer

	allowed, blocked, err := ScreenDocuments(context.Background(), f, docs("https://a.example.com", "https://b.example.com"), true, &buf)
	if err != nil {
		t.Fatalf("ScreenDocuments: %v", err)
	}
	if len(allowed) != 0 || len(blocked) != 2 {
		t.Errorf("allowed = %d blocked = %d, want 0 and 2", len(allowed), len(blocked))
	}
	if f.calls != 2 {
		t.Errorf("filter calls = %d, want 2", f.calls)
	}
}

func TestScreenDocumentsFailClosedAborts(t *testing.T) {
	f := &stubFilter{err: errors.New("service down")}
	var buf bytes.Buffer

	_, _, err := ScreenDocuments(context.Background(), f, docs("https://a.example.com"), true, &buf)
	if !errors.Is(err, types.ErrFilterUnavailable) {
		t.Fatalf("err = %v, want ErrFilterUnavailable", err)
	}
}

func TestScreenDocumentsFailOpenAdmits(t *testing.T) {
	f := &stubFilter{err: errors.New("service down")}
	var buf bytes.Buffer

	allowed, blocked, err := ScreenDocuments(context.Background(), f, docs("https://a.example.com"), false, &buf)
	if err != nil {
		t.Fatalf("ScreenDocuments: %v", err)
	}
	if len(allowed) != 1 || len(blocked) != 0 {
		t.Errorf("allowed = %d blocked = %d, want 1 and 0", len(allowed), len(blocked))
	}
}
