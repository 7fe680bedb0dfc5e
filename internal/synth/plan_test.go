package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pdiddy/research-assistant/internal/groq"
)

func planClientWithReply(t *testing.T, reply string) *groq.Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body, _ := json.Marshal(reply)
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, body)
	}))
	t.Cleanup(ts.Close)
	return &groq.Client{APIKey: "gsk_test", BaseURL: ts.URL, HTTPClient: ts.Client()}
}

func TestDeriveSubQueries(t *testing.T) {
	client := planClientWithReply(t, `["boiling point water sea level", "water phase transition temperature", "atmospheric pressure boiling", "boiling point measurement standard"]`)

	got, err := DeriveSubQueries(context.Background(), client, testSynthCfg(), "What is the boiling point of water at sea level?")
	if err != nil {
		t.Fatalf("DeriveSubQueries: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("queries = %d, want 4: %v", len(got), got)
	}
	if got[0] != "boiling point water sea level" {
		t.Errorf("first query = %q", got[0])
	}
}

func TestDeriveSubQueriesCodeFence(t *testing.T) {
	client := planClientWithReply(t, "```json\n[\"query one here\", \"query two here\"]\n```")

	got, err := DeriveSubQueries(context.Background(), client, testSynthCfg(), "q")
	if err != nil {
		t.Fatalf("DeriveSubQueries: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"query one here", "query two here"}) {
		t.Errorf("queries = %v", got)
	}
}

func TestDeriveSubQueriesCapsCount(t *testing.T) {
	client := planClientWithReply(t, `["a1","a2","a3","a4","a5","a6"]`)

	cfg := testSynthCfg()
	cfg.SubQueries = 2

	got, err := DeriveSubQueries(context.Background(), client, cfg, "q")
	if err != nil {
		t.Fatalf("DeriveSubQueries: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("queries = %d, want 2", len(got))
	}
}

func TestDeriveSubQueriesDisabled(t *testing.T) {
	cfg := testSynthCfg()
	cfg.SubQueries = 0

	got, err := DeriveSubQueries(context.Background(), nil, cfg, "q")
	if err != nil || got != nil {
		t.Errorf("disabled derivation = %v, %v; want nil, nil", got, err)
	}
}

func TestDeriveSubQueriesBadReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose reply", "Here are some queries you could try."},
		{"empty array", `[]`},
		{"array of blanks", `["", "  "]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := planClientWithReply(t, tt.reply)
			if _, err := DeriveSubQueries(context.Background(), client, testSynthCfg(), "q"); err == nil {
				t.Error("expected error so the caller falls back to the raw question")
			}
		})
	}
}

func TestDeriveSubQueriesServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := &groq.Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, err := DeriveSubQueries(context.Background(), client, testSynthCfg(), "q"); err == nil {
		t.Error("expected error on service failure")
	}
}
