package history

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{Dir: t.TempDir(), MaxResults: 20})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(question string) types.RunRecord {
	return types.RunRecord{
		Question:  question,
		Answer:    "Water boils at [100C](https://en.wikipedia.org/wiki/Water) at sea level.",
		Citations: []string{"https://en.wikipedia.org/wiki/Water"},
		Sources: []types.SourceRecord{
			{Rank: 1, URL: "https://en.wikipedia.org/wiki/Water", Title: "Water", Extracted: true, Allowed: true},
			{Rank: 2, URL: "https://example.com/broken", Title: "Broken", Error: "timeout"},
		},
	}
}

func TestSaveRunAssignsID(t *testing.T) {
	s := testStore(t)

	id, err := s.SaveRun(context.Background(), testRun("What is the boiling point of water?"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated run ID")
	}
}

func TestSaveAndShow(t *testing.T) {
	s := testStore(t)

	rec := testRun("What is the boiling point of water?")
	rec.AskedAt = time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	id, err := s.SaveRun(context.Background(), rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.Show(context.Background(), id)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if got.Question != rec.Question {
		t.Errorf("question = %q", got.Question)
	}
	if got.Answer != rec.Answer {
		t.Errorf("answer = %q", got.Answer)
	}
	if !got.AskedAt.Equal(rec.AskedAt) {
		t.Errorf("asked_at = %v, want %v", got.AskedAt, rec.AskedAt)
	}
	if len(got.Citations) != 1 || got.Citations[0] != rec.Citations[0] {
		t.Errorf("citations = %v", got.Citations)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(got.Sources))
	}
	if !got.Sources[0].Extracted || !got.Sources[0].Allowed {
		t.Errorf("first source flags = %+v", got.Sources[0])
	}
	if got.Sources[1].Error != "timeout" {
		t.Errorf("second source error = %q", got.Sources[1].Error)
	}
}

func TestShowByPrefix(t *testing.T) {
	s := testStore(t)

	id, err := s.SaveRun(context.Background(), testRun("prefix lookup question"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.Show(context.Background(), id[:8])
	if err != nil {
		t.Fatalf("Show by prefix: %v", err)
	}
	if got.ID != id {
		t.Errorf("id = %q, want %q", got.ID, id)
	}
}

func TestShowNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Show(context.Background(), "no-such-run"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := testRun("older question")
	older.AskedAt = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := testRun("newer question")
	newer.AskedAt = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	if _, err := s.SaveRun(ctx, older); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun(ctx, newer); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("runs = %d, want 2", len(got))
	}
	if got[0].Question != "newer question" {
		t.Errorf("first listed = %q, want newest", got[0].Question)
	}
	if got[0].Citations != 1 {
		t.Errorf("citation count = %d, want 1", got[0].Citations)
	}
}

func TestListHonorsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := testRun("question")
		rec.AskedAt = time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		if _, err := s.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	got, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("runs = %d, want 3", len(got))
	}
}

func TestSearchRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	boiling := testRun("What is the boiling point of water?")
	orbit := testRun("How long is a Mars orbit?")
	orbit.Answer = "A Mars year lasts about 687 Earth days."
	orbit.Citations = nil

	if _, err := s.SaveRun(ctx, boiling); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun(ctx, orbit); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.SearchRuns(ctx, "boiling", 0)
	if err != nil {
		t.Fatalf("SearchRuns: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("matches = %d, want 1: %v", len(got), got)
	}
	if got[0].Question != boiling.Question {
		t.Errorf("match = %q", got[0].Question)
	}

	// Answer text is searchable too.
	got, err = s.SearchRuns(ctx, "687", 0)
	if err != nil {
		t.Fatalf("SearchRuns: %v", err)
	}
	if len(got) != 1 || got[0].Question != orbit.Question {
		t.Errorf("answer-text matches = %v", got)
	}
}

func TestSearchRunsEmptyQuery(t *testing.T) {
	s := testStore(t)
	if _, err := s.SearchRuns(context.Background(), "   ", 0); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := types.HistoryConfig{Dir: dir, MaxResults: 20}

	s1, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, err := s1.SaveRun(context.Background(), testRun("persisted question"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	s1.Close()

	s2, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s2.Close()

	got, err := s2.Show(context.Background(), id)
	if err != nil {
		t.Fatalf("Show after reopen: %v", err)
	}
	if got.Question != "persisted question" {
		t.Errorf("question = %q", got.Question)
	}
}
