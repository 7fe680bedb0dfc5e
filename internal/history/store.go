// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives completed runs in a local SQLite database so
// past questions, answers, and source outcomes can be listed, searched,
// and exported. The archive is write-only during a run; the pipeline
// never reads from it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const dbFile = "history.db"

// Store manages the run archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at cfg.Dir/history.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "history"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			asked_at TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			citations TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			run_id TEXT NOT NULL REFERENCES runs(id),
			rank INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			extracted INTEGER NOT NULL,
			allowed INTEGER NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_run_id ON sources(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over question and answer, with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE runs_fts USING fts5(question, answer, content=runs, content_rowid=rowid)`,
			`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
				INSERT INTO runs_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
			END`,
			`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun archives one completed run and returns the assigned run ID.
func (s *Store) SaveRun(ctx context.Context, rec types.RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now().UTC()
	}

	citationsJSON, err := json.Marshal(rec.Citations)
	if err != nil {
		return "", fmt.Errorf("marshaling citations: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, asked_at, question, answer, citations) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.AskedAt.UTC().Format(time.RFC3339Nano), rec.Question, rec.Answer, string(citationsJSON),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, src := range rec.Sources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (run_id, rank, url, title, extracted, allowed, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, src.Rank, src.URL, src.Title, boolInt(src.Extracted), boolInt(src.Allowed), src.Error,
		); err != nil {
			return "", fmt.Errorf("inserting source %s: %w", src.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return rec.ID, nil
}

// Summary is one archived run as shown in listings.
type Summary struct {
	ID        string    `json:"id" yaml:"id"`
	AskedAt   time.Time `json:"asked_at" yaml:"asked_at"`
	Question  string    `json:"question" yaml:"question"`
	Citations int       `json:"citations" yaml:"citations"`
}

// List returns the most recent runs, newest first. limit <= 0 uses the
// store default.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asked_at, question, citations FROM runs ORDER BY asked_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// SearchRuns queries the archive with FTS5 full-text search over
// questions and answers.
func (s *Store) SearchRuns(ctx context.Context, query string, limit int) ([]Summary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.asked_at, r.question, r.citations
		 FROM runs_fts
		 JOIN runs r ON r.rowid = runs_fts.rowid
		 WHERE runs_fts MATCH ?
		 ORDER BY runs_fts.rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Show loads one archived run with its sources. The id may be a unique
// prefix of the full run ID.
func (s *Store) Show(ctx context.Context, id string) (*types.RunRecord, error) {
	var (
		rec           types.RunRecord
		askedAt       string
		citationsJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, asked_at, question, answer, citations FROM runs WHERE id = ? OR id LIKE ? || '%'`,
		id, id,
	).Scan(&rec.ID, &askedAt, &rec.Question, &rec.Answer, &citationsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	if t, parseErr := time.Parse(time.RFC3339Nano, askedAt); parseErr == nil {
		rec.AskedAt = t
	}
	if citationsJSON.Valid && citationsJSON.String != "" {
		if err := json.Unmarshal([]byte(citationsJSON.String), &rec.Citations); err != nil {
			return nil, fmt.Errorf("parsing citations for run %s: %w", rec.ID, err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, url, title, extracted, allowed, error FROM sources WHERE run_id = ? ORDER BY rank`,
		rec.ID)
	if err != nil {
		return nil, fmt.Errorf("loading sources for run %s: %w", rec.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			src                types.SourceRecord
			title, errMsg      sql.NullString
			extracted, allowed int
		)
		if err := rows.Scan(&src.Rank, &src.URL, &title, &extracted, &allowed, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		src.Title = title.String
		src.Error = errMsg.String
		src.Extracted = extracted != 0
		src.Allowed = allowed != 0
		rec.Sources = append(rec.Sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}

	return &rec, nil
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	var summaries []Summary
	for rows.Next() {
		var (
			sum           Summary
			askedAt       string
			citationsJSON sql.NullString
		)
		if err := rows.Scan(&sum.ID, &askedAt, &sum.Question, &citationsJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, askedAt); err == nil {
			sum.AskedAt = t
		}
		if citationsJSON.Valid && citationsJSON.String != "" {
			var cites []string
			if err := json.Unmarshal([]byte(citationsJSON.String), &cites); err == nil {
				sum.Citations = len(cites)
			}
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return summaries, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
