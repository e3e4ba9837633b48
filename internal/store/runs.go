package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is a row of the alignment_runs ledger.
type Run struct {
	ID            string
	BookID        string
	LangFrom      string
	LangTo        string
	Text1Hash     string
	Text2Hash     string
	Engine        string
	Model         string
	SentencesFrom int
	SentencesTo   int
	Translated    int
	BatchCount    int
	Passes        int
	Conflicts     int
	EmojisUsed    int
	Progress1     float64
	Progress2     float64
	Status        string
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateRun inserts r with status running. r.ID must be set.
func (s *Store) CreateRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alignment_runs (id, book_id, lang_from, lang_to, text1_hash, text2_hash, engine, model, sentences_from, sentences_to, translated, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BookID, r.LangFrom, r.LangTo, r.Text1Hash, r.Text2Hash, r.Engine, r.Model,
		r.SentencesFrom, r.SentencesTo, r.Translated, RunRunning, now, now)
	return err
}

// RecordAlignment stores the outcome of the alignment stage.
func (s *Store) RecordAlignment(ctx context.Context, id string, batchCount, passes, conflicts int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE alignment_runs SET batch_count = ?, passes = ?, conflicts = ?, updated_at = ? WHERE id = ?`,
		batchCount, passes, conflicts, time.Now(), id)
	return err
}

// RecordMojify stores the outcome of the marking stage.
func (s *Store) RecordMojify(ctx context.Context, id string, emojisUsed int, progress1, progress2 float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE alignment_runs SET emojis_used = ?, progress1 = ?, progress2 = ?, updated_at = ? WHERE id = ?`,
		emojisUsed, progress1, progress2, time.Now(), id)
	return err
}

// FinishRun marks a run completed, or failed when runErr is not nil.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	status, msg := RunCompleted, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE alignment_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, msg, time.Now(), id)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return r, err
}

// ListRuns returns runs newest first, optionally filtered by book (empty
// bookID returns everything).
func (s *Store) ListRuns(ctx context.Context, bookID string) ([]Run, error) {
	query := selectRuns
	var args []interface{}
	if bookID != "" {
		query += ` WHERE book_id = ?`
		args = append(args, bookID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

const selectRuns = `SELECT id, book_id, lang_from, lang_to, COALESCE(text1_hash, ''), COALESCE(text2_hash, ''),
	COALESCE(engine, ''), COALESCE(model, ''), sentences_from, sentences_to, translated, batch_count, passes,
	conflicts, emojis_used, progress1, progress2, status, COALESCE(error, ''), created_at, updated_at
	FROM alignment_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.BookID, &r.LangFrom, &r.LangTo, &r.Text1Hash, &r.Text2Hash,
		&r.Engine, &r.Model, &r.SentencesFrom, &r.SentencesTo, &r.Translated, &r.BatchCount, &r.Passes,
		&r.Conflicts, &r.EmojisUsed, &r.Progress1, &r.Progress2, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
