// Package store keeps the local SQLite database shared by every command: a
// sentence-level translation memory and a ledger of alignment runs.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath, creating its directory.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	-- alignment_runs records every align / mojify invocation
	CREATE TABLE IF NOT EXISTS alignment_runs (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		lang_from TEXT NOT NULL,
		lang_to TEXT NOT NULL,
		text1_hash TEXT,
		text2_hash TEXT,
		engine TEXT,
		model TEXT,
		sentences_from INTEGER DEFAULT 0,
		sentences_to INTEGER DEFAULT 0,
		translated INTEGER DEFAULT 0,
		batch_count INTEGER DEFAULT 0,
		passes INTEGER DEFAULT 0,
		conflicts INTEGER DEFAULT 0,
		emojis_used INTEGER DEFAULT 0,
		progress1 REAL DEFAULT 0,
		progress2 REAL DEFAULT 0,
		status TEXT DEFAULT 'running',
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_runs_book ON alignment_runs(book_id, lang_from, lang_to);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetCachedTranslation returns the remembered translation of a sentence and
// bumps its usage counter.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var translated string
	var invalidated bool

	key := normalizeText(sourceText)
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang).Scan(&translated, &invalidated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), key, sourceLang, targetLang)

	return translated, true, err
}

// SaveToMemory remembers the translation of a sentence.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, translated, serviceUsed string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, service_used, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(sourceText), sourceLang, targetLang, translated, serviceUsed, now, now)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID             string
	SourceText     string
	SourceLang     string
	TargetLang     string
	TranslatedText string
	ServiceUsed    string
	UsageCount     int
	Invalidated    bool
	LastUsed       time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, COALESCE(service_used, ''), usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TranslatedText, &e.ServiceUsed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Cache exposes the translation memory through the sentence cache interface
// of the translation adapter.
type Cache struct {
	DB *Store
}

func (c Cache) Lookup(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error) {
	return c.DB.GetCachedTranslation(ctx, text, sourceLang, targetLang)
}

func (c Cache) Store(ctx context.Context, text, sourceLang, targetLang, translated, service string) error {
	return c.DB.SaveToMemory(ctx, text, sourceLang, targetLang, translated, service)
}

// Fingerprint returns the hex BLAKE3 digest of text, used to recognise
// re-runs over the same input files.
func Fingerprint(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
