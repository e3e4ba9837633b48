// Package length is an in-process alignment engine that needs no embedding
// model. Sentences are matched by the ratio of their lengths within a window
// around the expected diagonal, and conflicts are re-aligned with a small
// dynamic program. The artifact is a SQLite database.
package length

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/valpere/mojify/internal/engine"
)

const Name = "length"

func init() {
	engine.Register(Name, func(opts engine.Options) (engine.Engine, error) {
		return New(opts.Logger), nil
	})
}

type Engine struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

func (e *Engine) Name() string {
	return Name
}

type link struct {
	From  int
	To    int
	Batch int
	Score float64
}

// artifact is an open alignment database with its sentences loaded.
type artifact struct {
	db   *sql.DB
	from []string
	to   []string
	meta map[string]string
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sentences (
		direction TEXT NOT NULL,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY(direction, idx)
	);

	-- one row per "from" sentence; to_idx is the last "to" sentence it covers
	CREATE TABLE IF NOT EXISTS links (
		from_idx INTEGER PRIMARY KEY,
		to_idx INTEGER NOT NULL,
		batch_id INTEGER NOT NULL,
		score REAL NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Init creates the artifact at path and stores both sentence sequences.
// Existing content at path is replaced.
func (e *Engine) Init(ctx context.Context, path, lang1, lang2 string, from, to []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to migrate artifact: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "sentences", "links"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}

	meta := map[string]string{
		"lang_from": lang1,
		"lang_to":   lang2,
		"ratio":     strconv.FormatFloat(lengthRatio(from, to), 'f', -1, 64),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("failed to write meta: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sentences (direction, idx, text) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for dir, sentences := range map[string][]string{engine.DirectionFrom: from, engine.DirectionTo: to} {
		for i, s := range sentences {
			if _, err := stmt.ExecContext(ctx, dir, i, s); err != nil {
				return fmt.Errorf("failed to write sentence: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifact: %w", err)
	}

	e.logger.Debug("artifact initialised",
		zap.String("path", path),
		zap.Int("from", len(from)),
		zap.Int("to", len(to)))
	return nil
}

// load opens an existing artifact. The caller closes a.db.
func load(ctx context.Context, path string) (*artifact, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("artifact not found: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	a := &artifact{db: db, meta: map[string]string{}}

	rows, err := db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			db.Close()
			return nil, err
		}
		a.meta[k] = v
	}
	rows.Close()

	if a.from, err = a.sentences(ctx, engine.DirectionFrom); err != nil {
		db.Close()
		return nil, err
	}
	if a.to, err = a.sentences(ctx, engine.DirectionTo); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *artifact) sentences(ctx context.Context, direction string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT text FROM sentences WHERE direction = ? ORDER BY idx", direction)
	if err != nil {
		return nil, fmt.Errorf("failed to read sentences: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (a *artifact) links(ctx context.Context) ([]link, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT from_idx, to_idx, batch_id, score FROM links ORDER BY from_idx")
	if err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	defer rows.Close()

	var out []link
	for rows.Next() {
		var l link
		if err := rows.Scan(&l.From, &l.To, &l.Batch, &l.Score); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// writeLinks deletes the links of the from rows in clear, then inserts ls.
func (a *artifact) writeLinks(ctx context.Context, clear []int, ls []link) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, i := range clear {
		if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE from_idx = ?", i); err != nil {
			return fmt.Errorf("failed to clear link: %w", err)
		}
	}
	for _, l := range ls {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO links (from_idx, to_idx, batch_id, score) VALUES (?, ?, ?, ?)",
			l.From, l.To, l.Batch, l.Score)
		if err != nil {
			return fmt.Errorf("failed to write link: %w", err)
		}
	}
	return tx.Commit()
}

func (a *artifact) setMeta(ctx context.Context, key, value string) error {
	_, err := a.db.ExecContext(ctx, "INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

func (a *artifact) metaInt(key string, def int) int {
	if v, err := strconv.Atoi(a.meta[key]); err == nil {
		return v
	}
	return def
}

func (a *artifact) ratio() float64 {
	if v, err := strconv.ParseFloat(a.meta["ratio"], 64); err == nil && v > 0 {
		return v
	}
	return lengthRatio(a.from, a.to)
}

// lengthRatio is the total rune length of to divided by that of from.
func lengthRatio(from, to []string) float64 {
	lf, lt := totalLen(from), totalLen(to)
	if lf == 0 || lt == 0 {
		return 1
	}
	return float64(lt) / float64(lf)
}

func totalLen(ss []string) int {
	n := 0
	for _, s := range ss {
		n += textLen(s)
	}
	return n
}

// textLen counts runes after collapsing whitespace runs.
func textLen(s string) int {
	return utf8.RuneCountInString(strings.Join(strings.Fields(s), " "))
}

// lengthCost is zero when lt is exactly the expected length of a translation
// of a text of length lf.
func lengthCost(lf, lt int, ratio float64) float64 {
	return math.Abs(math.Log(ratio*float64(lf)+1) - math.Log(float64(lt)+1))
}

func similarity(cost float64) float64 {
	return 1 / (1 + cost)
}
