package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timestamps sort lexically in this layout
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Catalog indexes saved runs in a SQLite database.
type Catalog struct {
	db *sql.DB
}

// Entry is one catalogued run.
type Entry struct {
	ID        string
	Network   string
	Method    string
	Start     float64
	End       float64
	Windows   int
	Warnings  int
	Elapsed   time.Duration
	CreatedAt time.Time
	Dir       string
}

// OpenCatalog opens or creates the catalog database and applies migrations.
func OpenCatalog(path string) (*Catalog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a second pooled connection would see a different :memory: database
	db.SetMaxOpenConns(1)
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			method TEXT NOT NULL,
			t0 REAL NOT NULL,
			tf REAL NOT NULL,
			windows INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			dir TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_metrics (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_network ON runs(network);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert records a saved run and its metrics.
func (c *Catalog) Insert(ctx context.Context, meta RunMetadata, dir string) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, network, method, t0, tf, windows, warnings, elapsed_ns, created_at, dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID,
		meta.Network,
		meta.Method,
		meta.Start,
		meta.End,
		meta.Windows,
		len(meta.Warnings),
		int64(meta.Elapsed),
		meta.Timestamp.UTC().Format(timeLayout),
		dir,
	)
	if err != nil {
		return fmt.Errorf("storage: catalog %s: %w", meta.ID, err)
	}

	if len(meta.Metrics) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for name, v := range meta.Metrics {
			if _, err := stmt.ExecContext(ctx, meta.ID, name, v); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// List returns up to limit runs, newest first, optionally for one network.
func (c *Catalog) List(ctx context.Context, network string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, network, method, t0, tf, windows, warnings, elapsed_ns, created_at, dir
		 FROM runs
		 WHERE (? = '' OR network = ?)
		 ORDER BY created_at DESC
		 LIMIT ?`, network, network, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one run by id.
func (c *Catalog) Get(ctx context.Context, id string) (Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, network, method, t0, tf, windows, warnings, elapsed_ns, created_at, dir
		 FROM runs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Metrics returns the metrics recorded for a run.
func (c *Catalog) Metrics(ctx context.Context, id string) (map[string]float64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, value FROM run_metrics WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var elapsed int64
	var created string
	if err := s.Scan(&e.ID, &e.Network, &e.Method, &e.Start, &e.End, &e.Windows, &e.Warnings, &elapsed, &created, &e.Dir); err != nil {
		return Entry{}, err
	}
	e.Elapsed = time.Duration(elapsed)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = t
	return e, nil
}
