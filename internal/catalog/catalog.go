// Package catalog keeps a SQLite index of simulation runs so that past runs
// can be listed and compared without walking every run directory.
// Uses the pure-Go modernc.org/sqlite driver.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Catalog manages the SQLite connection.
type Catalog struct {
	db *sql.DB
}

// Entry is one indexed run.
type Entry struct {
	ID          int64
	RunID       string
	Label       string
	Source      string
	Nx          int
	Ny          int
	Wet         int
	Steps       int
	SimTime     float64
	Termination string
	Field       string
	ImagePath   string
	MaxSpeed    float64
	VolumeDrift float64
	CreatedAt   time.Time
}

// Open creates or opens the catalog at path and runs migrations.
func Open(dbPath string) (*Catalog, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("catalog: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot open database: %w", err)
	}
	// concurrent runs share the catalog; a single connection serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: cannot connect to database: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migration failed: %w", err)
	}

	return c, nil
}

func (c *Catalog) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			source TEXT NOT NULL,
			nx INTEGER NOT NULL,
			ny INTEGER NOT NULL,
			wet INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			sim_time REAL NOT NULL,
			termination TEXT NOT NULL,
			field TEXT NOT NULL,
			image_path TEXT,
			max_speed REAL NOT NULL DEFAULT 0,
			volume_drift REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_label ON runs(label);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	_, err := c.db.Exec(schema)
	return err
}

func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Record indexes a run and returns the row id. Recording the same run id
// twice replaces the earlier row.
func (c *Catalog) Record(e Entry) (int64, error) {
	result, err := c.db.Exec(
		`INSERT OR REPLACE INTO runs
		 (run_id, label, source, nx, ny, wet, steps, sim_time, termination, field, image_path, max_speed, volume_drift)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.Label,
		e.Source,
		e.Nx,
		e.Ny,
		e.Wet,
		e.Steps,
		e.SimTime,
		e.Termination,
		e.Field,
		e.ImagePath,
		e.MaxSpeed,
		e.VolumeDrift,
	)
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot record run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const selectColumns = `SELECT id, run_id, label, source, nx, ny, wet, steps, sim_time,
		        termination, field, image_path, max_speed, volume_drift, created_at
		 FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var imagePath sql.NullString
	var createdAt any

	err := row.Scan(
		&e.ID,
		&e.RunID,
		&e.Label,
		&e.Source,
		&e.Nx,
		&e.Ny,
		&e.Wet,
		&e.Steps,
		&e.SimTime,
		&e.Termination,
		&e.Field,
		&imagePath,
		&e.MaxSpeed,
		&e.VolumeDrift,
		&createdAt,
	)
	if err != nil {
		return e, err
	}

	if imagePath.Valid {
		e.ImagePath = imagePath.String
	}

	switch v := createdAt.(type) {
	case time.Time:
		e.CreatedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			e.CreatedAt = parsed
		}
	}

	return e, nil
}

// Recent returns the newest runs first.
func (c *Catalog) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.Query(selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query runs: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// ByLabel returns every run recorded under label, newest first.
func (c *Catalog) ByLabel(label string) ([]Entry, error) {
	rows, err := c.db.Query(selectColumns+` WHERE label = ? ORDER BY created_at DESC, id DESC`, label)
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query runs: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: cannot scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: row iteration error: %w", err)
	}

	return entries, nil
}

// ByRunID returns nil when the run is unknown.
func (c *Catalog) ByRunID(runID string) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRow(selectColumns+` WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: cannot query run: %w", err)
	}
	return &e, nil
}

func (c *Catalog) Delete(runID string) error {
	_, err := c.db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("catalog: cannot delete run: %w", err)
	}
	return nil
}
