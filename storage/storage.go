// Package storage keeps a local log of processed captures and a small
// settings table. Notion remains the system of record; this log only feeds
// the /recent and /stats commands and the daily recap.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// Capture is one logged capture record.
type Capture struct {
	ID       int64
	Title    string
	Category string
	Content  string
	AddedAt  time.Time
}

// CategoryCount is the number of captures logged for one category.
type CategoryCount struct {
	Category string
	Count    int
}

// DB wraps the SQLite database connection and provides storage operations.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_captures_added_at ON captures(added_at);
	CREATE INDEX IF NOT EXISTS idx_captures_category ON captures(category);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveCapture appends a capture to the log.
func (db *DB) SaveCapture(ctx context.Context, c *Capture) error {
	query := `INSERT INTO captures (title, category, content, added_at) VALUES (?, ?, ?, ?)`
	res, err := db.conn.ExecContext(ctx, query, c.Title, c.Category, c.Content, c.AddedAt.UTC())
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

// RecentCaptures returns the most recent captures, newest first.
func (db *DB) RecentCaptures(ctx context.Context, limit int) ([]Capture, error) {
	query := `
	SELECT id, title, category, content, added_at
	FROM captures ORDER BY added_at DESC, id DESC LIMIT ?
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCaptures(rows)
}

// CapturesSince returns captures added at or after the cutoff, newest first.
// Timestamps are stored and compared in UTC; a cutoff in any zone is
// normalized so the text comparison sqlite performs stays consistent.
func (db *DB) CapturesSince(ctx context.Context, cutoff time.Time) ([]Capture, error) {
	query := `
	SELECT id, title, category, content, added_at
	FROM captures WHERE added_at >= ? ORDER BY added_at DESC, id DESC
	`
	rows, err := db.conn.QueryContext(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCaptures(rows)
}

// CountCaptures returns the total number of logged captures.
func (db *DB) CountCaptures(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM captures`).Scan(&count)
	return count, err
}

// CategoryCounts returns per-category capture counts, largest first.
func (db *DB) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	query := `
	SELECT category, COUNT(*) AS n FROM captures
	GROUP BY category ORDER BY n DESC, category ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// GetSetting retrieves a setting value by key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores or updates a setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := db.conn.ExecContext(ctx, query, key, value)
	return err
}

func scanCaptures(rows *sql.Rows) ([]Capture, error) {
	var captures []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Content, &c.AddedAt); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}
