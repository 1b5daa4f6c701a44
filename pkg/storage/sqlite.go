package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// SQLiteStorage implements Storage on a single SQLite table keyed by path.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath in WAL mode.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS objects (
		path       TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func normalizePath(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (s *SQLiteStorage) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM objects WHERE path = ?`, normalizePath(path)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (path, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		normalizePath(path), data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE path = ?`, normalizePath(path))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return nil
}

// List returns the direct children of prefix, mirroring the directory
// semantics of LocalStorage.
func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := strings.TrimSuffix(normalizePath(prefix), "/") + "/"
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM objects WHERE substr(path, 1, ?) = ? ORDER BY path`,
		len(dir), dir,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		if strings.Contains(strings.TrimPrefix(p, dir), "/") {
			continue
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return paths, nil
}

func (s *SQLiteStorage) Exists(ctx context.Context, path string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM objects WHERE path = ?`, normalizePath(path)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return n > 0, nil
}

func (s *SQLiteStorage) CompareAndSwap(ctx context.Context, path string, prev, next []byte) (bool, error) {
	now := time.Now().UnixMilli()
	var (
		res sql.Result
		err error
	)
	if prev == nil {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO objects (path, data, updated_at) VALUES (?, ?, ?) ON CONFLICT(path) DO NOTHING`,
			normalizePath(path), next, now,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE objects SET data = ?, updated_at = ? WHERE path = ? AND data = ?`,
			next, now, normalizePath(path), prev,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return n == 1, nil
}
