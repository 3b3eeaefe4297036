// Package catalog caches scanned file lists in SQLite, keyed by scan root
// and extension, so a search can skip walking the disk.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// DatabaseFile is the catalog's name inside the data directory.
const DatabaseFile = "catalog.db"

// Catalog stores, per (root, extension), the list of files last found.
type Catalog struct {
	db   *sql.DB
	path string
	lock *FileLock
}

// Stat summarizes one cached (root, extension) list.
type Stat struct {
	Root      string    `json:"root"`
	Extension string    `json:"extension"`
	Files     int       `json:"files"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Open opens or creates the catalog at path. An empty path opens an
// in-memory catalog.
func Open(path string) (*Catalog, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to create catalog directory", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to open catalog", err)
	}

	// One connection: in-memory databases are per-connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to set pragma", err)
		}
	}

	c := &Catalog{db: db, path: path}
	if path != "" {
		c.lock = NewFileLock(filepath.Dir(path))
	}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		root       TEXT NOT NULL,
		ext        TEXT NOT NULL,
		scanned_at INTEGER NOT NULL,
		PRIMARY KEY (root, ext)
	);

	CREATE TABLE IF NOT EXISTS files (
		root     TEXT NOT NULL,
		ext      TEXT NOT NULL,
		position INTEGER NOT NULL,
		path     TEXT NOT NULL,
		PRIMARY KEY (root, ext, position),
		FOREIGN KEY (root, ext) REFERENCES scans(root, ext) ON DELETE CASCADE
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to initialize catalog schema", err)
	}
	return nil
}

// Path returns the database path, empty for an in-memory catalog.
func (c *Catalog) Path() string { return c.path }

// Close checkpoints the WAL and closes the database.
func (c *Catalog) Close() error {
	if c.path != "" {
		_, _ = c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return c.db.Close()
}

// Put replaces the cached list for (root, ext) in one transaction. An
// empty list is recorded too: "scanned, nothing found" differs from
// "never scanned".
func (c *Catalog) Put(ctx context.Context, root, ext string, paths []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE root = ? AND ext = ?`, root, ext); err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to clear cached files", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scans (root, ext, scanned_at) VALUES (?, ?, ?)`,
		root, ext, time.Now().UnixNano()); err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to record scan", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files (root, ext, position, path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, p := range paths {
		if _, err := stmt.ExecContext(ctx, root, ext, i, p); err != nil {
			return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to insert file", err).
				WithDetail("path", p)
		}
	}

	if err := tx.Commit(); err != nil {
		return trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to commit files", err)
	}

	slog.Debug("catalog_put", slog.String("root", root), slog.String("ext", ext), slog.Int("files", len(paths)))
	return nil
}

// Get returns the cached list for (root, ext) in stored order. ok is
// false when that pair was never scanned.
func (c *Catalog) Get(ctx context.Context, root, ext string) (paths []string, ok bool, err error) {
	var scannedAt int64
	err = c.db.QueryRowContext(ctx,
		`SELECT scanned_at FROM scans WHERE root = ? AND ext = ?`, root, ext).Scan(&scannedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to read scan record", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT path FROM files WHERE root = ? AND ext = ? ORDER BY position`, root, ext)
	if err != nil {
		return nil, false, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to query files", err)
	}
	defer rows.Close()

	paths = []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, false, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to scan file row", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to iterate files", err)
	}
	return paths, true, nil
}

// Extensions returns the extensions cached for root, sorted.
func (c *Catalog) Extensions(ctx context.Context, root string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT ext FROM scans WHERE root = ? ORDER BY ext`, root)
	if err != nil {
		return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to query extensions", err)
	}
	defer rows.Close()

	exts := []string{}
	for rows.Next() {
		var ext string
		if err := rows.Scan(&ext); err != nil {
			return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to scan extension row", err)
		}
		exts = append(exts, ext)
	}
	return exts, rows.Err()
}

// Stats lists every cached (root, extension) pair with its file count,
// ordered by root then extension.
func (c *Catalog) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT s.root, s.ext, s.scanned_at, COUNT(f.path)
		FROM scans s
		LEFT JOIN files f ON f.root = s.root AND f.ext = s.ext
		GROUP BY s.root, s.ext, s.scanned_at
		ORDER BY s.root, s.ext`)
	if err != nil {
		return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to query catalog stats", err)
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var st Stat
		var scannedAt int64
		if err := rows.Scan(&st.Root, &st.Extension, &scannedAt, &st.Files); err != nil {
			return nil, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to scan stats row", err)
		}
		st.ScannedAt = time.Unix(0, scannedAt)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Clear drops the cached lists of root, or of every root when root is
// empty. It returns the number of (root, extension) pairs removed.
func (c *Catalog) Clear(ctx context.Context, root string) (int64, error) {
	var res sql.Result
	var err error
	if root == "" {
		res, err = c.db.ExecContext(ctx, `DELETE FROM scans`)
	} else {
		res, err = c.db.ExecContext(ctx, `DELETE FROM scans WHERE root = ?`, root)
	}
	if err != nil {
		return 0, trovoerrors.New(trovoerrors.ErrCodeCatalog, "failed to clear catalog", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// String implements fmt.Stringer for log lines.
func (c *Catalog) String() string {
	if c.path == "" {
		return "catalog(:memory:)"
	}
	return fmt.Sprintf("catalog(%s)", c.path)
}
