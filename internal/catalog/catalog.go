// Package catalog keeps a SQLite inventory of decoded archives so file
// paths, ids and flags can be searched across a whole game image without
// re-decoding every container.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cristian64/rarctool/internal/rarc"
)

// Catalog is a connection to the archive inventory database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Options configure catalog creation and connection behavior.
type Options struct {
	// Path to the SQLite database file
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency
	WALMode bool

	// BusyTimeout sets the timeout for locked database operations
	BusyTimeout time.Duration
}

// DefaultOptions returns sensible defaults for catalog connections.
func DefaultOptions(path string) *Options {
	return &Options{
		Path:        path,
		WALMode:     true,
		BusyTimeout: 30 * time.Second,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS archives (
	id           INTEGER PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	root_name    TEXT NOT NULL,
	file_count   INTEGER NOT NULL,
	data_bytes   INTEGER NOT NULL,
	ingested_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	archive_id  INTEGER NOT NULL REFERENCES archives(id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	file_id     INTEGER NOT NULL,
	name_hash   INTEGER NOT NULL,
	flags       TEXT NOT NULL,
	size        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
`

// Open connects to (and if needed creates) the catalog database.
func Open(options *Options) (*Catalog, error) {
	if options == nil {
		return nil, fmt.Errorf("catalog options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if err := ensureDirectory(options.Path); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing catalog connection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db: db, path: options.Path}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing catalog connection: %w", err)
	}
	return nil
}

// Ingest records a decoded archive, replacing any previous entry for the
// same archive path.
func (c *Catalog) Ingest(ctx context.Context, archivePath string, archive *rarc.Archive, stats *rarc.DecodeStats) error {
	if c.db == nil {
		return fmt.Errorf("catalog connection is closed")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE path = ?`, archivePath); err != nil {
		return fmt.Errorf("removing previous entry: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO archives (path, root_name, file_count, data_bytes, ingested_at) VALUES (?, ?, ?, ?, ?)`,
		archivePath, archive.Root.Name(), archive.FileCount(), stats.DataBytes,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting archive row: %w", err)
	}
	archiveID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading archive row id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (archive_id, path, file_id, name_hash, flags, size) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	archive.WalkFiles(func(path string, file *rarc.File) {
		if insertErr != nil {
			return
		}
		if _, err := stmt.ExecContext(ctx, archiveID, path, file.ID,
			file.Hash, file.Flags.String(), len(file.Data)); err != nil {
			insertErr = fmt.Errorf("inserting file row for %s: %w", path, err)
		}
	})
	if insertErr != nil {
		return insertErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ingest: %w", err)
	}
	return nil
}

// Result is one matching file from a catalog query.
type Result struct {
	Archive string
	Path    string
	FileID  uint16
	Flags   string
	Size    int64
}

// Query returns files whose path matches the SQL LIKE pattern.
func (c *Catalog) Query(ctx context.Context, pattern string) ([]Result, error) {
	if c.db == nil {
		return nil, fmt.Errorf("catalog connection is closed")
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT a.path, f.path, f.file_id, f.flags, f.size
		FROM files f JOIN archives a ON a.id = f.archive_id
		WHERE f.path LIKE ?
		ORDER BY a.path, f.path`, pattern)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Archive, &r.Path, &r.FileID, &r.Flags, &r.Size); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return results, nil
}

// buildConnectionString constructs the SQLite connection string with pragmas.
func buildConnectionString(options *Options) string {
	var pragmas []string

	if options.WALMode {
		pragmas = append(pragmas, "_journal_mode=WAL")
	}
	if options.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_busy_timeout=%d", int(options.BusyTimeout.Milliseconds())))
	}
	pragmas = append(pragmas, "_foreign_keys=on", "_synchronous=NORMAL")

	connStr := options.Path
	if len(pragmas) > 0 {
		connStr += "?" + strings.Join(pragmas, "&")
	}
	return connStr
}

func ensureDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
