// catalog.go — sqlite3-backed manifest of shard files.
//
// spec.md places multi-shard routing, compaction scheduling, and shard
// bookkeeping outside the shard's own scope ("the enclosing disk layer").
// catalog is a minimal stand-in for that layer's bookkeeping: one row per
// shard file, recording the file-format constants it was created with and
// the write cursors it last reported, so a restart can call shard.Open
// with the right resume point instead of guessing 0, 0.
//
// It is deliberately not authoritative over the shard file's actual
// length or contents — mapping.Open always re-verifies the file's size
// itself. shard.Open trusts whatever cursors it is given, so cursors
// recorded here that lag behind the shard's last write let later writes
// overwrite records the shard still references.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shardstore/constants"
)

// Catalog wraps a sqlite3 database recording shard file metadata.
type Catalog struct {
	db *sql.DB
}

// Row is one shard's recorded metadata.
type Row struct {
	Path               string
	FileSize           int64
	HashTableEntries   int64
	SearchIndexEntries int64
	DataSize           int64
	DataOffset         uint32
	SearchOffset       uint32
	CreatedAt          time.Time
}

// Open opens (creating if necessary) the sqlite3 catalog database at
// dbPath and ensures its schema exists.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping %s: %w", dbPath, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS shards (
	path                 TEXT PRIMARY KEY,
	file_size            INTEGER NOT NULL,
	hash_table_entries   INTEGER NOT NULL,
	search_index_entries INTEGER NOT NULL,
	data_size            INTEGER NOT NULL,
	data_offset          INTEGER NOT NULL DEFAULT 0,
	search_offset        INTEGER NOT NULL DEFAULT 0,
	created_at           TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Register records a freshly created shard at path, stamped with the
// constants it was created under.
func (c *Catalog) Register(path string, createdAt time.Time) error {
	_, err := c.db.Exec(`
INSERT INTO shards (path, file_size, hash_table_entries, search_index_entries, data_size, data_offset, search_offset, created_at)
VALUES (?, ?, ?, ?, ?, 0, 0, ?)
ON CONFLICT(path) DO UPDATE SET
	file_size = excluded.file_size,
	hash_table_entries = excluded.hash_table_entries,
	search_index_entries = excluded.search_index_entries,
	data_size = excluded.data_size`,
		path, int64(constants.FileSize), int64(constants.HashTableEntries),
		int64(constants.SearchIndexEntries), int64(constants.DataSize),
		createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("catalog: register %s: %w", path, err)
	}
	return nil
}

// UpdateCursors persists the write cursors last reported for path, so a
// later Lookup can hand them to shard.Open.
func (c *Catalog) UpdateCursors(path string, dataOffset, searchOffset uint32) error {
	_, err := c.db.Exec(
		`UPDATE shards SET data_offset = ?, search_offset = ? WHERE path = ?`,
		int64(dataOffset), int64(searchOffset), path)
	if err != nil {
		return fmt.Errorf("catalog: update cursors for %s: %w", path, err)
	}
	return nil
}

// Lookup returns the recorded row for path, or sql.ErrNoRows if it has
// never been registered.
func (c *Catalog) Lookup(path string) (Row, error) {
	var r Row
	var createdAt string
	err := c.db.QueryRow(
		`SELECT path, file_size, hash_table_entries, search_index_entries, data_size, data_offset, search_offset, created_at
		 FROM shards WHERE path = ?`, path,
	).Scan(&r.Path, &r.FileSize, &r.HashTableEntries, &r.SearchIndexEntries, &r.DataSize, &r.DataOffset, &r.SearchOffset, &createdAt)
	if err != nil {
		return Row{}, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// List returns every registered shard, ordered by path.
func (c *Catalog) List() ([]Row, error) {
	rows, err := c.db.Query(
		`SELECT path, file_size, hash_table_entries, search_index_entries, data_size, data_offset, search_offset, created_at
		 FROM shards ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var createdAt string
		if err := rows.Scan(&r.Path, &r.FileSize, &r.HashTableEntries, &r.SearchIndexEntries, &r.DataSize, &r.DataOffset, &r.SearchOffset, &createdAt); err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
