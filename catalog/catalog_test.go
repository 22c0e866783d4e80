package catalog

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRegisterThenLookup(t *testing.T) {
	c := newTestCatalog(t)
	now := time.Now()

	if err := c.Register("/data/shard-0.dat", now); err != nil {
		t.Fatalf("Register: %v", err)
	}

	row, err := c.Lookup("/data/shard-0.dat")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.Path != "/data/shard-0.dat" {
		t.Fatalf("Path: got %q", row.Path)
	}
	if row.DataOffset != 0 || row.SearchOffset != 0 {
		t.Fatalf("a freshly registered shard should start at cursor (0,0), got (%d,%d)", row.DataOffset, row.SearchOffset)
	}
}

func TestLookupOfUnknownPathIsErrNoRows(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Lookup("/does/not/exist.dat")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateCursorsPersists(t *testing.T) {
	c := newTestCatalog(t)
	path := "/data/shard-1.dat"
	c.Register(path, time.Now())

	if err := c.UpdateCursors(path, 4096, 12); err != nil {
		t.Fatalf("UpdateCursors: %v", err)
	}

	row, err := c.Lookup(path)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.DataOffset != 4096 || row.SearchOffset != 12 {
		t.Fatalf("cursors did not persist: got (%d,%d)", row.DataOffset, row.SearchOffset)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	c := newTestCatalog(t)
	path := "/data/shard-2.dat"

	c.Register(path, time.Now())
	c.UpdateCursors(path, 100, 1)
	if err := c.Register(path, time.Now()); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	row, err := c.Lookup(path)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.DataOffset != 100 || row.SearchOffset != 1 {
		t.Fatalf("re-registering should not reset cursors already recorded, got (%d,%d)", row.DataOffset, row.SearchOffset)
	}
}

func TestListReturnsAllRegisteredShardsSorted(t *testing.T) {
	c := newTestCatalog(t)
	c.Register("/data/shard-b.dat", time.Now())
	c.Register("/data/shard-a.dat", time.Now())

	rows, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List: got %d rows, want 2", len(rows))
	}
	if rows[0].Path != "/data/shard-a.dat" || rows[1].Path != "/data/shard-b.dat" {
		t.Fatalf("List should be ordered by path, got %q then %q", rows[0].Path, rows[1].Path)
	}
}
