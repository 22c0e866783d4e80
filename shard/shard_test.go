//go:build unix

package shard

import (
	"errors"
	"testing"

	"shardstore/codes"
	"shardstore/coordinate"
	"shardstore/hashtable"
)

func newTestShard(t *testing.T) *Shard {
	t.Helper()
	dir := t.TempDir()
	s, err := Create(dir, "shard.dat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Release() })
	return s
}

// newTestShardWithSmallHashTable builds a real shard (real mmap'd data and
// search-index regions) but swaps in an n-slot hashtable.Table so
// codes.ErrHashFull can be driven without a million-key fill. The
// hashtable and the mapping it indexes are independent collaborators of
// core, so this substitution exercises the exact same Put/FindBucket path
// a full-size shard would.
func newTestShardWithSmallHashTable(t *testing.T, n int) *Shard {
	t.Helper()
	s := newTestShard(t)
	s.c.ht = hashtable.New(make([]byte, n*8))
	return s
}

func TestPutReturnsErrHashFullWhenTableExhausted(t *testing.T) {
	s := newTestShardWithSmallHashTable(t, 4)

	for i := uint32(0); i < 4; i++ {
		key := []byte{byte(i)}
		s.Lock()
		err := s.Put(i, i, key, [][]byte{[]byte("v")}, uint64(i+1))
		s.Unlock()
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	s.Lock()
	err := s.Put(4, 4, []byte("overflow"), [][]byte{[]byte("v")}, 1)
	s.Unlock()
	if !errors.Is(err, codes.ErrHashFull) {
		t.Fatalf("expected ErrHashFull once every slot is live, got %v", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestShard(t)
	key := []byte("account:42")
	values := [][]byte{[]byte("balance"), []byte("100")}

	s.Lock()
	err := s.Put(1000, 2000, key, values, 1)
	s.Unlock()
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	gotValues, version, err := s.Get(1000, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if version != 1 {
		t.Fatalf("version: got %d, want 1", version)
	}
	if len(gotValues) != 2 || string(gotValues[0]) != "balance" || string(gotValues[1]) != "100" {
		t.Fatalf("values: got %v", gotValues)
	}
}

func TestPutOverwriteInvalidatesOldEntry(t *testing.T) {
	s := newTestShard(t)
	key := []byte("k")

	s.Lock()
	if err := s.Put(5, 6, key, [][]byte{[]byte("v1")}, 1); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := s.Put(5, 6, key, [][]byte{[]byte("v2")}, 2); err != nil {
		t.Fatalf("Put v2: %v", err)
	}
	s.Unlock()

	values, version, err := s.Get(5, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if version != 2 || string(values[0]) != "v2" {
		t.Fatalf("expected the latest write to win: got version=%d values=%v", version, values)
	}
}

func TestDelRemovesKey(t *testing.T) {
	s := newTestShard(t)
	key := []byte("gone")

	s.Lock()
	if err := s.Put(9, 9, key, [][]byte{[]byte("v")}, 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Del(9, key); err != nil {
		t.Fatalf("Del: %v", err)
	}
	s.Unlock()

	_, _, err := s.Get(9, key)
	if !errors.Is(err, codes.ErrNotFound) {
		t.Fatalf("Get after Del: got %v, want ErrNotFound", err)
	}
}

func TestDelOfMissingKeyIsNotFound(t *testing.T) {
	s := newTestShard(t)
	s.Lock()
	err := s.Del(123, []byte("never-existed"))
	s.Unlock()
	if !errors.Is(err, codes.ErrNotFound) {
		t.Fatalf("Del of missing key: got %v, want ErrNotFound", err)
	}
}

func TestCursorsAreMonotone(t *testing.T) {
	s := newTestShard(t)
	var lastData, lastSearch uint32

	for i := 0; i < 50; i++ {
		key := []byte{byte(i)}
		s.Lock()
		err := s.Put(uint32(i), uint32(i), key, [][]byte{[]byte("v")}, uint64(i+1))
		s.Unlock()
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}

		d, sOff := s.DataOffset(), s.SearchOffset()
		if d < lastData || sOff < lastSearch {
			t.Fatalf("cursors moved backwards at iteration %d: data %d->%d search %d->%d", i, lastData, d, lastSearch, sOff)
		}
		lastData, lastSearch = d, sOff
	}

	s.Lock()
	s.Del(0, []byte{0})
	s.Unlock()

	if d := s.DataOffset(); d < lastData {
		t.Fatalf("Del moved data_offset backwards: %d -> %d", lastData, d)
	}
}

func TestPutRejectsRecordLargerThanDataRegion(t *testing.T) {
	s := newTestShard(t)
	huge := make([]byte, 300<<20) // exceeds constants.DataSize (256 MiB)

	s.Lock()
	err := s.Put(1, 1, []byte("k"), [][]byte{huge}, 1)
	s.Unlock()

	if !errors.Is(err, codes.ErrDataFull) {
		t.Fatalf("expected ErrDataFull for an oversized record, got %v", err)
	}
	if d := s.DataOffset(); d != 0 {
		t.Fatalf("a rejected Put must not move data_offset_: got %d", d)
	}
}

func TestSnapshotIsStableAcrossLaterWrites(t *testing.T) {
	s := newTestShard(t)
	key := []byte("stable")

	s.Lock()
	if err := s.Put(1, 1, key, [][]byte{[]byte("v1")}, 1); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	s.Unlock()

	s.RLock()
	snap := s.MakeSnapshot()
	s.RUnlock()

	s.Lock()
	if err := s.Put(1, 1, key, [][]byte{[]byte("v2")}, 2); err != nil {
		t.Fatalf("Put v2: %v", err)
	}
	if err := s.Put(2, 2, []byte("other"), [][]byte{[]byte("x")}, 1); err != nil {
		t.Fatalf("Put other: %v", err)
	}
	s.Unlock()

	if snap.Len() != 1 {
		t.Fatalf("snapshot Len should still be 1 (captured before the later writes), got %d", snap.Len())
	}
	e := snap.Entry(0)
	if !e.Live {
		t.Fatalf("the only entry as of the snapshot should still read as live")
	}
	if string(e.Values[0]) != "v1" {
		t.Fatalf("snapshot entry should read the value as of capture time, got %q", e.Values[0])
	}

	if err := snap.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestSnapshotSeesInvalidationFromWritesBeforeCapture(t *testing.T) {
	s := newTestShard(t)
	key := []byte("k")

	s.Lock()
	s.Put(1, 1, key, [][]byte{[]byte("v1")}, 1)
	s.Put(1, 1, key, [][]byte{[]byte("v2")}, 2)
	s.Unlock()

	s.RLock()
	snap := s.MakeSnapshot()
	s.RUnlock()
	defer snap.Release()

	if snap.Len() != 2 {
		t.Fatalf("expected 2 search index entries, got %d", snap.Len())
	}
	if snap.Entry(0).Live {
		t.Fatalf("the first (overwritten) entry should read as not live")
	}
	if !snap.Entry(1).Live {
		t.Fatalf("the second (current) entry should read as live")
	}
}

func TestCopyToCopiesOnlyLiveMatchingRecords(t *testing.T) {
	src := newTestShard(t)
	dst := newTestShard(t)

	src.Lock()
	src.Put(1, 1, []byte("keep-in-range"), [][]byte{[]byte("a")}, 1)
	src.Put(2, 2, []byte("overwritten"), [][]byte{[]byte("old")}, 1)
	src.Put(2, 2, []byte("overwritten"), [][]byte{[]byte("new")}, 2)
	src.Put(500, 500, []byte("out-of-range"), [][]byte{[]byte("b")}, 1)
	src.Del(1, []byte("keep-in-range"))
	src.Put(3, 3, []byte("also-keep"), [][]byte{[]byte("c")}, 1)
	src.Unlock()

	src.RLock()
	dst.Lock()
	err := src.CopyTo(coordinate.HashRange{Low: 0, High: 10}, dst)
	dst.Unlock()
	src.RUnlock()
	if err != nil {
		t.Fatalf("CopyTo: %v", err)
	}

	_, _, err = dst.Get(1, []byte("keep-in-range"))
	if !errors.Is(err, codes.ErrNotFound) {
		t.Fatalf("deleted key should not have been copied: got %v", err)
	}

	values, version, err := dst.Get(2, []byte("overwritten"))
	if err != nil {
		t.Fatalf("Get overwritten: %v", err)
	}
	if version != 2 || string(values[0]) != "new" {
		t.Fatalf("expected only the current version to be copied, got version=%d values=%v", version, values)
	}

	_, _, err = dst.Get(500, []byte("out-of-range"))
	if !errors.Is(err, codes.ErrNotFound) {
		t.Fatalf("out-of-range key should not have been copied: got %v", err)
	}

	_, _, err = dst.Get(3, []byte("also-keep"))
	if err != nil {
		t.Fatalf("Get also-keep: %v", err)
	}
}

func TestUsedAndStaleSpaceAccounting(t *testing.T) {
	s := newTestShard(t)
	key := []byte("k")
	// Large enough relative to the 256 MiB data region that the resulting
	// percentages are distinguishable from zero.
	big := make([]byte, 4<<20)

	s.Lock()
	s.Put(1, 1, key, [][]byte{big}, 1)
	before := s.UsedSpace()
	s.Put(1, 1, key, [][]byte{big}, 2)
	s.Unlock()

	if s.UsedSpace() < before {
		t.Fatalf("UsedSpace should not decrease after another write")
	}
	if s.StaleSpace() <= 0 {
		t.Fatalf("expected nonzero StaleSpace after overwriting a key, got %d", s.StaleSpace())
	}
}
