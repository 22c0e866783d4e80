package snapshotdump

import (
	"bytes"
	"testing"

	"github.com/sugawarayuuta/sonnet"

	"shardstore/shard"
)

func TestDumpEmitsOnlyLiveEntriesAsJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := shard.Create(dir, "shard.dat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Release()

	s.Lock()
	if err := s.Put(1, 1, []byte("k1"), [][]byte{[]byte("v1")}, 1); err != nil {
		t.Fatalf("Put k1: %v", err)
	}
	if err := s.Put(1, 1, []byte("k1"), [][]byte{[]byte("v1-updated")}, 2); err != nil {
		t.Fatalf("Put k1 update: %v", err)
	}
	if err := s.Put(2, 2, []byte("k2"), [][]byte{[]byte("v2")}, 1); err != nil {
		t.Fatalf("Put k2: %v", err)
	}
	s.Unlock()

	s.RLock()
	snap := s.MakeSnapshot()
	s.RUnlock()
	defer snap.Release()

	var buf bytes.Buffer
	if err := Dump(&buf, snap); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	var records []Record
	if err := sonnet.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("Unmarshal dump output: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 live records (the overwritten k1 entry excluded), got %d", len(records))
	}

	byKey := make(map[string]Record, len(records))
	for _, r := range records {
		byKey[string(r.Key)] = r
	}

	k1, ok := byKey["k1"]
	if !ok {
		t.Fatalf("k1 missing from dump")
	}
	if k1.Version != 2 || string(k1.Values[0]) != "v1-updated" {
		t.Fatalf("k1 record stale: got version=%d values=%v", k1.Version, k1.Values)
	}

	if _, ok := byKey["k2"]; !ok {
		t.Fatalf("k2 missing from dump")
	}
}
