// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ APPEND-ONLY SEARCH INDEX (C4)
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: shardstore
// Component: secondary index for iteration, invalidation tracking, and cleaning
//
// Description:
//   Append-only array of (primary_hash, secondary_hash, data_offset,
//   invalidation_offset) entries living in the shard's memory-mapped search
//   index region. Every successful PUT appends exactly one entry. Cleaning
//   (copy_to) and snapshot iteration walk this array from 0 to the current
//   cursor.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package searchindex

import (
	"encoding/binary"
	"sync/atomic"

	"shardstore/codes"
	"shardstore/constants"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Index is a view over a shard's search-index region plus its write
// cursor. The cursor only grows (invariant 2 of the shard spec): Append is
// the only method that advances it.
type Index struct {
	slots  []byte // constants.SearchIndexBytes long
	offset uint32 // search_offset_, accessed with atomic load/store
}

// New wraps a search-index region byte slice (constants.SearchIndexBytes
// long, as returned by mapping.Mapping.SearchIndex) in an Index, resuming
// from initialOffset entries already appended (0 for a freshly created
// shard).
func New(slots []byte, initialOffset uint32) *Index {
	return &Index{slots: slots, offset: initialOffset}
}

// Cap returns the index's slot count, derived from the length of the
// backing slice rather than hardcoded to constants.SearchIndexEntries, so
// an Index can be sized down for tests without touching the shard's real
// mmap'd region — mirroring hashtable.Table.Entries().
func (idx *Index) Cap() uint32 {
	return uint32(len(idx.slots) / constants.SearchIndexEntryBytes)
}

// Len returns the number of entries appended so far, read with acquire
// semantics so a caller that just observed Len() also sees every entry
// below it fully written.
func (idx *Index) Len() uint32 {
	return atomic.LoadUint32(&idx.offset)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SLOT ACCESS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (idx *Index) entryBytes(i uint32) []byte {
	return idx.slots[i*16 : i*16+16]
}

func (idx *Index) get(i uint32) (primaryHash, secondaryHash, dataOffset, invalidationOffset uint32) {
	b := idx.entryBytes(i)
	return binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint32(b[4:8]),
		binary.LittleEndian.Uint32(b[8:12]),
		binary.LittleEndian.Uint32(b[12:16])
}

func (idx *Index) set(i uint32, primaryHash, secondaryHash, dataOffset, invalidationOffset uint32) {
	b := idx.entryBytes(i)
	binary.LittleEndian.PutUint32(b[0:4], primaryHash)
	binary.LittleEndian.PutUint32(b[4:8], secondaryHash)
	binary.LittleEndian.PutUint32(b[8:12], dataOffset)
	binary.LittleEndian.PutUint32(b[12:16], invalidationOffset)
}

// Entry exposes the raw entry at slot i, for snapshot iteration, tests,
// and stats.
func (idx *Index) Entry(i uint32) (primaryHash, secondaryHash, dataOffset, invalidationOffset uint32) {
	return idx.get(i)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// APPEND & INVALIDATE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Append writes a new live entry (invalidation_offset == 0) at the current
// cursor and advances it, returning the slot it was written to. It fails
// codes.ErrSearchFull without mutating anything if the index is full.
func (idx *Index) Append(primaryHash, secondaryHash, dataOffset uint32) (slot uint32, err error) {
	slot = atomic.LoadUint32(&idx.offset)
	if slot == idx.Cap() {
		return 0, codes.ErrSearchFull
	}

	idx.set(slot, primaryHash, secondaryHash, dataOffset, constants.LiveInvalidationOffset)
	// Publish the entry before advancing the cursor a reader might load.
	atomic.StoreUint32(&idx.offset, slot+1)
	return slot, nil
}

// Invalidate walks every appended entry from 0 to the current cursor and,
// for every entry whose data_offset equals oldOffset and whose
// invalidation_offset is still 0, sets invalidation_offset to newOffset.
//
// It never exits early even though invariant 3 (at most one live entry per
// key) guarantees at most one match exists: the full scan is a defensive
// guard against races between this writer and a concurrent snapshot
// iteration reading the same entries.
func (idx *Index) Invalidate(oldOffset, newOffset uint32) {
	n := idx.Len()
	for i := uint32(0); i < n; i++ {
		_, _, dataOffset, invalidationOffset := idx.get(i)
		if dataOffset == oldOffset && invalidationOffset == constants.LiveInvalidationOffset {
			b := idx.entryBytes(i)
			binary.LittleEndian.PutUint32(b[12:16], newOffset)
		}
	}
}
