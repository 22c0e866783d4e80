// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ OPEN-ADDRESSED HASH TABLE (C3)
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: shardstore
// Component: primary index from primary_hash to a data-region offset
//
// Description:
//   Fixed-capacity, open-addressed hash table living directly in the shard's
//   memory-mapped hash-table region. Linear probing starting at
//   primary_hash mod HashTableEntries, wrapping. A GET probe terminates at
//   the first empty slot; dead (tombstoned) slots do not terminate a probe
//   but are reclaimable by insertion.
//
// Design Principles:
//   - No allocation on the probe path: Table wraps a pre-mapped byte slice.
//   - Slot layout matches the on-disk format exactly: low 32 bits hash,
//     high 32 bits offset, 8 bytes total, little-endian.
//   - The resolving probe (FindBucket) dereferences the data region to
//     compare keys byte-for-byte on a primary-hash match; the unresolving
//     probe (FindBucketUnresolving) never does, and is only safe when the
//     caller guarantees no duplicate keys and no dead slots in this table.
//   - Slots are read and written with a single atomic 64-bit load/store,
//     never as two independent 32-bit fields, so a lock-free GET can never
//     observe a torn (hash, offset) pair — half the old slot and half the
//     new one — while a concurrent PUT/DEL is writing it.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package hashtable

import (
	"bytes"
	"sync/atomic"
	"unsafe"

	"shardstore/constants"
	"shardstore/record"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Table is a view over a shard's hash-table region. It holds no state of
// its own beyond the byte slice: every mutation is a direct write into the
// mapped file.
type Table struct {
	slots []byte // constants.HashTableBytes long
}

// New wraps a hash-table region byte slice (constants.HashTableBytes long,
// as returned by mapping.Mapping.HashTable) in a Table.
func New(slots []byte) *Table {
	return &Table{slots: slots}
}

// Entries returns the table's slot count, derived from the length of the
// backing slice rather than hardcoded to constants.HashTableEntries, so a
// Table can be sized down for tests without touching the shard's real
// mmap'd region.
func (t *Table) Entries() uint32 {
	return uint32(len(t.slots) / 8)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SLOT ACCESS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// word returns a pointer to slot i's 8 bytes, reinterpreted as a single
// uint64 for atomic access. Slot i starts at byte offset i*8 into slots,
// which mmap always page-aligns, so every slot is naturally 8-byte
// aligned for the atomic ops below. shardstore only builds on unix
// little-endian targets, matching the on-disk format's declared
// byte order, so the reinterpretation needs no runtime endian check.
func (t *Table) word(i uint32) *uint64 {
	return (*uint64)(unsafe.Pointer(&t.slots[i*8]))
}

func (t *Table) get(i uint32) (hash, offset uint32) {
	w := atomic.LoadUint64(t.word(i))
	return uint32(w), uint32(w >> 32)
}

func (t *Table) set(i uint32, hash, offset uint32) {
	atomic.StoreUint64(t.word(i), uint64(hash)|uint64(offset)<<32)
}

// Entry exposes the raw (hash, offset) pair at slot i, for callers (tests,
// stats) that need to inspect table state directly.
func (t *Table) Entry(i uint32) (hash, offset uint32) {
	return t.get(i)
}

// liveHash returns the hash value a live slot stores for primaryHash.
// Primary hashes 0 and 1 would read back as the empty and dead sentinels,
// so they are stored as 2 and 3; key comparison tells colliding keys apart.
func liveHash(primaryHash uint32) uint32 {
	if primaryHash <= constants.DeadHash {
		return primaryHash + 2
	}
	return primaryHash
}

// SetLive overwrites slot entry with a live reference to a record at
// offset under primaryHash (stored as liveHash(primaryHash)).
func (t *Table) SetLive(entry, offset, primaryHash uint32) {
	t.set(entry, liveHash(primaryHash), offset)
}

// SetDead marks slot entry as a tombstone: reclaimable, but skipped by a
// resolving probe's key comparison and never terminating a GET probe.
func (t *Table) SetDead(entry uint32) {
	t.set(entry, constants.DeadHash, 0)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PROBES
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// FindBucket performs the resolving probe used by GET/PUT/DEL.
//
// Starting at primaryHash mod Entries, it scans forward, wrapping. The
// first dead-or-empty slot seen is remembered as the reusable candidate.
//
//   - If it reaches an empty slot, the key is absent: it returns the
//     reusable candidate if one was already seen, else the empty slot
//     itself, with matched=false.
//   - If a live slot's stored hash equals liveHash(primaryHash), it
//     dereferences data to compare keys byte-for-byte; on equality it
//     returns that slot's index and the record's data offset, with
//     matched=true.
//   - If every slot is scanned without an empty slot or a match, it
//     returns the first dead slot seen, with matched=false; if there was
//     no dead slot either, it returns (Entries(), 0, false): the table is
//     full.
//
// data must be the shard's data region (mapping.Mapping.Data()), used only
// to resolve key equality on a hash match.
func (t *Table) FindBucket(primaryHash uint32, key []byte, data []byte) (entry, offset uint32, matched bool) {
	n := t.Entries()
	start := primaryHash % n
	firstReusable := n // n is out of range: "not found yet" sentinel
	want := liveHash(primaryHash)

	for probes := uint32(0); probes < n; probes++ {
		i := (start + probes) % n
		hash, off := t.get(i)

		switch hash {
		case constants.EmptyHash:
			if firstReusable != n {
				return firstReusable, 0, false
			}
			return i, 0, false

		case constants.DeadHash:
			if firstReusable == n {
				firstReusable = i
			}

		default:
			if hash == want {
				keySize := record.ReadKeySize(data, off)
				if bytes.Equal(record.ReadKey(data, off, keySize), key) {
					return i, off, true
				}
			}
		}
	}

	// Every slot was live or dead, never empty: a dead slot is still a
	// valid insertion point even though no probe terminated on it.
	if firstReusable != n {
		return firstReusable, 0, false
	}
	return n, 0, false
}

// FindBucketUnresolving performs the unresolving probe used only by
// copy_to: it scans forward from primaryHash mod Entries for the first
// empty slot and returns it. It never dereferences data and never checks
// for a matching key.
//
// Preconditions, enforced by the caller (shard.CopyTo), not by this
// method: the destination table has no dead slots, has enough remaining
// capacity, and no two source records share a key. Violating them yields
// a table with duplicate or lost entries, not a panic.
func (t *Table) FindBucketUnresolving(primaryHash uint32) (entry uint32, ok bool) {
	n := t.Entries()
	start := primaryHash % n
	for probes := uint32(0); probes < n; probes++ {
		i := (start + probes) % n
		hash, _ := t.get(i)
		if hash == constants.EmptyHash {
			return i, true
		}
	}
	return n, false
}
