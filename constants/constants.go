// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Shard File-Format Tunables
//
// Purpose:
//   - Defines the fixed on-disk layout of a shard: region sizes, entry counts,
//     and the derived total file size.
//   - These values are file-format-binding: a shard file created with one set
//     of constants is only valid when reopened with the same set.
//
// Notes:
//   - Tuned for a mid-size shard: 1M hash-table slots, 1M search-index slots,
//     256 MiB of data. A disk layer sharding a keyspace across many shard
//     files picks a shard count so each shard's live set fits comfortably
//     under these caps.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable.
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Region Sizing ──────────────────────────────

const (
	// HashTableEntries is the number of 8-byte slots in the hash table region.
	HashTableEntries = 1 << 20 // 1,048,576 slots, 8 MiB region

	// SearchIndexEntries is the number of 16-byte slots in the search index
	// region. Sized 1:1 with HashTableEntries: every live hash-table entry
	// has exactly one corresponding live search-index entry.
	SearchIndexEntries = 1 << 20 // 1,048,576 slots, 16 MiB region

	// DataSize is the size in bytes of the append-only data region.
	DataSize = 256 << 20 // 256 MiB

	// HashTableEntryBytes is the on-disk size of one hash table slot.
	HashTableEntryBytes = 8

	// SearchIndexEntryBytes is the on-disk size of one search index slot.
	SearchIndexEntryBytes = 16
)

// ───────────────────────────── Derived Sizes ──────────────────────────────

const (
	// HashTableBytes is the total byte length of the hash table region.
	HashTableBytes = HashTableEntries * HashTableEntryBytes

	// SearchIndexBytes is the total byte length of the search index region.
	SearchIndexBytes = SearchIndexEntries * SearchIndexEntryBytes

	// FileSize is the fixed total length of a shard file: HT + SI + D.
	FileSize = HashTableBytes + SearchIndexBytes + DataSize
)

// ────────────────────────────  Region Offsets ─────────────────────────────

const (
	// HashTableOffset is the byte offset of the hash table region within the
	// shard file. Always 0: the hash table is the first region.
	HashTableOffset = 0

	// SearchIndexOffset is the byte offset of the search index region.
	SearchIndexOffset = HashTableOffset + HashTableBytes

	// DataOffset is the byte offset of the data region.
	DataOffset = SearchIndexOffset + SearchIndexBytes
)

// ──────────────────────────── Slot Sentinels ──────────────────────────────

const (
	// EmptyHash marks a hash-table slot that has never been used.
	EmptyHash uint32 = 0

	// DeadHash marks a hash-table slot whose record has been superseded or
	// deleted. Dead slots are reclaimable by subsequent inserts but do not
	// terminate a GET probe.
	DeadHash uint32 = 1

	// LiveInvalidationOffset is the sentinel invalidation_offset value that
	// means "still live" in a search index entry.
	LiveInvalidationOffset uint32 = 0

	// TombstoneVersion is the version field written into a DEL tombstone
	// record. Version 0 is reserved to mean "no live record", covering both
	// an unused slot's absence of a record and an explicit delete.
	TombstoneVersion uint64 = 0
)
