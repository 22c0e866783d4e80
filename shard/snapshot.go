// snapshot.go — consistent iteration over a captured cursor pair.
//
// A Snapshot captures (data_offset_, search_offset_) at MakeSnapshot time
// and iterates the search index from 0 to the captured search_offset_,
// regardless of how many Put/Del calls run on the Shard afterward. It
// holds its own strong reference to the underlying core, not a
// back-pointer to the Shard that created it, so it stays valid even if
// that Shard value is released first.
package shard

import (
	"shardstore/constants"
	"shardstore/record"
)

// Snapshot is a stable view of a Shard's search index as of the moment it
// was captured.
type Snapshot struct {
	c            *core
	dataOffset   uint32 // data_offset_ captured at snapshot time
	searchOffset uint32 // search_offset_ captured at snapshot time
}

// Entry describes one search-index slot as observed through a Snapshot.
type Entry struct {
	PrimaryHash        uint32
	SecondaryHash      uint32
	DataOffset         uint32
	InvalidationOffset uint32
	Version            uint64
	Key                []byte
	Values             [][]byte
	// Live reports whether this entry is live as of the snapshot: its
	// invalidation_offset is 0, or it points at a record written at or
	// after the snapshot's captured data_offset_ (i.e. the invalidating
	// write itself happened after the snapshot, so this entry was still
	// the current one at snapshot time).
	Live bool
}

// MakeSnapshot captures the current cursor pair. Caller holds RLock.
func (s *Shard) MakeSnapshot() *Snapshot {
	s.c.acquire()
	return &Snapshot{
		c:            s.c,
		dataOffset:   loadAcquireUint32(&s.c.dataOffset),
		searchOffset: s.c.si.Len(),
	}
}

// Len returns the number of search-index entries this snapshot iterates,
// i.e. the search_offset_ captured at MakeSnapshot time.
func (snap *Snapshot) Len() uint32 {
	return snap.searchOffset
}

// Entry decodes and returns the i'th search-index entry, 0 <= i < Len().
func (snap *Snapshot) Entry(i uint32) Entry {
	primaryHash, secondaryHash, dataOffset, invalidationOffset := snap.c.si.Entry(i)
	data := snap.c.m.Data()

	keySize := record.ReadKeySize(data, dataOffset)
	version := record.ReadVersion(data, dataOffset)
	key := record.ReadKey(data, dataOffset, keySize)
	values := record.ReadValues(data, dataOffset, keySize)

	live := invalidationOffset == constants.LiveInvalidationOffset || invalidationOffset >= snap.dataOffset

	return Entry{
		PrimaryHash:        primaryHash,
		SecondaryHash:      secondaryHash,
		DataOffset:         dataOffset,
		InvalidationOffset: invalidationOffset,
		Version:            version,
		Key:                key,
		Values:             values,
		Live:               live,
	}
}

// Live returns every entry live as of this snapshot. It allocates a
// result slice; callers iterating a very large snapshot for a one-pass
// scan (as CopyTo does) should call Entry directly in a loop instead.
func (snap *Snapshot) Live() []Entry {
	var out []Entry
	for i := uint32(0); i < snap.Len(); i++ {
		if e := snap.Entry(i); e.Live {
			out = append(out, e)
		}
	}
	return out
}

// Release drops this snapshot's reference to the underlying core.
func (snap *Snapshot) Release() error {
	return snap.c.release()
}
