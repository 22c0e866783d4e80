// copy.go — cleaning: copy live, predicate-matching records to a fresh shard.
package shard

import (
	"shardstore/codes"
	"shardstore/constants"
	"shardstore/coordinate"
	"shardstore/record"
)

// CopyTo copies every live-as-of-a-snapshot record of s whose
// (primaryHash, secondaryHash, key, values) satisfy c into dst, using the
// unresolving probe on dst. Caller holds RLock on s and Lock on dst.
//
// Because source records obey invariant 3 (at most one live record per
// key) and dst is assumed fresh — no dead slots, enough capacity, no
// duplicate keys among the records that will be copied — no equality
// checks are needed on the destination side.
func (s *Shard) CopyTo(c coordinate.Coordinate, dst *Shard) error {
	snap := &Snapshot{
		c:            s.c,
		dataOffset:   loadAcquireUint32(&s.c.dataOffset),
		searchOffset: s.c.si.Len(),
	}

	for i := uint32(0); i < snap.Len(); i++ {
		e := snap.Entry(i)
		if !e.Live || record.IsTombstone(e.Version) {
			continue
		}
		if !c.Contains(e.PrimaryHash, e.SecondaryHash, e.Key, e.Values) {
			continue
		}
		if err := dst.copyIn(e); err != nil {
			return err
		}
	}
	return nil
}

// copyIn writes one already-filtered live entry into dst using the
// unresolving probe.
func (dst *Shard) copyIn(e Entry) error {
	data := dst.c.m.Data()
	size := record.Size(e.Key, e.Values)

	dataOffset := loadAcquireUint32(&dst.c.dataOffset)
	if uint64(dataOffset)+uint64(size) > constants.DataSize {
		return codes.ErrDataFull
	}

	entry, ok := dst.c.ht.FindBucketUnresolving(e.PrimaryHash)
	if !ok {
		return codes.ErrHashFull
	}

	newOffset := dataOffset
	record.Write(data, newOffset, e.Version, e.Key, e.Values)
	storeReleaseUint32(&dst.c.dataOffset, newOffset+size)

	if _, err := dst.c.si.Append(e.PrimaryHash, e.SecondaryHash, newOffset); err != nil {
		return err
	}

	dst.c.ht.SetLive(entry, newOffset, e.PrimaryHash)
	return nil
}
