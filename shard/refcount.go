// refcount.go — shared ownership between a Shard and its Snapshots.
//
// core is the object a Shard and every Snapshot derived from it hold a
// strong reference to. A Snapshot never reaches a Shard through a
// back-pointer; it shares the same core directly, so the Shard itself can
// be released (and even garbage collected as a Go value) while a Snapshot
// keeps the underlying mapping alive.
package shard

import (
	"sync/atomic"

	"shardstore/hashtable"
	"shardstore/mapping"
	"shardstore/searchindex"
)

// core owns the memory mapping and the two write cursors shared by a
// Shard and its outstanding Snapshots.
type core struct {
	m  *mapping.Mapping
	ht *hashtable.Table
	si *searchindex.Index

	dataOffset uint32 // data_offset_, atomic
	refs       int32  // atomic
}

func (c *core) acquire() {
	atomic.AddInt32(&c.refs, 1)
}

// release drops one reference. When the last reference is dropped it
// closes the underlying mapping and returns any error from doing so.
func (c *core) release() error {
	if atomic.AddInt32(&c.refs, -1) == 0 {
		return c.m.Close()
	}
	return nil
}
