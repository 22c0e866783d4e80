// coordinate.go — the coordinate/region-mapping collaborator.
//
// The shard treats a coordinate purely as an opaque predicate over
// (primary_hash, secondary_hash, key, values); the region-mapping
// subsystem that produces real coordinates lives outside this module.
// The two implementations here are the reference collaborators shard's
// own tests and shardctl compact/copy use in its place.
package coordinate

// Coordinate is a pure predicate consulted by shard.CopyTo to decide
// whether a live record belongs in the destination shard.
type Coordinate interface {
	Contains(primaryHash, secondaryHash uint32, key []byte, values [][]byte) bool
}

// All matches every record. Used for full-shard copies (cleaning without
// splitting the keyspace).
type All struct{}

func (All) Contains(uint32, uint32, []byte, [][]byte) bool { return true }

// HashRange matches records whose primary hash falls in [Low, High). It
// stands in for a real coordinate/region-mapping predicate, which would
// typically partition the hash space the same way across many shards.
type HashRange struct {
	Low, High uint32
}

func (r HashRange) Contains(primaryHash, _ uint32, _ []byte, _ [][]byte) bool {
	return primaryHash >= r.Low && primaryHash < r.High
}
