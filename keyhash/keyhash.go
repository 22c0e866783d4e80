// keyhash.go — reference hash-function layer.
//
// spec places the hashing library out of scope for the shard itself: shard
// consumes primary_hash and secondary_hash as opaque 32-bit inputs from a
// higher layer. keyhash is that higher layer's reference implementation,
// used by shardctl and by this module's own tests to turn a raw key into
// the two hashes Put/Get/Del need. Never imported by mapping, record,
// hashtable, searchindex, or shard.
package keyhash

import "golang.org/x/crypto/sha3"

// Hash splits a SHA3-256 digest of key into two independent 32-bit values:
// the first four bytes become the primary hash, the next four the
// secondary hash. Two distinct keys collide in both outputs only if their
// digests agree on the first eight bytes, giving the "distinct primary
// hashes for keys it wishes to keep addressable" guarantee the shard's
// hash-function collaborator contract asks for, without the shard needing
// to trust or depend on this package.
func Hash(key []byte) (primary, secondary uint32) {
	sum := sha3.Sum256(key)
	primary = uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
	secondary = uint32(sum[4]) | uint32(sum[5])<<8 | uint32(sum[6])<<16 | uint32(sum[7])<<24
	return primary, secondary
}
