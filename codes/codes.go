// codes.go — sentinel errors returned across the shard boundary.
//
// The source enumerates SUCCESS/NOTFOUND/DATAFULL/HASHFULL/SEARCHFULL/
// SYNCFAILED/DROPFAILED as distinct return codes. Idiomatic Go expresses
// "no error" as a nil error return and every failure axis as its own
// sentinel, so callers can branch with errors.Is instead of switching on
// an enum. Each sentinel below has no overlapping semantics with any other.
package codes

import "errors"

var (
	// ErrNotFound means the key is absent, or a PUT/DEL on the same key
	// raced the GET (spurious NOTFOUND, see shard package docs). Callers
	// above the shard are expected to tolerate the latter.
	ErrNotFound = errors.New("shard: not found")

	// ErrDataFull means the data region has no room for the record being
	// written. data_offset_ is left unchanged.
	ErrDataFull = errors.New("shard: data region full")

	// ErrHashFull means every hash-table slot on the probe sequence is
	// live and none matched; the table has no empty or dead slot to give.
	ErrHashFull = errors.New("shard: hash table full")

	// ErrSearchFull means the search index has no remaining slot to
	// append to.
	ErrSearchFull = errors.New("shard: search index full")

	// ErrSyncFailed means the OS refused a flush. The returned error
	// wraps the underlying OS error via fmt.Errorf("%w: ...", ErrSyncFailed, ...).
	ErrSyncFailed = errors.New("shard: sync failed")

	// ErrDropFailed means the shard file could not be created, truncated,
	// mapped, or reopened. No shard object exists when this is returned.
	ErrDropFailed = errors.New("shard: create/map failed")
)
