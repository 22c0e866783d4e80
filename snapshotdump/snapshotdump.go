// snapshotdump.go — JSON export of a shard's live entries.
//
// Grounded on the same "dump internal state as JSON for inspection"
// need the teacher covers with its own aggregator/router debug output,
// but built on sonnet (a drop-in encoding/json replacement) instead of
// the standard library encoding/json, per the domain-stack expansion.
package snapshotdump

import (
	"io"

	"github.com/sugawarayuuta/sonnet"

	"shardstore/shard"
)

// Record is the JSON-serializable projection of one live shard.Entry.
// Byte slices are base64-encoded by the JSON codec's default []byte
// handling, which sonnet preserves for encoding/json compatibility.
type Record struct {
	PrimaryHash   uint32   `json:"primary_hash"`
	SecondaryHash uint32   `json:"secondary_hash"`
	Version       uint64   `json:"version"`
	Key           []byte   `json:"key"`
	Values        [][]byte `json:"values"`
}

// Dump writes every live entry of snap to w as a JSON array, one Record
// per live search-index entry, in index order.
func Dump(w io.Writer, snap *shard.Snapshot) error {
	enc := sonnet.NewEncoder(w)

	records := make([]Record, 0, snap.Len())
	for i := uint32(0); i < snap.Len(); i++ {
		e := snap.Entry(i)
		if !e.Live {
			continue
		}
		records = append(records, Record{
			PrimaryHash:   e.PrimaryHash,
			SecondaryHash: e.SecondaryHash,
			Version:       e.Version,
			Key:           e.Key,
			Values:        e.Values,
		})
	}
	return enc.Encode(records)
}
