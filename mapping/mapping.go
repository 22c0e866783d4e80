// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: mapping.go — File Mapping & Layout (C1)
//
// Project: shardstore
// Component: fixed-size memory-mapped shard file
//
// Description:
//   Creates or opens a fixed-length shard file and memory-maps it read-write
//   shared, then exposes three typed byte-slice views over one contiguous
//   backing array: the hash table region, the search index region, and the
//   data region. All offset arithmetic into the data region funnels through
//   one bounds-checked slicing primitive so every other component gets
//   bounds safety without re-deriving pointer math.
//
// ⚠️ Unix-only: relies on mmap(2)/msync(2) via golang.org/x/sys/unix.
// ─────────────────────────────────────────────────────────────────────────────

//go:build unix

package mapping

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"shardstore/codes"
	"shardstore/constants"
)

// ═══════════════════════════════════════════════════════════════════════════
// TYPE DEFINITIONS
// ═══════════════════════════════════════════════════════════════════════════

// Mapping owns one shard file's file descriptor and its mmap'd backing
// array. It is not safe for concurrent Close with any other method; callers
// coordinate that via the shard package's reference count.
type Mapping struct {
	file *os.File
	data []byte // full FileSize-length mapping
	path string
}

// ═══════════════════════════════════════════════════════════════════════════
// CONSTRUCTION
// ═══════════════════════════════════════════════════════════════════════════

// Create makes a brand-new shard file inside dir, truncates it to
// constants.FileSize, and maps it read-write shared. The file is unlinked
// before returning if any step after its creation fails, so no partial
// shard is ever observable by a later Open.
func Create(dir, filename string) (*Mapping, error) {
	path := filepath.Join(dir, filename)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", codes.ErrDropFailed, path, err)
	}

	m, err := finishMapping(f, path, true)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return m, nil
}

// Open maps an existing shard file. It fails codes.ErrDropFailed if the
// file's length does not exactly match constants.FileSize — a shard file
// is only valid with the constants that created it.
func Open(dir, filename string) (*Mapping, error) {
	path := filepath.Join(dir, filename)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", codes.ErrDropFailed, path, err)
	}
	return finishMapping(f, path, false)
}

// finishMapping truncates (only when creating) and mmaps f, verifying its
// length either way.
func finishMapping(f *os.File, path string, truncate bool) (*Mapping, error) {
	if truncate {
		if err := f.Truncate(constants.FileSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: truncate %s: %v", codes.ErrDropFailed, path, err)
		}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", codes.ErrDropFailed, path, err)
	}
	if info.Size() != constants.FileSize {
		f.Close()
		return nil, fmt.Errorf("%w: %s has size %d, want %d", codes.ErrDropFailed, path, info.Size(), constants.FileSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, constants.FileSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", codes.ErrDropFailed, path, err)
	}

	return &Mapping{file: f, data: data, path: path}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TYPED VIEWS
// ═══════════════════════════════════════════════════════════════════════════

// HashTable returns the byte-slice view of the hash table region.
func (m *Mapping) HashTable() []byte {
	return m.data[constants.HashTableOffset : constants.HashTableOffset+constants.HashTableBytes]
}

// SearchIndex returns the byte-slice view of the search index region.
func (m *Mapping) SearchIndex() []byte {
	return m.data[constants.SearchIndexOffset : constants.SearchIndexOffset+constants.SearchIndexBytes]
}

// Data returns the byte-slice view of the data region.
func (m *Mapping) Data() []byte {
	return m.data[constants.DataOffset : constants.DataOffset+constants.DataSize]
}

// Slice returns a bounds-checked sub-slice of the data region spanning
// [offset, offset+length). It panics on out-of-range input: every caller in
// this codebase computes offset/length from values it has itself already
// validated against constants.DataSize, so an out-of-range request here
// means a bug upstream, not a runtime condition to recover from.
func (m *Mapping) Slice(offset, length uint32) []byte {
	d := m.Data()
	end := uint64(offset) + uint64(length)
	if end > uint64(len(d)) {
		panic(fmt.Sprintf("mapping: slice [%d:%d) exceeds data region of %d bytes", offset, end, len(d)))
	}
	return d[offset:end]
}

// Path reports the filesystem path this mapping was created or opened from.
func (m *Mapping) Path() string {
	return m.path
}

// ═══════════════════════════════════════════════════════════════════════════
// DURABILITY & LIFECYCLE
// ═══════════════════════════════════════════════════════════════════════════

// Sync requests a synchronous flush of the entire mapping to disk.
func (m *Mapping) Sync() error {
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("%w: %v", codes.ErrSyncFailed, err)
	}
	return nil
}

// Async requests an asynchronous flush of the entire mapping.
func (m *Mapping) Async() error {
	if err := unix.Msync(m.data, unix.MS_ASYNC); err != nil {
		return fmt.Errorf("%w: %v", codes.ErrSyncFailed, err)
	}
	return nil
}

// Close unmaps the file and closes its descriptor. The shard file itself is
// never renamed or unlinked here — that is the disk layer's responsibility.
func (m *Mapping) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}
