// ════════════════════════════════════════════════════════════════════════════════════════════════
// shardctl - Shard Inspection & Maintenance CLI
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: shardstore
// Component: Command-line entry point wiring catalog, keyhash, coordinate, and shard together
//
// Description:
//   One binary, subcommand-dispatched, no long-running goroutines: every
//   subcommand opens what it needs, does one thing, releases it, and
//   exits; no subcommand calls Sync or Async explicitly.
//   The catalog database is the only state that outlives a single
//   invocation — it remembers each shard's write cursors across restarts.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shardstore/catalog"
	"shardstore/coordinate"
	"shardstore/debug"
	"shardstore/keyhash"
	"shardstore/shard"
	"shardstore/snapshotdump"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "create":
		err = cmdCreate(args)
	case "put":
		err = cmdPut(args)
	case "get":
		err = cmdGet(args)
	case "del":
		err = cmdDel(args)
	case "stats":
		err = cmdStats(args)
	case "dump":
		err = cmdDump(args)
	case "compact":
		err = cmdCompact(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		debug.Warn(cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shardctl <create|put|get|del|stats|dump|compact> [flags]")
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SHARED PLUMBING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// shardFlags are the flags every subcommand needs to locate a shard file
// and its catalog entry.
type shardFlags struct {
	dir         string
	file        string
	catalogPath string
}

func bindShardFlags(fs *flag.FlagSet) *shardFlags {
	sf := &shardFlags{}
	fs.StringVar(&sf.dir, "dir", ".", "directory containing the shard file")
	fs.StringVar(&sf.file, "shard", "shard.dat", "shard filename")
	fs.StringVar(&sf.catalogPath, "catalog", "shardctl.db", "path to the catalog sqlite3 database")
	return sf
}

// openForWrite opens (or, if never registered, creates) the shard named by
// sf, resuming from whatever cursors the catalog last recorded.
func openForWrite(sf *shardFlags) (*shard.Shard, *catalog.Catalog, error) {
	cat, err := catalog.Open(sf.catalogPath)
	if err != nil {
		return nil, nil, err
	}

	path := filepath.Join(sf.dir, sf.file)
	row, err := cat.Lookup(path)
	if err != nil {
		s, cerr := shard.Create(sf.dir, sf.file)
		if cerr != nil {
			cat.Close()
			return nil, nil, cerr
		}
		if err := cat.Register(path, time.Now()); err != nil {
			cat.Close()
			return nil, nil, err
		}
		return s, cat, nil
	}

	s, err := shard.Open(sf.dir, sf.file, uint32(row.DataOffset), uint32(row.SearchOffset))
	if err != nil {
		cat.Close()
		return nil, nil, err
	}
	return s, cat, nil
}

// closeAfterWrite persists the shard's current cursors and releases both
// the shard and the catalog handle.
func closeAfterWrite(sf *shardFlags, s *shard.Shard, cat *catalog.Catalog) error {
	path := filepath.Join(sf.dir, sf.file)
	if err := cat.UpdateCursors(path, s.DataOffset(), s.SearchOffset()); err != nil {
		return err
	}
	if err := s.Release(); err != nil {
		return err
	}
	return cat.Close()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SUBCOMMANDS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func cmdCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	sf := bindShardFlags(fs)
	fs.Parse(args)

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}
	debug.Info("create", filepath.Join(sf.dir, sf.file))
	return closeAfterWrite(sf, s, cat)
}

func cmdPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	sf := bindShardFlags(fs)
	key := fs.String("key", "", "key to write")
	value := fs.String("value", "", "value to write")
	version := fs.Uint64("version", 1, "record version, must be nonzero")
	fs.Parse(args)

	if *key == "" {
		return fmt.Errorf("shardctl put: -key is required")
	}

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}

	primary, secondary := keyhash.Hash([]byte(*key))

	s.Lock()
	err = s.Put(primary, secondary, []byte(*key), [][]byte{[]byte(*value)}, *version)
	s.Unlock()
	if err != nil {
		s.Release()
		cat.Close()
		return err
	}

	debug.Info("put", *key)
	return closeAfterWrite(sf, s, cat)
}

func cmdGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	sf := bindShardFlags(fs)
	key := fs.String("key", "", "key to look up")
	fs.Parse(args)

	if *key == "" {
		return fmt.Errorf("shardctl get: -key is required")
	}

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}
	defer cat.Close()
	defer s.Release()

	primary, _ := keyhash.Hash([]byte(*key))

	values, version, err := s.Get(primary, []byte(*key))
	if err != nil {
		return err
	}

	for _, v := range values {
		fmt.Printf("version=%d value=%s\n", version, v)
	}
	return nil
}

func cmdDel(args []string) error {
	fs := flag.NewFlagSet("del", flag.ExitOnError)
	sf := bindShardFlags(fs)
	key := fs.String("key", "", "key to delete")
	fs.Parse(args)

	if *key == "" {
		return fmt.Errorf("shardctl del: -key is required")
	}

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}

	primary, _ := keyhash.Hash([]byte(*key))

	s.Lock()
	err = s.Del(primary, []byte(*key))
	s.Unlock()
	if err != nil {
		s.Release()
		cat.Close()
		return err
	}

	debug.Info("del", *key)
	return closeAfterWrite(sf, s, cat)
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	sf := bindShardFlags(fs)
	fs.Parse(args)

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}
	defer cat.Close()
	defer s.Release()

	fmt.Printf("used=%d%% stale=%d%% data_offset=%d search_offset=%d\n",
		s.UsedSpace(), s.StaleSpace(), s.DataOffset(), s.SearchOffset())
	return nil
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	sf := bindShardFlags(fs)
	fs.Parse(args)

	s, cat, err := openForWrite(sf)
	if err != nil {
		return err
	}
	defer cat.Close()
	defer s.Release()

	s.RLock()
	snap := s.MakeSnapshot()
	s.RUnlock()
	defer snap.Release()

	return snapshotdump.Dump(os.Stdout, snap)
}

func cmdCompact(args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	srcDir := fs.String("dir", ".", "directory containing both shard files")
	srcFile := fs.String("shard", "shard.dat", "source shard filename")
	dstFile := fs.String("dst", "shard.compact.dat", "destination shard filename, must not already exist")
	catalogPath := fs.String("catalog", "shardctl.db", "path to the catalog sqlite3 database")
	fs.Parse(args)

	cat, err := catalog.Open(*catalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	srcPath := filepath.Join(*srcDir, *srcFile)
	row, err := cat.Lookup(srcPath)
	if err != nil {
		return fmt.Errorf("shardctl compact: %s was never registered: %w", srcPath, err)
	}

	src, err := shard.Open(*srcDir, *srcFile, uint32(row.DataOffset), uint32(row.SearchOffset))
	if err != nil {
		return err
	}
	defer src.Release()

	dst, err := shard.Create(*srcDir, *dstFile)
	if err != nil {
		return err
	}

	src.RLock()
	dst.Lock()
	err = src.CopyTo(coordinate.All{}, dst)
	dst.Unlock()
	src.RUnlock()
	if err != nil {
		dst.Release()
		return err
	}

	dstPath := filepath.Join(*srcDir, *dstFile)
	if err := cat.Register(dstPath, time.Now()); err != nil {
		dst.Release()
		return err
	}
	if err := cat.UpdateCursors(dstPath, dst.DataOffset(), dst.SearchOffset()); err != nil {
		dst.Release()
		return err
	}

	debug.Info("compact", srcPath+" -> "+dstPath)
	return dst.Release()
}
