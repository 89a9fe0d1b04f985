// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bvk/gridbot/kvutil"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

// DBFlags pick one of a local database directory, a backup file loaded into
// memory or the database of a running gridbot over http.
type DBFlags struct {
	ClientFlags

	dbURLPath string

	dataDir string

	fromBackup string

	backupBefore string
	backupAfter  string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "Path to the gridbot data directory (default GRIDBOT_DB value)")
	fset.StringVar(&f.fromBackup, "from-backup", "", "Path to a database backup file")

	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.dbURLPath, "db-url-path", "/db", "path to db api handler")

	fset.StringVar(&f.backupBefore, "backup-before", "", "Path to a file to receive db backup before cmd is run")
	fset.StringVar(&f.backupAfter, "backup-after", "", "Path to a file to receive db backup after cmd is run")
}

// IsGoodKey reports whether a database key is a clean absolute path.
func IsGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}

// DatabaseDir returns the badger database directory under a data directory.
func DatabaseDir(dataDir string) string {
	return filepath.Join(dataDir, "db")
}

// databaseDir returns the local data directory. GRIDBOT_DB value is used
// when the flag is not set and the value is not an http url.
func (f *DBFlags) databaseDir() string {
	if len(f.dataDir) != 0 {
		return f.dataDir
	}
	return DataDirFromEnv()
}

// DataDirFromEnv returns GRIDBOT_DB value if it names a local directory.
func DataDirFromEnv() string {
	if v := os.Getenv("GRIDBOT_DB"); !isHTTPURL(v) {
		return v
	}
	return ""
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (f *DBFlags) closer(db kv.Database, closeFn func() error) func() {
	return func() {
		if len(f.backupAfter) != 0 {
			if err := kvutil.BackupDB(context.Background(), db, f.backupAfter); err != nil {
				slog.Warn("could not take db backup after it is used (ignored)", "file", f.backupAfter, "error", err)
			}
		}
		if closeFn != nil {
			if err := closeFn(); err != nil {
				slog.Warn("could not close the database (ignored)", "error", err)
			}
		}
	}
}

// GetDatabase opens the selected database. Caller must invoke the returned
// closer when done.
func (f *DBFlags) GetDatabase(ctx context.Context) (db kv.Database, closer func(), status error) {
	defer func() {
		if status == nil && len(f.backupBefore) != 0 {
			if err := kvutil.BackupDB(ctx, db, f.backupBefore); err != nil {
				closer()
				db, closer, status = nil, nil, fmt.Errorf("could not take a db backup before it is used: %w", err)
			}
		}
	}()

	if len(f.fromBackup) != 0 {
		fp, err := os.Open(f.fromBackup)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open file %q: %w", f.fromBackup, err)
		}
		defer fp.Close()

		mdb := kvmemdb.New()
		restore := func(ctx context.Context, rw kv.ReadWriter) error {
			_, err := kvutil.Import(ctx, bufio.NewReader(fp), rw)
			return err
		}
		if err := kv.WithReadWriter(ctx, mdb, restore); err != nil {
			return nil, nil, fmt.Errorf("could not restore in-memory db from backup: %w", err)
		}
		return mdb, f.closer(mdb, nil), nil
	}

	if dir := f.databaseDir(); len(dir) != 0 {
		bdb, err := badger.Open(badger.DefaultOptions(DatabaseDir(dir)).WithLogger(nil))
		if err != nil {
			return nil, nil, fmt.Errorf("could not open the database at %q: %w", dir, err)
		}
		db := kvbadger.New(bdb, IsGoodKey)
		return db, f.closer(db, bdb.Close), nil
	}

	addrURL := f.ClientFlags.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, f.dbURLPath)
	if v := os.Getenv("GRIDBOT_DB"); isHTTPURL(v) {
		u, err := url.Parse(v)
		if err != nil {
			return nil, nil, fmt.Errorf("could not parse GRIDBOT_DB url %q: %w", v, err)
		}
		addrURL = u
	}
	db = kvhttp.New(addrURL, f.ClientFlags.HttpClient())
	return db, f.closer(db, nil), nil
}
