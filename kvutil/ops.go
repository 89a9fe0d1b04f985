// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"bufio"
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvkgo/kv"
)

// Export writes every key and value visible to the reader as a stream of
// gob encoded gobs.KeyValue items. Returns the number of items written.
func Export(ctx context.Context, r kv.Reader, w io.Writer) (int, error) {
	it, err := r.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not create scanning iterator: %w", err)
	}
	defer kv.Close(it)

	n := 0
	encoder := gob.NewEncoder(w)
	for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
		value, err := io.ReadAll(v)
		if err != nil {
			return n, fmt.Errorf("could not read value at key %q: %w", k, err)
		}
		if err := encoder.Encode(&gobs.KeyValue{Key: k, Value: value}); err != nil {
			return n, fmt.Errorf("could not encode item at key %q: %w", k, err)
		}
		n++
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("iterator fetch has failed: %w", err)
	}
	return n, nil
}

// Import reads items written by Export and sets them in the database.
// Existing keys that are not in the stream are left unchanged.
func Import(ctx context.Context, r io.Reader, rw kv.ReadWriter) (int, error) {
	decoder := gob.NewDecoder(r)

	n := 0
	for {
		var item gobs.KeyValue
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("could not decode item %d from backup: %w", n, err)
		}
		if err := rw.Set(ctx, item.Key, bytes.NewReader(item.Value)); err != nil {
			return n, fmt.Errorf("could not restore at key %q: %w", item.Key, err)
		}
		n++
	}
}

// DeleteAll removes every key from the database. Returns the number of keys
// removed.
func DeleteAll(ctx context.Context, rw kv.ReadWriter) (int, error) {
	it, err := rw.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not create scanning iterator: %w", err)
	}
	defer kv.Close(it)

	n := 0
	for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
		if err := rw.Delete(ctx, k); err != nil {
			return n, fmt.Errorf("could not delete key %q: %w", k, err)
		}
		n++
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("iterator fetch has failed: %w", err)
	}
	return n, nil
}

// BackupDB exports a database snapshot into a file. File is replaced
// atomically, so an existing backup survives a failed attempt.
func BackupDB(ctx context.Context, db kv.Database, file string) (status error) {
	abspath, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("could not determine absolute path: %w", err)
	}

	fp, err := os.CreateTemp(filepath.Dir(abspath), ".backup*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		fp.Close()
		if status != nil {
			os.Remove(fp.Name())
		}
	}()

	bw := bufio.NewWriter(fp)

	var n int
	save := func(ctx context.Context, r kv.Reader) (err error) {
		n, err = Export(ctx, r, bw)
		return err
	}
	if err := kv.WithReader(ctx, db, save); err != nil {
		return fmt.Errorf("could not export db content: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush the bufio writer: %w", err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("could not sync the output file: %w", err)
	}
	if err := os.Rename(fp.Name(), abspath); err != nil {
		return fmt.Errorf("could not rename temp file to %q: %w", abspath, err)
	}
	slog.Info("saved database backup", "file", abspath, "items", n)
	return nil
}
