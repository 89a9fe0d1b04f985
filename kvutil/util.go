// Copyright (c) 2025 BVK Chaitanya

// Package kvutil keeps gob encoded records in a kv.Database. Records of a
// kind live under a common directory key so that they can be listed in key
// order.
package kvutil

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/bvkgo/kv"
)

func decode[T any](key string, r io.Reader) (*T, error) {
	v := new(T)
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return nil, fmt.Errorf("could not decode record at %q: %w", key, err)
	}
	return v, nil
}

// Get reads the record at key. Missing keys are reported with os.ErrNotExist.
func Get[T any](ctx context.Context, g kv.Getter, key string) (*T, error) {
	r, err := g.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", key, err)
	}
	return decode[T](key, r)
}

func Set[T any](ctx context.Context, s kv.Setter, key string, v *T) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("could not encode record for %q: %w", key, err)
	}
	return s.Set(ctx, key, &buf)
}

// Insert writes the record only when the key is unused. Returns os.ErrExist
// otherwise.
func Insert[T any](ctx context.Context, rw kv.ReadWriter, key string, v *T) error {
	if _, err := rw.Get(ctx, key); err == nil {
		return fmt.Errorf("record at %q: %w", key, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return Set(ctx, rw, key, v)
}

// Modify loads the record at key, passes it to fn and writes it back. Nothing
// is written if fn fails.
func Modify[T any](ctx context.Context, rw kv.ReadWriter, key string, fn func(*T) error) error {
	v, err := Get[T](ctx, rw, key)
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	return Set(ctx, rw, key, v)
}

func GetDB[T any](ctx context.Context, db kv.Database, key string) (v *T, err error) {
	err = kv.WithReader(ctx, db, func(ctx context.Context, r kv.Reader) error {
		v, err = Get[T](ctx, r, key)
		return err
	})
	return v, err
}

func ModifyDB[T any](ctx context.Context, db kv.Database, key string, fn func(*T) error) error {
	return kv.WithReadWriter(ctx, db, func(ctx context.Context, rw kv.ReadWriter) error {
		return Modify(ctx, rw, key, fn)
	})
}

// Walk calls fn for every record under dir in key order. Walk stops at the
// first error from fn.
func Walk[T any](ctx context.Context, r kv.Reader, dir string, fn func(key string, v *T) error) error {
	begin, end := DirRange(dir)
	it, err := r.Ascend(ctx, begin, end)
	if err != nil {
		return fmt.Errorf("could not scan %q: %w", dir, err)
	}
	defer kv.Close(it)

	for k, rv, err := it.Fetch(ctx, false); err == nil; k, rv, err = it.Fetch(ctx, true) {
		v, err := decode[T](k, rv)
		if err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not complete scan of %q: %w", dir, err)
	}
	return nil
}

// ListDB returns all records under dir in key order.
func ListDB[T any](ctx context.Context, db kv.Database, dir string) ([]*T, error) {
	var vs []*T
	collect := func(_ string, v *T) error {
		vs = append(vs, v)
		return nil
	}
	err := kv.WithReader(ctx, db, func(ctx context.Context, r kv.Reader) error {
		vs = vs[:0]
		return Walk(ctx, r, dir, collect)
	})
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// DirRange returns the key range holding the children of dir. Root directory
// yields an unbounded range.
func DirRange(dir string) (begin, end string) {
	dir = path.Clean(dir)
	if dir == "/" {
		return "", ""
	}
	return dir + "/", dir + "0"
}
