// Copyright (c) 2025 BVK Chaitanya

package kvutil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
)

type item struct {
	Name  string
	Count int
}

func TestDirRange(t *testing.T) {
	if b, e := DirRange("/accounts/"); b != "/accounts/" || e != "/accounts0" {
		t.Fatalf("unexpected range %q-%q", b, e)
	}
	if b, e := DirRange("/"); b != "" || e != "" {
		t.Fatalf("root range must be unbounded, got %q-%q", b, e)
	}
}

func TestAscendAndExport(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	if _, err := GetDB[item](ctx, db, "/a/x"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}

	fill := func(ctx context.Context, rw kv.ReadWriter) error {
		for i, k := range []string{"/a/x", "/a/y", "/b/z"} {
			if err := Set(ctx, rw, k, &item{Name: k, Count: i}); err != nil {
				return err
			}
		}
		return nil
	}
	if err := kv.WithReadWriter(ctx, db, fill); err != nil {
		t.Fatal(err)
	}

	var keys []string
	collect := func(k string, v *item) error {
		if v.Name != k {
			t.Fatalf("key %q has value %+v", k, v)
		}
		keys = append(keys, k)
		return nil
	}
	walk := func(ctx context.Context, r kv.Reader) error {
		return Walk(ctx, r, "/a", collect)
	}
	if err := kv.WithReader(ctx, db, walk); err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "/a/x" || keys[1] != "/a/y" {
		t.Fatalf("unexpected keys %v", keys)
	}
	items, err := ListDB[item](ctx, db, "/b")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "/b/z" {
		t.Fatalf("unexpected items %+v", items)
	}

	var buf bytes.Buffer
	export := func(ctx context.Context, r kv.Reader) error {
		n, err := Export(ctx, r, &buf)
		if err == nil && n != 3 {
			t.Fatalf("want 3 exported items, got %d", n)
		}
		return err
	}
	if err := kv.WithReader(ctx, db, export); err != nil {
		t.Fatal(err)
	}

	other := kvmemdb.New()
	replace := func(ctx context.Context, rw kv.ReadWriter) error {
		if err := Set(ctx, rw, "/stale", &item{}); err != nil {
			return err
		}
		if n, err := DeleteAll(ctx, rw); err != nil || n != 1 {
			t.Fatalf("want one deleted key, got %d (%v)", n, err)
		}
		_, err := Import(ctx, &buf, rw)
		return err
	}
	if err := kv.WithReadWriter(ctx, other, replace); err != nil {
		t.Fatal(err)
	}

	if _, err := GetDB[item](ctx, other, "/stale"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale key must be deleted, got %v", err)
	}
	v, err := GetDB[item](ctx, other, "/b/z")
	if err != nil {
		t.Fatal(err)
	}
	if v.Count != 2 {
		t.Fatalf("want count 2, got %d", v.Count)
	}
}

func TestInsertAndModify(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	insert := func(ctx context.Context, rw kv.ReadWriter) error {
		return Insert(ctx, rw, "/c/x", &item{Name: "x", Count: 1})
	}
	if err := kv.WithReadWriter(ctx, db, insert); err != nil {
		t.Fatal(err)
	}
	if err := kv.WithReadWriter(ctx, db, insert); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}

	incr := func(v *item) error {
		v.Count++
		return nil
	}
	if err := ModifyDB(ctx, db, "/c/x", incr); err != nil {
		t.Fatal(err)
	}
	if err := ModifyDB(ctx, db, "/c/missing", incr); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}

	failed := errors.New("failed")
	fail := func(v *item) error {
		v.Count = 100
		return failed
	}
	if err := ModifyDB(ctx, db, "/c/x", fail); !errors.Is(err, failed) {
		t.Fatalf("want callback error, got %v", err)
	}

	v, err := GetDB[item](ctx, db, "/c/x")
	if err != nil {
		t.Fatal(err)
	}
	if v.Count != 2 {
		t.Fatalf("want count 2, got %d", v.Count)
	}
}
