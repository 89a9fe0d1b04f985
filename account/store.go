// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/kvutil"
	"github.com/bvkgo/kv"
)

const KeyPrefix = "/accounts"

// ErrConflict is returned when a record was modified by another writer after
// it was loaded.
var ErrConflict = errors.New("account record was updated concurrently")

func Key(market, owner string) string {
	return path.Join(KeyPrefix, market, owner)
}

// Store persists one record per (market, owner) pair.
type Store struct {
	db kv.Database
}

func NewStore(db kv.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Database() kv.Database {
	return s.db
}

// Load reads the record by exact market and owner match.
func (s *Store) Load(ctx context.Context, market, owner string) (*gobs.TradingAccount, error) {
	rec, err := kvutil.GetDB[gobs.TradingAccount](ctx, s.db, Key(market, owner))
	if err != nil {
		return nil, fmt.Errorf("could not load account %s/%s: %w", market, owner, err)
	}
	return rec, nil
}

// Save writes the full record. Records are versioned: a save fails with
// ErrConflict when the stored revision differs from the input's revision,
// which means another writer saved in between. Revision of the input is
// incremented on success.
func (s *Store) Save(ctx context.Context, rec *gobs.TradingAccount) error {
	key := Key(rec.MarketAddress, rec.Owner)
	next := *rec
	next.Revision++

	save := func(ctx context.Context, rw kv.ReadWriter) error {
		old, err := kvutil.Get[gobs.TradingAccount](ctx, rw, key)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if rec.Revision != 0 {
				return fmt.Errorf("record at %q was deleted: %w", key, ErrConflict)
			}
		} else if old.Revision != rec.Revision {
			return fmt.Errorf("record at %q has revision %d, want %d: %w", key, old.Revision, rec.Revision, ErrConflict)
		}
		return kvutil.Set(ctx, rw, key, &next)
	}
	if err := kv.WithReadWriter(ctx, s.db, save); err != nil {
		return fmt.Errorf("could not save account %s/%s: %w", rec.MarketAddress, rec.Owner, err)
	}
	rec.Revision = next.Revision
	return nil
}

// Create adds a new record. Returns os.ErrExist if a record already exists
// for the market and owner.
func (s *Store) Create(ctx context.Context, rec *gobs.TradingAccount) error {
	key := Key(rec.MarketAddress, rec.Owner)
	next := *rec
	next.Revision = 1

	create := func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Insert(ctx, rw, key, &next)
	}
	if err := kv.WithReadWriter(ctx, s.db, create); err != nil {
		return fmt.Errorf("could not create account %s/%s: %w", rec.MarketAddress, rec.Owner, err)
	}
	rec.Revision = next.Revision
	return nil
}

// Update applies a read-modify-write to a record in a single transaction.
func (s *Store) Update(ctx context.Context, market, owner string, fn func(*gobs.TradingAccount) error) error {
	update := func(rec *gobs.TradingAccount) error {
		if err := fn(rec); err != nil {
			return err
		}
		rec.Revision++
		return nil
	}
	if err := kvutil.ModifyDB(ctx, s.db, Key(market, owner), update); err != nil {
		return fmt.Errorf("could not update account %s/%s: %w", market, owner, err)
	}
	return nil
}

// List returns all records in key order.
func (s *Store) List(ctx context.Context) ([]*gobs.TradingAccount, error) {
	recs, err := kvutil.ListDB[gobs.TradingAccount](ctx, s.db, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list accounts: %w", err)
	}
	return recs, nil
}
