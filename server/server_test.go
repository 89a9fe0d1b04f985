// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/worker"
	"github.com/bvk/gridbot/worker/workertest"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestServer(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()
	store := account.NewStore(db)

	active := workertest.Record(t)
	if err := store.Create(ctx, active); err != nil {
		t.Fatal(err)
	}
	retired := workertest.Record(t)
	retired.Owner = "retired"
	retired.Status = gobs.StatusDecommissioned
	if err := store.Create(ctx, retired); err != nil {
		t.Fatal(err)
	}
	broken := workertest.Record(t)
	broken.Owner = "broken"
	broken.TraderKeypair = "not-a-key"
	if err := store.Create(ctx, broken); err != nil {
		t.Fatal(err)
	}

	logDir := t.TempDir()
	chain := workertest.NewChain()
	m := workertest.Market()
	opts := &Options{
		LogDir: logDir,
		Worker: worker.Options{ErrorBackoff: time.Hour},
		NewChain: func(string) (worker.Chain, error) {
			return chain, nil
		},
	}
	chain.SetAccount(m.Address, serum.DexProgramID, m.Encode())

	s, err := New(db, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	roles := make(map[worker.Role]int)
	for _, w := range s.Workers() {
		roles[w.Role]++
	}
	if roles[worker.RoleTrader] != 1 || roles[worker.RoleSync] != 1 || roles[worker.RoleCleanup] != 1 {
		t.Fatalf("unexpected workers %v", roles)
	}

	// The trader cannot read the book and logs an error.
	errorLog := filepath.Join(logDir, worker.RoleTrader.String(), "error.log")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(errorLog); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("trader error log %q is not created", errorLog)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
