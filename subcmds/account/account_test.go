// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/solana"
	"github.com/visvasity/cli"
)

func writeRecord(t *testing.T, dir string) (string, *gobs.TradingAccount) {
	signer, err := solana.NewKeypairFromSeed(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatal(err)
	}
	key := func(b byte) string {
		return solana.PublicKey{b}.String()
	}
	rec := &gobs.TradingAccount{
		MarketAddress: key(0xc1),
		TraderKeypair: signer.Base58(),
		BaseWallet:    key(0xc2),
		QuoteWallet:   key(0xc3),
		OpenOrders:    []string{key(0xc4)},
		Owner:         "alice",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "account.json")
	if err := os.WriteFile(file, data, 0600); err != nil {
		t.Fatal(err)
	}
	return file, rec
}

func TestImportAndSetStatus(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRIDBOT_DB", filepath.Join(dir, "data"))
	file, rec := writeRecord(t, dir)

	var sb strings.Builder
	ctx := cli.WithStdout(context.Background(), &sb)

	imp := new(Import)
	if err := imp.run(ctx, []string{file}); err != nil {
		t.Fatal(err)
	}
	if want := account.Key(rec.MarketAddress, rec.Owner); strings.TrimSpace(sb.String()) != want {
		t.Fatalf("want %q, got %q", want, sb.String())
	}
	if err := imp.run(ctx, []string{file}); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want duplicate import failure, got %v", err)
	}

	ss := new(SetStatus)
	if err := ss.run(ctx, []string{rec.MarketAddress, rec.Owner, "Paused"}); err == nil {
		t.Fatalf("invalid status must be rejected")
	}
	sb.Reset()
	if err := ss.run(ctx, []string{rec.MarketAddress, rec.Owner, gobs.StatusDecommissioned}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(sb.String()); got != "Registered -> Decommissioned" {
		t.Fatalf("unexpected output %q", got)
	}

	sb.Reset()
	get := new(Get)
	if err := get.run(ctx, []string{rec.MarketAddress, rec.Owner}); err != nil {
		t.Fatal(err)
	}
	var got gobs.TradingAccount
	if err := json.Unmarshal([]byte(sb.String()), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != gobs.StatusDecommissioned || got.TraderKeypair != "" || got.Revision != 2 {
		t.Fatalf("unexpected record %+v", got)
	}

	sb.Reset()
	list := &List{status: gobs.StatusDecommissioned}
	if err := list.run(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), rec.MarketAddress) {
		t.Fatalf("account is not listed: %q", sb.String())
	}
}
