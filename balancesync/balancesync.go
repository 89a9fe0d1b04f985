// Copyright (c) 2025 BVK Chaitanya

// Package balancesync periodically records the account balances. Balance of
// each token is the wallet amount plus the free amount held in the open
// orders account.
package balancesync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/gridbot/ctxutil"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/worker"
)

type Options struct {
	// Interval is the wait time before every sync.
	Interval time.Duration
}

func (v *Options) setDefaults() {
	if v.Interval == 0 {
		v.Interval = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.Interval < 0 {
		return fmt.Errorf("sync interval cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

type Strategy struct {
	opts Options
}

var _ worker.Strategy = &Strategy{}

func New(opts *Options) (*Strategy, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	return &Strategy{opts: *opts}, nil
}

func (s *Strategy) Role() worker.Role {
	return worker.RoleSync
}

func walletAmount(ctx context.Context, rt *worker.Runtime, wallet solana.PublicKey) (uint64, error) {
	data, err := worker.FetchAccount(ctx, rt.Chain, wallet)
	if err != nil {
		return 0, err
	}
	ta, err := serum.DecodeTokenAccount(data)
	if err != nil {
		return 0, fmt.Errorf("could not decode wallet %s: %w", wallet, err)
	}
	return ta.Amount, nil
}

// Setup waits for the sync interval and saves the latest balances.
func (s *Strategy) Setup(ctx context.Context, rt *worker.Runtime) error {
	if err := ctxutil.Sleep(ctx, s.opts.Interval); err != nil {
		return err
	}

	cfg := rt.Config
	rec, err := rt.Store.Load(ctx, cfg.Market().String(), cfg.Owner())
	if err != nil {
		return err
	}

	base, err := walletAmount(ctx, rt, cfg.BaseWallet())
	if err != nil {
		return err
	}
	quote, err := walletAmount(ctx, rt, cfg.QuoteWallet())
	if err != nil {
		return err
	}
	data, err := worker.FetchAccount(ctx, rt.Chain, cfg.OpenOrders())
	if err != nil {
		return err
	}
	oo, err := serum.DecodeOpenOrders(data)
	if err != nil {
		return fmt.Errorf("could not decode open orders account: %w", err)
	}

	if err := Apply(rec, base, quote, oo); err != nil {
		return err
	}
	if err := rt.Store.Save(ctx, rec); err != nil {
		return fmt.Errorf("could not persist balances: %w", err)
	}

	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("synced balances", "base", rec.BaseBalance, "quote", rec.QuoteBalance)
	return nil
}

// Apply sets the record balances to the wallet amounts plus the free open
// orders amounts.
func Apply(rec *gobs.TradingAccount, baseWallet, quoteWallet uint64, oo *serum.OpenOrders) error {
	base, quote := baseWallet+oo.BaseFree, quoteWallet+oo.QuoteFree
	if base < baseWallet || quote < quoteWallet {
		return fmt.Errorf("balance overflows: %w", os.ErrInvalid)
	}
	rec.BaseBalance, rec.QuoteBalance = base, quote
	return nil
}

func (s *Strategy) Decide(ctx context.Context, rt *worker.Runtime) ([]solana.Instruction, error) {
	return nil, nil
}

func (s *Strategy) Settle(ctx context.Context, rt *worker.Runtime, sig *solana.Signature) error {
	return nil
}
