// Copyright (c) 2025 BVK Chaitanya

// Package decommission cancels the resting orders of accounts that are
// decommissioned or stopped.
package decommission

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/worker"
)

type Options struct {
	// MaxOrdersPerCycle limits the number of known orders cancelled in a
	// single cycle. Orders without a level reference do not count.
	MaxOrdersPerCycle int
}

func (v *Options) setDefaults() {
	if v.MaxOrdersPerCycle == 0 {
		v.MaxOrdersPerCycle = 4
	}
}

func (v *Options) Check() error {
	if v.MaxOrdersPerCycle < 0 {
		return fmt.Errorf("max orders per cycle cannot be negative: %w", os.ErrInvalid)
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
	return worker.RoleCleanup
}

// IsTerminal returns true for account statuses that must not trade.
func IsTerminal(status string) bool {
	return status == gobs.StatusDecommissioned || status == gobs.StatusStopped
}

func (s *Strategy) Setup(ctx context.Context, rt *worker.Runtime) error {
	return nil
}

func (s *Strategy) Decide(ctx context.Context, rt *worker.Runtime) ([]solana.Instruction, error) {
	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}

	cfg := rt.Config
	rec, err := rt.Store.Load(ctx, cfg.Market().String(), cfg.Owner())
	if err != nil {
		return nil, err
	}
	if !IsTerminal(rec.Status) {
		log.Warn("account is not decommissioned or stopped; not cancelling orders", "status", rec.Status)
		return nil, nil
	}

	data, err := worker.FetchAccount(ctx, rt.Chain, cfg.OpenOrders())
	if err != nil {
		return nil, err
	}
	oo, err := serum.DecodeOpenOrders(data)
	if err != nil {
		return nil, fmt.Errorf("could not decode open orders account: %w", err)
	}

	refs := make(map[string]*gobs.OrderRef)
	for _, l := range rec.Levels {
		if l.Order != nil && l.Order.OrderID != "" {
			refs[l.Order.OrderID] = l.Order
		}
	}

	type known struct {
		order *serum.SlotOrder
		ref   *gobs.OrderRef
	}
	var matched []known
	for _, o := range oo.Orders() {
		ref, ok := refs[o.OrderID.String()]
		if !ok {
			log.Info("open order does not belong to any level; ignored", "order-id", o.OrderID, "slot", o.Slot)
			continue
		}
		matched = append(matched, known{order: o, ref: ref})
	}
	if len(matched) > s.opts.MaxOrdersPerCycle {
		matched = matched[:s.opts.MaxOrdersPerCycle]
	}
	if len(matched) == 0 {
		return nil, nil
	}

	accounts := cfg.OrderAccounts()
	match, err := serum.MatchOrders(cfg.DexProgram(), rt.Market, cfg.BaseWallet(), cfg.QuoteWallet(), serum.DefaultMatchLimit)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	for _, m := range matched {
		side := serum.Bid
		if m.ref.Side == gobs.SideSell {
			side = serum.Ask
		}
		cancel, err := serum.CancelOrderV2(cfg.DexProgram(), rt.Market, accounts, side, m.order.OrderID)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, match, cancel, match)
		log.Info("cancelling order", "side", side, "price", m.ref.Price, "order-id", m.order.OrderID)
	}
	return instructions, nil
}

func (s *Strategy) Settle(ctx context.Context, rt *worker.Runtime, sig *solana.Signature) error {
	return nil
}
