// Copyright (c) 2025 BVK Chaitanya

/*
Package ladder implements the grid trading strategy.

Each account trades a ladder of price levels between its lower and upper
price bounds. Every cycle the level statuses are reconciled against the
account's resting orders in the book. Idle levels get a buy order when the
mid price is above the level and a sell order otherwise. A level whose order
disappeared from the book is marked violated and its neighbor is rebalanced:
a filled sell is followed by a buy one level up and a filled buy by a sell
one level down. Orders are placed only when the mid price is within the
account's price range.
*/
package ladder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/idgen"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/serum/slab"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/worker"
)

type Strategy struct {
	opts Options

	// rec and top are refreshed by every Setup.
	rec *gobs.TradingAccount
	top *TopOfBook
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
	return worker.RoleTrader
}

// Record returns the account record as of the last cycle.
func (s *Strategy) Record() *gobs.TradingAccount {
	return s.rec
}

// TopOfBook returns the top of book snapshot taken by the last Setup.
func (s *Strategy) TopOfBook() *TopOfBook {
	return s.top
}

func readBook(ctx context.Context, rt *worker.Runtime, side serum.Side) (*slab.Slab, error) {
	addr := rt.Market.Bids
	if side == serum.Ask {
		addr = rt.Market.Asks
	}
	data, err := worker.FetchAccount(ctx, rt.Chain, addr)
	if err != nil {
		return nil, err
	}
	book, err := slab.Decode(side, data)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s side of the book: %w", side, err)
	}
	return book, nil
}

func (s *Strategy) Setup(ctx context.Context, rt *worker.Runtime) error {
	s.rec, s.top = nil, nil

	cfg := rt.Config
	rec, err := rt.Store.Load(ctx, cfg.Market().String(), cfg.Owner())
	if err != nil {
		return err
	}

	bids, err := readBook(ctx, rt, serum.Bid)
	if err != nil {
		return err
	}
	asks, err := readBook(ctx, rt, serum.Ask)
	if err != nil {
		return err
	}

	var live []*slab.Order
	for o := range bids.OrdersByOwner(cfg.OpenOrders()) {
		live = append(live, o)
	}
	for o := range asks.OrdersByOwner(cfg.OpenOrders()) {
		live = append(live, o)
	}

	Reconcile(rec.Levels, live)
	s.rec = rec
	s.top = NewTopOfBook(bids, asks)
	return nil
}

func (s *Strategy) Decide(ctx context.Context, rt *worker.Runtime) ([]solana.Instruction, error) {
	if s.rec == nil {
		return nil, fmt.Errorf("account record is not loaded: %w", os.ErrInvalid)
	}
	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}

	params := &Params{
		LowerPrice:    s.rec.LowerPrice,
		UpperPrice:    s.rec.UpperPrice,
		AmountPerGrid: s.rec.AmountPerGrid,
		QuoteLotSize:  rt.Market.QuoteLotSize,
		MaxOrders:     s.opts.MaxOrdersPerCycle,
	}
	placements := Decide(log, s.rec.Levels, s.top, params)
	if len(placements) == 0 {
		return nil, nil
	}

	cfg := rt.Config
	ids := idgen.New(fmt.Sprintf("%s@%d", cfg.Key(), s.rec.Revision), 0)
	accounts := cfg.OrderAccounts()

	var instructions []solana.Instruction
	for _, p := range placements {
		maxQuote, ok := rt.Market.MaxQuoteQuantity(p.Price, p.Size)
		if !ok {
			return nil, fmt.Errorf("quote amount for %d lots at %d overflows: %w", p.Size, p.Price, os.ErrInvalid)
		}
		p.Ref.ClientOrderID = ids.NextClientID()
		order := &serum.NewOrder{
			Side:             p.Side,
			LimitPrice:       p.Price,
			MaxBaseQuantity:  p.Size,
			MaxQuoteQuantity: maxQuote,
			OrderType:        serum.Limit,
			SelfTrade:        serum.DecrementTake,
			ClientOrderID:    p.Ref.ClientOrderID,
			Limit:            serum.DefaultMatchLimit,
		}
		ins, err := serum.NewOrderV3(cfg.DexProgram(), rt.Market, accounts, order)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ins)
		worker.OrdersTotal.WithLabelValues(p.Side.String()).Inc()
		log.Info("placing order", "side", p.Side, "price", p.Price, "size", p.Size, "client-id", p.Ref.ClientOrderID)
	}
	return instructions, nil
}

// Settle saves the account record with the updated levels.
func (s *Strategy) Settle(ctx context.Context, rt *worker.Runtime, sig *solana.Signature) error {
	if s.rec == nil {
		return nil
	}
	if sig != nil {
		s.rec.TotalTxs++
	}
	if err := rt.Store.Save(ctx, s.rec); err != nil {
		return fmt.Errorf("could not persist account record: %w", err)
	}
	return nil
}
