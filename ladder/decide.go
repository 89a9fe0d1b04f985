// Copyright (c) 2025 BVK Chaitanya

package ladder

import (
	"log/slog"
	"math/big"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/shopspring/decimal"
)

// Params holds the account and market values needed to decide on orders.
type Params struct {
	LowerPrice uint64
	UpperPrice uint64

	// AmountPerGrid is the native quote amount to trade at each level.
	AmountPerGrid uint64

	// QuoteLotSize is the number of native quote units per quote lot.
	QuoteLotSize uint64

	MaxOrders int
}

// Placement is an order to place for a level.
type Placement struct {
	Side  serum.Side
	Price uint64
	Size  uint64

	// Ref is the placeholder order reference attached to the level.
	Ref *gobs.OrderRef
}

func udec(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// MidPrice returns the average of the best bid and the best ask.
func MidPrice(top *TopOfBook) decimal.Decimal {
	sum := udec(top.BestBid).Add(udec(top.BestAsk))
	return sum.Div(decimal.NewFromInt(2))
}

// OrderSize returns the number of base lots that AmountPerGrid buys at the
// price, rounded down.
func OrderSize(p *Params, price uint64) uint64 {
	if price == 0 || p.QuoteLotSize == 0 {
		return 0
	}
	lot := udec(price).Mul(udec(p.QuoteLotSize))
	size, _ := udec(p.AmountPerGrid).QuoRem(lot, 0)
	return size.BigInt().Uint64()
}

// InRange returns true if the mid price is within the configured bounds.
func InRange(p *Params, top *TopOfBook) bool {
	mid := MidPrice(top)
	return !mid.LessThan(udec(p.LowerPrice)) && !mid.GreaterThan(udec(p.UpperPrice))
}

// Decide picks the orders to place for idle and violated levels and marks
// the affected levels as awaiting. Levels must be sorted in descending price
// order. Returns nil when the top of book is unknown or the mid price is out
// of range.
func Decide(log *slog.Logger, levels []*gobs.GridLevel, top *TopOfBook, p *Params) []*Placement {
	if top == nil {
		log.Info("top of book is unknown; not placing orders")
		return nil
	}
	mid := MidPrice(top)
	if !InRange(p, top) {
		log.Info("mid price is out of range; not placing orders", "mid", mid, "lower", p.LowerPrice, "upper", p.UpperPrice)
		return nil
	}

	var placements []*Placement
	place := func(l *gobs.GridLevel, side serum.Side) {
		size := OrderSize(p, l.Price)
		if _, ok := serum.MaxQuoteQuantity(l.Price, size, p.QuoteLotSize); !ok {
			log.Error("order quote amount does not fit in 64 bits; refusing the placement", "side", side, "price", l.Price, "size", size)
			return
		}
		ref := &gobs.OrderRef{Price: l.Price, Size: size, Side: sideName(side)}
		l.Status = awaiting(ref.Side)
		l.Order = ref
		if size == 0 {
			log.Warn("order size rounds to zero lots; not placing the order", "side", ref.Side, "price", l.Price, "amount", p.AmountPerGrid)
			return
		}
		placements = append(placements, &Placement{Side: side, Price: l.Price, Size: size, Ref: ref})
	}

	used := 0
	for i, l := range levels {
		if used >= p.MaxOrders {
			break
		}

		switch l.Status {
		case gobs.LevelIdle:
			if mid.GreaterThan(udec(l.Price)) {
				place(l, serum.Bid)
			} else {
				place(l, serum.Ask)
			}
			used++

		case gobs.LevelViolated:
			if l.Order == nil {
				continue
			}
			// A filled sell is replaced by a buy one level above and a filled
			// buy by a sell one level below.
			next, side := i-1, serum.Bid
			if l.Order.Side == gobs.SideBuy {
				next, side = i+1, serum.Ask
			}
			if next < 0 || next >= len(levels) {
				log.Info("no adjacent level to rebalance filled order", "price", l.Price, "side", l.Order.Side)
				continue
			}
			if adj := levels[next]; adj.Status != gobs.LevelViolated {
				log.Info("adjacent level is not violated; skipping rebalance", "price", l.Price, "adjacent", adj.Price, "status", adj.Status)
				continue
			}
			place(levels[next], side)
			used++
		}
	}
	return placements
}
