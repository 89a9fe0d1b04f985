// Copyright (c) 2025 BVK Chaitanya

package ladder

import (
	"cmp"
	"slices"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/serum/slab"
)

// TopOfBook is the best bid and the best ask prices observed in a cycle.
type TopOfBook struct {
	BestBid uint64
	BestAsk uint64
}

// NewTopOfBook returns the top of the book. Returns nil if either side of
// the book is empty.
func NewTopOfBook(bids, asks *slab.Slab) *TopOfBook {
	bid, ok := bids.Best()
	if !ok {
		return nil
	}
	ask, ok := asks.Best()
	if !ok {
		return nil
	}
	return &TopOfBook{BestBid: bid.Price, BestAsk: ask.Price}
}

func sideName(s serum.Side) string {
	if s == serum.Bid {
		return gobs.SideBuy
	}
	return gobs.SideSell
}

func awaiting(side string) string {
	if side == gobs.SideBuy {
		return gobs.LevelAwaitingBuy
	}
	return gobs.LevelAwaitingSell
}

// Reconcile updates the level statuses from the account's live orders and
// sorts the levels in descending price order.
func Reconcile(levels []*gobs.GridLevel, live []*slab.Order) {
	prices := make(map[uint64]*slab.Order, len(live))
	for _, o := range live {
		prices[o.Price] = o
	}

	for _, l := range levels {
		if l.Status != gobs.LevelAwaitingBuy && l.Status != gobs.LevelAwaitingSell {
			continue
		}
		if _, ok := prices[l.Price]; ok {
			continue
		}
		if l.Order != nil {
			l.Status = gobs.LevelViolated
		} else {
			l.Status = gobs.LevelIdle
		}
	}

	for _, l := range levels {
		switch {
		case l.Order == nil:
			l.Status = gobs.LevelIdle
		case l.Status == gobs.LevelIdle:
			l.Order = nil
		case l.Status != gobs.LevelViolated && l.Status != gobs.LevelAwaitingBuy && l.Status != gobs.LevelAwaitingSell:
			l.Status = gobs.LevelViolated
		}
	}

	for _, l := range levels {
		o, ok := prices[l.Price]
		if !ok {
			continue
		}
		side := sideName(o.Side)
		l.Status = awaiting(side)
		l.Order = &gobs.OrderRef{
			Price:         o.Price,
			Size:          o.Quantity,
			Side:          side,
			ClientOrderID: o.ClientID,
			Owner:         o.Owner.String(),
			OrderID:       o.OrderID.String(),
		}
	}

	SortLevels(levels)
}

// SortLevels sorts the levels in descending price order.
func SortLevels(levels []*gobs.GridLevel) {
	slices.SortStableFunc(levels, func(a, b *gobs.GridLevel) int {
		return cmp.Compare(b.Price, a.Price)
	})
}

// CheckLevels returns false if a level's status disagrees with its order
// reference.
func CheckLevels(levels []*gobs.GridLevel) bool {
	for _, l := range levels {
		switch l.Status {
		case gobs.LevelIdle:
			if l.Order != nil {
				return false
			}
		case gobs.LevelAwaitingBuy, gobs.LevelAwaitingSell, gobs.LevelViolated:
			if l.Order == nil {
				return false
			}
		default:
			return false
		}
	}
	return true
}
