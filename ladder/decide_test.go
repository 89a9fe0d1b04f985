// Copyright (c) 2025 BVK Chaitanya

package ladder

import (
	"log/slog"
	"math"
	"testing"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
)

func idleLevels(prices ...uint64) []*gobs.GridLevel {
	var levels []*gobs.GridLevel
	for _, p := range prices {
		levels = append(levels, &gobs.GridLevel{Price: p, Status: gobs.LevelIdle})
	}
	SortLevels(levels)
	return levels
}

func testParams() *Params {
	return &Params{
		LowerPrice:    90,
		UpperPrice:    110,
		AmountPerGrid: 10000,
		QuoteLotSize:  10,
		MaxOrders:     5,
	}
}

func TestDecideIdleLevels(t *testing.T) {
	levels := idleLevels(90, 95, 100, 105, 110)
	top := &TopOfBook{BestBid: 100, BestAsk: 102}

	placements := Decide(slog.Default(), levels, top, testParams())
	if len(placements) != 5 {
		t.Fatalf("want 5 placements, got %d", len(placements))
	}

	wantSides := map[uint64]serum.Side{110: serum.Ask, 105: serum.Ask, 100: serum.Bid, 95: serum.Bid, 90: serum.Bid}
	wantSizes := map[uint64]uint64{110: 9, 105: 9, 100: 10, 95: 10, 90: 11}
	for _, p := range placements {
		if p.Side != wantSides[p.Price] {
			t.Fatalf("price %d: want side %s, got %s", p.Price, wantSides[p.Price], p.Side)
		}
		if p.Size != wantSizes[p.Price] {
			t.Fatalf("price %d: want size %d, got %d", p.Price, wantSizes[p.Price], p.Size)
		}
	}
	for _, l := range levels {
		want := gobs.LevelAwaitingBuy
		if l.Price > 101 {
			want = gobs.LevelAwaitingSell
		}
		if l.Status != want {
			t.Fatalf("price %d: want status %s, got %s", l.Price, want, l.Status)
		}
		if l.Order == nil || l.Order.Owner != "" {
			t.Fatalf("price %d: want a placeholder order reference", l.Price)
		}
	}
	if !CheckLevels(levels) {
		t.Fatalf("level invariants are broken")
	}
}

func TestDecideBatchCap(t *testing.T) {
	levels := idleLevels(90, 95, 100, 105, 110)
	top := &TopOfBook{BestBid: 100, BestAsk: 102}
	params := testParams()
	params.MaxOrders = 2

	placements := Decide(slog.Default(), levels, top, params)
	if len(placements) != 2 {
		t.Fatalf("want 2 placements, got %d", len(placements))
	}
	if placements[0].Price != 110 || placements[1].Price != 105 {
		t.Fatalf("levels must be visited in descending price order")
	}
	if levels[2].Status != gobs.LevelIdle {
		t.Fatalf("levels beyond the cap must stay idle")
	}
}

func TestDecideZeroLots(t *testing.T) {
	levels := idleLevels(100, 105)
	top := &TopOfBook{BestBid: 100, BestAsk: 102}
	params := testParams()
	params.AmountPerGrid = 1000 // less than a lot at 105

	placements := Decide(slog.Default(), levels, top, params)
	if len(placements) != 1 || placements[0].Price != 100 {
		t.Fatalf("want a single buy at 100, got %d placements", len(placements))
	}
	if levels[0].Status != gobs.LevelAwaitingSell || levels[0].Order == nil {
		t.Fatalf("zero lot level must still advance")
	}
}

func TestDecideQuoteOverflow(t *testing.T) {
	levels := idleLevels(1)
	top := &TopOfBook{BestBid: 1, BestAsk: 1}
	params := &Params{
		LowerPrice:    1,
		UpperPrice:    1,
		AmountPerGrid: math.MaxUint64,
		QuoteLotSize:  1,
		MaxOrders:     5,
	}

	if v := Decide(slog.Default(), levels, top, params); len(v) != 0 {
		t.Fatalf("want no placements when the quote amount overflows, got %d", len(v))
	}
	if levels[0].Status != gobs.LevelIdle || levels[0].Order != nil {
		t.Fatalf("refused placement must leave the level idle, got %s", levels[0].Status)
	}
}

func TestDecideRange(t *testing.T) {
	params := testParams()
	for bid := uint64(60); bid <= 140; bid += 3 {
		for spread := uint64(0); spread <= 12; spread += 4 {
			top := &TopOfBook{BestBid: bid, BestAsk: bid + spread}
			mid2 := 2*bid + spread
			outside := mid2 < 2*params.LowerPrice || mid2 > 2*params.UpperPrice

			levels := idleLevels(90, 95, 100, 105, 110)
			placements := Decide(slog.Default(), levels, top, params)
			if outside && len(placements) != 0 {
				t.Fatalf("bid %d ask %d: want no placements outside the range", top.BestBid, top.BestAsk)
			}
			if !outside && len(placements) == 0 {
				t.Fatalf("bid %d ask %d: want placements inside the range", top.BestBid, top.BestAsk)
			}
		}
	}
}

func TestDecideNoTopOfBook(t *testing.T) {
	levels := idleLevels(90, 100, 110)
	if v := Decide(slog.Default(), levels, nil, testParams()); len(v) != 0 {
		t.Fatalf("want no placements without top of book")
	}
	if levels[0].Status != gobs.LevelIdle {
		t.Fatalf("levels must not change without top of book")
	}
}

func filled(price uint64, side string) *gobs.GridLevel {
	return &gobs.GridLevel{
		Price:  price,
		Status: gobs.LevelViolated,
		Order:  &gobs.OrderRef{Price: price, Size: 1, Side: side, ClientOrderID: price},
	}
}

func resting(price uint64, side string) *gobs.GridLevel {
	return &gobs.GridLevel{
		Price:  price,
		Status: awaiting(side),
		Order:  &gobs.OrderRef{Price: price, Size: 1, Side: side, ClientOrderID: price},
	}
}

func TestDecideRebalanceFilledSell(t *testing.T) {
	levels := []*gobs.GridLevel{
		resting(110, gobs.SideSell),
		filled(105, gobs.SideSell),
		filled(100, gobs.SideSell),
		resting(95, gobs.SideBuy),
		resting(90, gobs.SideBuy),
	}
	top := &TopOfBook{BestBid: 100, BestAsk: 102}

	placements := Decide(slog.Default(), levels, top, testParams())
	if len(placements) != 1 {
		t.Fatalf("want exactly one placement, got %d", len(placements))
	}
	if p := placements[0]; p.Side != serum.Bid || p.Price != 105 {
		t.Fatalf("want a buy at 105, got %s at %d", p.Side, p.Price)
	}
	if levels[1].Status != gobs.LevelAwaitingBuy {
		t.Fatalf("want level 105 awaiting buy, got %s", levels[1].Status)
	}
	if levels[2].Status != gobs.LevelViolated {
		t.Fatalf("want level 100 to stay violated, got %s", levels[2].Status)
	}
}

func TestDecideRebalanceFilledBuy(t *testing.T) {
	levels := []*gobs.GridLevel{
		resting(110, gobs.SideSell),
		filled(100, gobs.SideBuy),
		filled(90, gobs.SideBuy),
	}
	top := &TopOfBook{BestBid: 100, BestAsk: 102}

	placements := Decide(slog.Default(), levels, top, testParams())
	if len(placements) != 1 {
		t.Fatalf("want exactly one placement, got %d", len(placements))
	}
	if p := placements[0]; p.Side != serum.Ask || p.Price != 90 {
		t.Fatalf("want a sell at 90, got %s at %d", p.Side, p.Price)
	}
	if levels[2].Status != gobs.LevelAwaitingSell || levels[1].Status != gobs.LevelViolated {
		t.Fatalf("unexpected level statuses %s and %s", levels[1].Status, levels[2].Status)
	}
}

func TestDecideTopLevelSkip(t *testing.T) {
	levels := []*gobs.GridLevel{
		filled(110, gobs.SideSell),
		{Price: 105, Status: gobs.LevelIdle},
	}
	top := &TopOfBook{BestBid: 100, BestAsk: 102}
	params := testParams()
	params.MaxOrders = 1

	placements := Decide(slog.Default(), levels, top, params)
	if len(placements) != 1 || placements[0].Price != 105 {
		t.Fatalf("skipped top level must not consume the batch budget")
	}
	if levels[0].Status != gobs.LevelViolated {
		t.Fatalf("top level must stay violated")
	}
}
