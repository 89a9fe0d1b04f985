// Copyright (c) 2025 BVK Chaitanya

package decommission

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/worker"
	"github.com/bvk/gridbot/worker/workertest"
)

func testRuntime(t *testing.T, status string, orders ...*serum.SlotOrder) *worker.Runtime {
	rec := workertest.Record(t)
	rec.Status = status
	for _, o := range orders {
		side := gobs.SideBuy
		if o.Side == serum.Ask {
			side = gobs.SideSell
		}
		rec.Levels = append(rec.Levels, &gobs.GridLevel{
			Price:  o.Price(),
			Status: gobs.LevelAwaitingBuy,
			Order:  &gobs.OrderRef{Price: o.Price(), Side: side, OrderID: o.OrderID.String()},
		})
	}
	chain := workertest.NewChain()
	rt := workertest.NewRuntime(t, chain, rec)
	chain.SetAccount(workertest.OpenOrders, rt.Config.DexProgram(), workertest.OpenOrdersData(0, 0, orders...))
	return rt
}

func slotOrders(n int) []*serum.SlotOrder {
	var orders []*serum.SlotOrder
	for i := 0; i < n; i++ {
		side := serum.Bid
		if i%2 == 1 {
			side = serum.Ask
		}
		orders = append(orders, &serum.SlotOrder{
			Slot:     i * 3,
			Side:     side,
			OrderID:  serum.OrderID{Hi: uint64(90 + 5*i), Lo: uint64(i + 1)},
			ClientID: uint64(i + 1),
		})
	}
	return orders
}

func TestDecideCancels(t *testing.T) {
	orders := slotOrders(2)
	rt := testRuntime(t, gobs.StatusDecommissioned, orders...)

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	instructions, err := s.Decide(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if len(instructions) != 6 {
		t.Fatalf("want 6 instructions, got %d", len(instructions))
	}
	for i, ins := range instructions {
		tag := binary.LittleEndian.Uint32(ins.Data[1:])
		want := uint32(2) // match
		if i%3 == 1 {
			want = 11 // cancel
		}
		if tag != want {
			t.Fatalf("instruction %d: want tag %d, got %d", i, want, tag)
		}
	}
	// Cancel side comes from the level's order reference.
	if side := binary.LittleEndian.Uint32(instructions[4].Data[5:]); side != uint32(serum.Ask) {
		t.Fatalf("want ask side for the second cancel, got %d", side)
	}
}

func TestDecideCap(t *testing.T) {
	rt := testRuntime(t, gobs.StatusStopped, slotOrders(6)...)
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	instructions, err := s.Decide(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if len(instructions) != 4*3 {
		t.Fatalf("want 12 instructions, got %d", len(instructions))
	}
}

func TestDecideActiveAccount(t *testing.T) {
	rt := testRuntime(t, gobs.StatusInitialized, slotOrders(2)...)
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	instructions, err := s.Decide(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if len(instructions) != 0 {
		t.Fatalf("active accounts must not be cancelled")
	}
}

func TestDecideUnknownOrders(t *testing.T) {
	orders := slotOrders(3)
	rt := testRuntime(t, gobs.StatusDecommissioned, orders[:1]...)
	chain := rt.Chain.(*workertest.Chain)
	chain.SetAccount(workertest.OpenOrders, rt.Config.DexProgram(), workertest.OpenOrdersData(0, 0, orders...))

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	instructions, err := s.Decide(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if len(instructions) != 3 {
		t.Fatalf("want instructions for the known order only, got %d", len(instructions))
	}
}

func TestDecideKnownOrderBehindUnknown(t *testing.T) {
	orders := slotOrders(5)
	last := orders[4]
	if last.Slot != 12 {
		t.Fatalf("want the last order in slot 12, got %d", last.Slot)
	}
	rt := testRuntime(t, gobs.StatusDecommissioned, last)
	chain := rt.Chain.(*workertest.Chain)
	chain.SetAccount(workertest.OpenOrders, rt.Config.DexProgram(), workertest.OpenOrdersData(0, 0, orders...))

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	instructions, err := s.Decide(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if len(instructions) != 3 {
		t.Fatalf("want the order in slot 12 cancelled, got %d instructions", len(instructions))
	}
	cancel := instructions[1]
	if lo, hi := binary.LittleEndian.Uint64(cancel.Data[9:]), binary.LittleEndian.Uint64(cancel.Data[17:]); lo != last.OrderID.Lo || hi != last.OrderID.Hi {
		t.Fatalf("want cancel of order %s, got lo=%d hi=%d", last.OrderID, lo, hi)
	}
}
