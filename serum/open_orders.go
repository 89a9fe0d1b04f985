// Copyright (c) 2025 BVK Chaitanya

package serum

import (
	"encoding/binary"
	"math/bits"

	"github.com/bvk/gridbot/solana"
)

const (
	// OpenOrdersSize is the size of an open orders account.
	OpenOrdersSize = 3228

	// MaxOpenOrders is the number of order slots in an open orders account.
	MaxOpenOrders = 128
)

const (
	ooFreeSlotBits = 104
	ooIsBidBits    = 120
	ooOrders       = 136
	ooClientIDs    = ooOrders + MaxOpenOrders*16
	ooReferrer     = ooClientIDs + MaxOpenOrders*8
)

// OpenOrders is the decoded per-owner order container account.
type OpenOrders struct {
	Flags uint64

	Market solana.PublicKey
	Owner  solana.PublicKey

	BaseFree   uint64
	BaseTotal  uint64
	QuoteFree  uint64
	QuoteTotal uint64

	FreeSlotBits [2]uint64
	IsBidBits    [2]uint64

	OrderIDs  [MaxOpenOrders]OrderID
	ClientIDs [MaxOpenOrders]uint64

	ReferrerRebatesAccrued uint64
}

// SlotOrder is an order occupying an open orders slot.
type SlotOrder struct {
	Slot     int
	Side     Side
	OrderID  OrderID
	ClientID uint64
}

func (o *SlotOrder) Price() uint64 {
	return o.OrderID.Price()
}

func DecodeOpenOrders(data []byte) (*OpenOrders, error) {
	body, err := Body("open orders", data, OpenOrdersSize)
	if err != nil {
		return nil, err
	}
	u64 := func(off int) uint64 { return binary.LittleEndian.Uint64(body[off:]) }

	oo := &OpenOrders{
		Flags:                  u64(0),
		Market:                 readKey(body[8:]),
		Owner:                  readKey(body[40:]),
		BaseFree:               u64(72),
		BaseTotal:              u64(80),
		QuoteFree:              u64(88),
		QuoteTotal:             u64(96),
		FreeSlotBits:           [2]uint64{u64(ooFreeSlotBits), u64(ooFreeSlotBits + 8)},
		IsBidBits:              [2]uint64{u64(ooIsBidBits), u64(ooIsBidBits + 8)},
		ReferrerRebatesAccrued: u64(ooReferrer),
	}
	if oo.Flags&(FlagInitialized|FlagOpenOrders) != FlagInitialized|FlagOpenOrders {
		return nil, decodeErrorf("open orders", "account flags 0x%x are not of an initialized open orders account", oo.Flags)
	}
	for i := 0; i < MaxOpenOrders; i++ {
		oo.OrderIDs[i] = OrderIDFromBytes(body[ooOrders+i*16:])
		oo.ClientIDs[i] = u64(ooClientIDs + i*8)
	}
	return oo, nil
}

func bit(v [2]uint64, i int) bool {
	return v[i/64]&(1<<(i%64)) != 0
}

// Orders returns the occupied slots in slot order.
func (oo *OpenOrders) Orders() []*SlotOrder {
	n := MaxOpenOrders - bits.OnesCount64(oo.FreeSlotBits[0]) - bits.OnesCount64(oo.FreeSlotBits[1])
	orders := make([]*SlotOrder, 0, n)
	for i := 0; i < MaxOpenOrders; i++ {
		if bit(oo.FreeSlotBits, i) {
			continue
		}
		side := Ask
		if bit(oo.IsBidBits, i) {
			side = Bid
		}
		orders = append(orders, &SlotOrder{
			Slot:     i,
			Side:     side,
			OrderID:  oo.OrderIDs[i],
			ClientID: oo.ClientIDs[i],
		})
	}
	return orders
}

// Encode is the inverse of DecodeOpenOrders.
func (oo *OpenOrders) Encode() []byte {
	body := make([]byte, OpenOrdersSize-AccountOverhead)
	put := func(off int, v uint64) { binary.LittleEndian.PutUint64(body[off:], v) }
	put(0, oo.Flags)
	copy(body[8:], oo.Market[:])
	copy(body[40:], oo.Owner[:])
	put(72, oo.BaseFree)
	put(80, oo.BaseTotal)
	put(88, oo.QuoteFree)
	put(96, oo.QuoteTotal)
	put(ooFreeSlotBits, oo.FreeSlotBits[0])
	put(ooFreeSlotBits+8, oo.FreeSlotBits[1])
	put(ooIsBidBits, oo.IsBidBits[0])
	put(ooIsBidBits+8, oo.IsBidBits[1])
	for i := 0; i < MaxOpenOrders; i++ {
		put(ooOrders+i*16, oo.OrderIDs[i].Lo)
		put(ooOrders+i*16+8, oo.OrderIDs[i].Hi)
		put(ooClientIDs+i*8, oo.ClientIDs[i])
	}
	put(ooReferrer, oo.ReferrerRebatesAccrued)
	return Wrap(body)
}
