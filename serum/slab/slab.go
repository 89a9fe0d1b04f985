// Copyright (c) 2025 BVK Chaitanya

/*
Package slab decodes the order book side accounts of the dex.

Each side of the book is a crit-bit tree stored in a flat array of fixed
size nodes. Leaf nodes are the resting orders; inner, free and uninitialized
nodes carry no orders. Decoding validates the account once so that walking
over the orders cannot fail.
*/
package slab

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
)

const (
	headerSize = 8 + 32 // account flags + slab header
	NodeSize   = 72
)

const (
	tagUninitialized uint32 = 0
	tagInner         uint32 = 1
	tagLeaf          uint32 = 2
	tagFree          uint32 = 3
	tagLastFree      uint32 = 4
)

// Order is a resting order decoded from a leaf node.
type Order struct {
	Side serum.Side

	// Price is in quote lots per base lot.
	Price uint64

	// Quantity is in base lots.
	Quantity uint64

	ClientID uint64

	// Owner is the open orders account holding the order.
	Owner     solana.PublicKey
	OwnerSlot uint8
	FeeTier   uint8

	OrderID serum.OrderID
}

// Slab is a decoded, point-in-time snapshot of one side of the book.
type Slab struct {
	side serum.Side

	bumpIndex uint64
	leafCount uint64
	root      uint32

	nodes []byte
}

func decodeErrorf(format string, args ...any) error {
	return &serum.DecodeError{What: "slab", Reason: fmt.Sprintf(format, args...)}
}

// Decode validates the raw book side account data.
func Decode(side serum.Side, data []byte) (*Slab, error) {
	body, err := serum.Body("slab", data, 0)
	if err != nil {
		return nil, err
	}
	if len(body) < headerSize {
		return nil, decodeErrorf("account body size %d is smaller than the slab header", len(body))
	}
	flags := binary.LittleEndian.Uint64(body[0:])
	want := serum.FlagBids
	if side == serum.Ask {
		want = serum.FlagAsks
	}
	if flags&(serum.FlagInitialized|want) != serum.FlagInitialized|want {
		return nil, decodeErrorf("account flags 0x%x do not match the %s side", flags, side)
	}

	s := &Slab{
		side:      side,
		bumpIndex: binary.LittleEndian.Uint64(body[8:]),
		root:      binary.LittleEndian.Uint32(body[28:]),
		leafCount: binary.LittleEndian.Uint64(body[32:]),
		nodes:     body[headerSize:],
	}
	capacity := uint64(len(s.nodes) / NodeSize)
	if s.bumpIndex > capacity {
		return nil, decodeErrorf("bump index %d exceeds node capacity %d", s.bumpIndex, capacity)
	}
	if s.leafCount > s.bumpIndex {
		return nil, decodeErrorf("leaf count %d exceeds bump index %d", s.leafCount, s.bumpIndex)
	}

	var leaves uint64
	for i := uint64(0); i < s.bumpIndex; i++ {
		switch tag := s.tag(i); tag {
		case tagLeaf:
			leaves++
		case tagUninitialized, tagInner, tagFree, tagLastFree:
		default:
			return nil, decodeErrorf("node %d has invalid tag %d", i, tag)
		}
	}
	if leaves != s.leafCount {
		return nil, decodeErrorf("found %d leaf nodes, header says %d", leaves, s.leafCount)
	}
	return s, nil
}

func (s *Slab) Side() serum.Side {
	return s.side
}

// Len returns the number of resting orders.
func (s *Slab) Len() int {
	return int(s.leafCount)
}

func (s *Slab) node(i uint64) []byte {
	return s.nodes[i*NodeSize : (i+1)*NodeSize]
}

func (s *Slab) tag(i uint64) uint32 {
	return binary.LittleEndian.Uint32(s.node(i))
}

func (s *Slab) leaf(i uint64) *Order {
	n := s.node(i)
	id := serum.OrderIDFromBytes(n[8:24])
	o := &Order{
		Side:      s.side,
		OwnerSlot: n[4],
		FeeTier:   n[5],
		OrderID:   id,
		Price:     id.Price(),
		Quantity:  binary.LittleEndian.Uint64(n[56:]),
		ClientID:  binary.LittleEndian.Uint64(n[64:]),
	}
	copy(o.Owner[:], n[24:56])
	return o
}

// Orders returns all resting orders in node array order. Every leaf is
// visited exactly once.
func (s *Slab) Orders() iter.Seq[*Order] {
	return func(yield func(*Order) bool) {
		for i := uint64(0); i < s.bumpIndex; i++ {
			if s.tag(i) != tagLeaf {
				continue
			}
			if !yield(s.leaf(i)) {
				return
			}
		}
	}
}

// OrdersByOwner returns the subset of Orders held by an open orders account.
func (s *Slab) OrdersByOwner(owner solana.PublicKey) iter.Seq[*Order] {
	return func(yield func(*Order) bool) {
		for o := range s.Orders() {
			if o.Owner != owner {
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}

// Best returns the best priced order: highest bid or lowest ask.
func (s *Slab) Best() (*Order, bool) {
	var best *Order
	for o := range s.Orders() {
		if best == nil {
			best = o
			continue
		}
		if (s.side == serum.Bid && o.Price > best.Price) || (s.side == serum.Ask && o.Price < best.Price) {
			best = o
		}
	}
	return best, best != nil
}
