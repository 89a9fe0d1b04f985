// Copyright (c) 2025 BVK Chaitanya

package slab

import (
	"encoding/binary"

	"github.com/bvk/gridbot/serum"
)

// Encode lays out orders as leaf nodes of a book side account, with
// interleaved free nodes and spare capacity at the end. Inner nodes of the
// tree are not reconstructed, so the result is only meant for readers that
// scan the node array, like Decode.
func Encode(side serum.Side, orders []*Order) []byte {
	var nodes []byte
	appendNode := func(tag uint32) []byte {
		n := make([]byte, NodeSize)
		binary.LittleEndian.PutUint32(n, tag)
		nodes = append(nodes, n...)
		return nodes[len(nodes)-NodeSize:]
	}

	for i, o := range orders {
		if i%2 == 1 {
			appendNode(tagFree)
		}
		n := appendNode(tagLeaf)
		n[4] = o.OwnerSlot
		n[5] = o.FeeTier
		id := o.OrderID
		if id.IsZero() {
			id = serum.OrderID{Hi: o.Price, Lo: uint64(i + 1)}
		}
		binary.LittleEndian.PutUint64(n[8:], id.Lo)
		binary.LittleEndian.PutUint64(n[16:], id.Hi)
		copy(n[24:56], o.Owner[:])
		binary.LittleEndian.PutUint64(n[56:], o.Quantity)
		binary.LittleEndian.PutUint64(n[64:], o.ClientID)
	}
	bumpIndex := len(nodes) / NodeSize
	appendNode(tagUninitialized)
	appendNode(tagUninitialized)

	flags := serum.FlagInitialized | serum.FlagBids
	if side == serum.Ask {
		flags = serum.FlagInitialized | serum.FlagAsks
	}
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(header[0:], flags)
	binary.LittleEndian.PutUint64(header[8:], uint64(bumpIndex))
	binary.LittleEndian.PutUint64(header[32:], uint64(len(orders)))
	return serum.Wrap(append(header, nodes...))
}
