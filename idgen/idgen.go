// Copyright (c) 2023 BVK Chaitanya

// Package idgen derives deterministic client order ids from a seed string.
// Same seed and offset always produce the same sequence, so ids of orders
// prepared in a cycle can be recomputed after a restart.
package idgen

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Generator creates a sequence of ids derived from a base uuid.
type Generator struct {
	base uuid.UUID
	next uint64
}

func New(seed string, offset uint64) *Generator {
	return &Generator{
		base: uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)),
		next: offset,
	}
}

func (v *Generator) Offset() uint64 {
	return v.next
}

// At returns the uuid at an offset without advancing the generator.
func (v *Generator) At(offset uint64) uuid.UUID {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], offset)
	return uuid.NewSHA1(v.base, buf[:])
}

func (v *Generator) NextID() uuid.UUID {
	id := v.At(v.next)
	v.next++
	return id
}

// NextClientID returns the next id folded into 64 bits. Zero is never
// returned because the exchange treats it as no client id.
func (v *Generator) NextClientID() uint64 {
	id := v.NextID()
	if x := binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:]); x != 0 {
		return x
	}
	return 1
}
