// Copyright (c) 2025 BVK Chaitanya

// Package serum decodes the dex program accounts and builds its
// instructions.
package serum

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/bvk/gridbot/solana"
	bin "github.com/gagliardetto/binary"
	sgo "github.com/gagliardetto/solana-go"
	dex "github.com/gagliardetto/solana-go/programs/serum"
)

var (
	DexProgramID             = dex.DEXProgramIDV3
	TokenProgramID           = sgo.TokenProgramID
	AssociatedTokenProgramID = sgo.SPLAssociatedTokenAccountProgramID
)

const (
	headPadding = "serum"
	tailPadding = "padding"

	// AccountOverhead is the size of the fixed head and tail paddings around
	// every dex account body.
	AccountOverhead = len(headPadding) + len(tailPadding)
)

// Account flags.
const (
	FlagInitialized uint64 = 1 << 0
	FlagMarket      uint64 = 1 << 1
	FlagOpenOrders  uint64 = 1 << 2
	FlagRequestQ    uint64 = 1 << 3
	FlagEventQ      uint64 = 1 << 4
	FlagBids        uint64 = 1 << 5
	FlagAsks        uint64 = 1 << 6
	FlagDisabled    uint64 = 1 << 7
)

type Side uint32

const (
	Bid Side = 0
	Ask Side = 1
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "buy"
	case Ask:
		return "sell"
	}
	return fmt.Sprintf("side(%d)", uint32(s))
}

// DecodeError reports malformed or undersized account data.
type DecodeError struct {
	What   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s: %s", e.What, e.Reason)
}

func decodeErrorf(what, format string, args ...any) error {
	return &DecodeError{What: what, Reason: fmt.Sprintf(format, args...)}
}

// Body validates the head and tail paddings and returns the account body
// with the paddings stripped.
func Body(what string, data []byte, size int) ([]byte, error) {
	if size > 0 && len(data) != size {
		return nil, decodeErrorf(what, "account size is %d bytes, want %d", len(data), size)
	}
	if len(data) < AccountOverhead {
		return nil, decodeErrorf(what, "account size %d is smaller than the paddings", len(data))
	}
	if string(data[:len(headPadding)]) != headPadding {
		return nil, decodeErrorf(what, "invalid head padding")
	}
	if string(data[len(data)-len(tailPadding):]) != tailPadding {
		return nil, decodeErrorf(what, "invalid tail padding")
	}
	return data[len(headPadding) : len(data)-len(tailPadding)], nil
}

// OrderID is the exchange assigned 128 bit order id. Upper half holds the
// order price in lots.
type OrderID struct {
	Hi, Lo uint64
}

// OrderIDFromBytes reads a little-endian u128.
func OrderIDFromBytes(b []byte) OrderID {
	return OrderID{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

func (id OrderID) Price() uint64 {
	return id.Hi
}

func (id OrderID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

func (id OrderID) uint128() bin.Uint128 {
	return bin.Uint128{Lo: id.Lo, Hi: id.Hi, Endianness: binary.LittleEndian}
}

// String returns the decimal form of the u128.
func (id OrderID) String() string {
	v := new(big.Int).SetUint64(id.Hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(id.Lo))
	return v.String()
}

// ParseOrderID parses the decimal form returned by OrderID.String.
func ParseOrderID(s string) (OrderID, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		return OrderID{}, fmt.Errorf("invalid order id %q", s)
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(v, 64)
	return OrderID{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

func readKey(b []byte) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], b[:solana.PublicKeySize])
	return pk
}
