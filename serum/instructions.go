// Copyright (c) 2025 BVK Chaitanya

package serum

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/bvk/gridbot/solana"
	bin "github.com/gagliardetto/binary"
	dex "github.com/gagliardetto/solana-go/programs/serum"
)

const (
	tagMatchOrders   uint32 = 2
	tagNewOrderV3    uint32 = 10
	tagCancelOrderV2 uint32 = 11
)

type OrderType = dex.OrderType

const (
	Limit             = dex.OrderTypeLimit
	ImmediateOrCancel = dex.OrderTypeImmediateOrCancel
	PostOnly          = dex.OrderTypePostOnly
)

type SelfTradeBehavior = dex.SelfTradeBehavior

const (
	DecrementTake    SelfTradeBehavior = dex.SelfTradeBehaviorDecrementTake
	CancelProvide    SelfTradeBehavior = dex.SelfTradeBehaviorCancelProvide
	AbortTransaction SelfTradeBehavior = dex.SelfTradeBehaviorAbortTransaction
)

// DefaultMatchLimit is the number of events processed by a match
// instruction.
const DefaultMatchLimit = 5

const maxTakerFeeBps = 22

// instruction encodes a versioned dex instruction into its wire form.
func instruction(programID solana.PublicKey, tag uint32, impl any, accounts []solana.AccountMeta) (solana.Instruction, error) {
	ins := &dex.Instruction{
		BaseVariant: bin.BaseVariant{
			TypeID: bin.TypeIDFromUint32(tag, binary.LittleEndian),
			Impl:   impl,
		},
	}
	data, err := bin.MarshalBin(ins)
	if err != nil {
		return solana.Instruction{}, fmt.Errorf("could not encode dex instruction %d: %w", tag, err)
	}
	return solana.Instruction{ProgramID: programID, Accounts: accounts, Data: data}, nil
}

// OrderAccounts holds the owner side accounts needed to place or cancel
// orders on a market.
type OrderAccounts struct {
	OpenOrders solana.PublicKey
	Owner      solana.PublicKey

	// BaseWallet pays for asks and QuoteWallet pays for bids.
	BaseWallet  solana.PublicKey
	QuoteWallet solana.PublicKey
}

type NewOrder struct {
	Side Side

	// LimitPrice is in quote lots per base lot.
	LimitPrice uint64

	// MaxBaseQuantity is in base lots.
	MaxBaseQuantity uint64

	// MaxQuoteQuantity is in native quote units, including fees.
	MaxQuoteQuantity uint64

	OrderType     OrderType
	SelfTrade     SelfTradeBehavior
	ClientOrderID uint64
	Limit         uint16
}

// MaxQuoteQuantity returns the native quote amount, with the maximum taker
// fee included, needed to buy qty base lots at price. Returns false when the
// amount does not fit in a u64.
func MaxQuoteQuantity(price, qty, quoteLotSize uint64) (uint64, bool) {
	hi, lots := bits.Mul64(price, qty)
	if hi != 0 {
		return 0, false
	}
	hi, native := bits.Mul64(lots, quoteLotSize)
	if hi != 0 {
		return 0, false
	}
	// fee is ceil(native * bps / 10000) computed in 128 bits.
	hi, lo := bits.Mul64(native, maxTakerFeeBps)
	lo, carry := bits.Add64(lo, 9999, 0)
	fee, _ := bits.Div64(hi+carry, lo, 10000)
	total, carry := bits.Add64(native, fee, 0)
	if carry != 0 {
		return 0, false
	}
	return total, true
}

func (m *Market) MaxQuoteQuantity(price, qty uint64) (uint64, bool) {
	return MaxQuoteQuantity(price, qty, m.QuoteLotSize)
}

// NewOrderV3 builds the place order instruction.
func NewOrderV3(programID solana.PublicKey, m *Market, acc *OrderAccounts, o *NewOrder) (solana.Instruction, error) {
	impl := &dex.InstructionNewOrderV3{
		Side:                             dex.Side(o.Side),
		LimitPrice:                       o.LimitPrice,
		MaxCoinQuantity:                  o.MaxBaseQuantity,
		MaxNativePCQuantityIncludingFees: o.MaxQuoteQuantity,
		SelfTradeBehavior:                o.SelfTrade,
		OrderType:                        o.OrderType,
		ClientOrderID:                    o.ClientOrderID,
		Limit:                            o.Limit,
	}
	payer := acc.QuoteWallet
	if o.Side == Ask {
		payer = acc.BaseWallet
	}
	return instruction(programID, tagNewOrderV3, impl, []solana.AccountMeta{
		solana.Writable(m.Address),
		solana.Writable(acc.OpenOrders),
		solana.Writable(m.RequestQueue),
		solana.Writable(m.EventQueue),
		solana.Writable(m.Bids),
		solana.Writable(m.Asks),
		solana.Writable(payer),
		solana.Signer(acc.Owner, false),
		solana.Writable(m.BaseVault),
		solana.Writable(m.QuoteVault),
		solana.Readonly(TokenProgramID),
		solana.Readonly(solana.SysvarRentID),
	})
}

// CancelOrderV2 builds the cancel order instruction.
func CancelOrderV2(programID solana.PublicKey, m *Market, acc *OrderAccounts, side Side, id OrderID) (solana.Instruction, error) {
	impl := &dex.InstructionCancelOrderV2{
		Side:    dex.Side(side),
		OrderID: id.uint128(),
	}
	return instruction(programID, tagCancelOrderV2, impl, []solana.AccountMeta{
		solana.Writable(m.Address),
		solana.Writable(m.Bids),
		solana.Writable(m.Asks),
		solana.Writable(acc.OpenOrders),
		solana.Signer(acc.Owner, false),
		solana.Writable(m.EventQueue),
	})
}

// MatchOrders builds the match instruction which settles crossed orders in
// the request queue.
func MatchOrders(programID solana.PublicKey, m *Market, baseFeeWallet, quoteFeeWallet solana.PublicKey, limit uint16) (solana.Instruction, error) {
	impl := &dex.InstructionMatchOrder{Limit: limit}
	return instruction(programID, tagMatchOrders, impl, []solana.AccountMeta{
		solana.Writable(m.Address),
		solana.Writable(m.RequestQueue),
		solana.Writable(m.EventQueue),
		solana.Writable(m.Bids),
		solana.Writable(m.Asks),
		solana.Writable(baseFeeWallet),
		solana.Writable(quoteFeeWallet),
	})
}
