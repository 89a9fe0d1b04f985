// Copyright (c) 2025 BVK Chaitanya

package serum

import (
	"encoding/binary"

	"github.com/bvk/gridbot/solana"
)

// MarketSize is the size of a market state account.
const MarketSize = 388

// Market is the decoded market state account.
type Market struct {
	Flags uint64

	Address          solana.PublicKey
	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
}

func DecodeMarket(data []byte) (*Market, error) {
	body, err := Body("market", data, MarketSize)
	if err != nil {
		return nil, err
	}
	u64 := func(off int) uint64 { return binary.LittleEndian.Uint64(body[off:]) }

	m := &Market{
		Flags:                  u64(0),
		Address:                readKey(body[8:]),
		VaultSignerNonce:       u64(40),
		BaseMint:               readKey(body[48:]),
		QuoteMint:              readKey(body[80:]),
		BaseVault:              readKey(body[112:]),
		BaseDepositsTotal:      u64(144),
		BaseFeesAccrued:        u64(152),
		QuoteVault:             readKey(body[160:]),
		QuoteDepositsTotal:     u64(192),
		QuoteFeesAccrued:       u64(200),
		QuoteDustThreshold:     u64(208),
		RequestQueue:           readKey(body[216:]),
		EventQueue:             readKey(body[248:]),
		Bids:                   readKey(body[280:]),
		Asks:                   readKey(body[312:]),
		BaseLotSize:            u64(344),
		QuoteLotSize:           u64(352),
		FeeRateBps:             u64(360),
		ReferrerRebatesAccrued: u64(368),
	}
	if m.Flags&(FlagInitialized|FlagMarket) != FlagInitialized|FlagMarket {
		return nil, decodeErrorf("market", "account flags 0x%x are not of an initialized market", m.Flags)
	}
	if m.BaseLotSize == 0 || m.QuoteLotSize == 0 {
		return nil, decodeErrorf("market", "lot sizes cannot be zero")
	}
	return m, nil
}

// Encode is the inverse of DecodeMarket.
func (m *Market) Encode() []byte {
	body := make([]byte, MarketSize-AccountOverhead)
	put := func(off int, v uint64) { binary.LittleEndian.PutUint64(body[off:], v) }
	put(0, m.Flags)
	copy(body[8:], m.Address[:])
	put(40, m.VaultSignerNonce)
	copy(body[48:], m.BaseMint[:])
	copy(body[80:], m.QuoteMint[:])
	copy(body[112:], m.BaseVault[:])
	put(144, m.BaseDepositsTotal)
	put(152, m.BaseFeesAccrued)
	copy(body[160:], m.QuoteVault[:])
	put(192, m.QuoteDepositsTotal)
	put(200, m.QuoteFeesAccrued)
	put(208, m.QuoteDustThreshold)
	copy(body[216:], m.RequestQueue[:])
	copy(body[248:], m.EventQueue[:])
	copy(body[280:], m.Bids[:])
	copy(body[312:], m.Asks[:])
	put(344, m.BaseLotSize)
	put(352, m.QuoteLotSize)
	put(360, m.FeeRateBps)
	put(368, m.ReferrerRebatesAccrued)
	return Wrap(body)
}

// Wrap adds the head and tail paddings around an account body.
func Wrap(body []byte) []byte {
	data := make([]byte, 0, len(body)+AccountOverhead)
	data = append(data, headPadding...)
	data = append(data, body...)
	return append(data, tailPadding...)
}
