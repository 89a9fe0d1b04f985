// Copyright (c) 2025 BVK Chaitanya

package serum

import (
	"encoding/binary"

	"github.com/bvk/gridbot/solana"
)

// TokenAccountSize is the size of a token program wallet account.
const TokenAccountSize = 165

// TokenAccount is the decoded token wallet.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) != TokenAccountSize {
		return nil, decodeErrorf("token account", "account size is %d bytes, want %d", len(data), TokenAccountSize)
	}
	ta := &TokenAccount{
		Mint:   readKey(data[0:]),
		Owner:  readKey(data[32:]),
		Amount: binary.LittleEndian.Uint64(data[64:]),
	}
	return ta, nil
}

// Encode returns the account data for an initialized wallet.
func (ta *TokenAccount) Encode() []byte {
	data := make([]byte, TokenAccountSize)
	copy(data[0:], ta.Mint[:])
	copy(data[32:], ta.Owner[:])
	binary.LittleEndian.PutUint64(data[64:], ta.Amount)
	data[108] = 1 // initialized
	return data
}
