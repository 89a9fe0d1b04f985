// Copyright (c) 2025 BVK Chaitanya

// Package solana adapts the ledger primitives from solana-go to the small
// surface used by the trading engine: keys, hashes, signatures and legacy
// transactions.
package solana

import (
	"fmt"

	sgo "github.com/gagliardetto/solana-go"
)

const PublicKeySize = sgo.PublicKeyLength

// PublicKey is an ed25519 public key or a program derived address.
type PublicKey = sgo.PublicKey

// Hash is a ledger hash, eg: a recent blockhash.
type Hash = sgo.Hash

// Signature is an ed25519 signature. First signature of a transaction is
// also its identifier.
type Signature = sgo.Signature

var (
	SystemProgramID = sgo.SystemProgramID
	SysvarRentID    = sgo.SysVarRentPubkey
)

func PublicKeyFromString(s string) (PublicKey, error) {
	pk, err := sgo.PublicKeyFromBase58(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("could not parse public key %q: %w", s, err)
	}
	return pk, nil
}

// Verify checks an ed25519 signature against the public key.
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	return pub.Verify(message, sig)
}
