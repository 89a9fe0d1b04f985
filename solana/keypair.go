// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cloudflare/circl/sign/ed25519"
	sgo "github.com/gagliardetto/solana-go"
)

// Keypair holds an ed25519 signing key.
type Keypair struct {
	priv sgo.PrivateKey
	pub  PublicKey
}

// NewKeypairFromSeed derives a keypair from a 32 byte seed.
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes: %w", ed25519.SeedSize, os.ErrInvalid)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	kp := &Keypair{priv: sgo.PrivateKey(priv)}
	copy(kp.pub[:], priv[ed25519.SeedSize:])
	return kp, nil
}

// KeypairFromBase58 parses the common wallet export format: base58 encoding
// of the 64 byte secret (seed followed by the public key).
func KeypairFromBase58(s string) (*Keypair, error) {
	secret, err := sgo.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("could not decode keypair: %w", err)
	}
	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair secret must be %d bytes, got %d: %w", ed25519.PrivateKeySize, len(secret), os.ErrInvalid)
	}
	kp, err := NewKeypairFromSeed(secret[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(kp.pub[:], secret[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("keypair public key does not match the seed: %w", os.ErrInvalid)
	}
	return kp, nil
}

func (kp *Keypair) PublicKey() PublicKey {
	return kp.pub
}

func (kp *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(kp.priv), message))
	return sig
}

// Base58 returns the keypair secret in the format accepted by
// KeypairFromBase58.
func (kp *Keypair) Base58() string {
	return kp.priv.String()
}

func (kp *Keypair) privateKey() *sgo.PrivateKey {
	return &kp.priv
}
