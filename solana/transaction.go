// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"fmt"
	"os"

	sgo "github.com/gagliardetto/solana-go"
)

type AccountMeta = sgo.AccountMeta

func Writable(pk PublicKey) AccountMeta {
	return AccountMeta{PublicKey: pk, IsWritable: true}
}

func Readonly(pk PublicKey) AccountMeta {
	return AccountMeta{PublicKey: pk}
}

func Signer(pk PublicKey, writable bool) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: true, IsWritable: writable}
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

func (ins *Instruction) generic() *sgo.GenericInstruction {
	metas := make(sgo.AccountMetaSlice, 0, len(ins.Accounts))
	for i := range ins.Accounts {
		m := ins.Accounts[i]
		metas = append(metas, &m)
	}
	return sgo.NewInstruction(ins.ProgramID, metas, ins.Data)
}

// Transaction is a legacy (unversioned) transaction.
type Transaction = sgo.Transaction

// NewTransaction compiles instructions into a legacy message with the fee
// payer as the first account. Signer and writable flags of duplicate
// accounts are merged.
func NewTransaction(instructions []Instruction, blockhash Hash, payer PublicKey) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("transaction needs at least one instruction: %w", os.ErrInvalid)
	}
	list := make([]sgo.Instruction, 0, len(instructions))
	for i := range instructions {
		list = append(list, instructions[i].generic())
	}
	tx, err := sgo.NewTransaction(list, blockhash, sgo.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("could not compile transaction: %w", err)
	}
	return tx, nil
}

// Sign fills in the signatures for all required signers. Every required
// signer must be present in the input keys.
func Sign(tx *Transaction, keys ...*Keypair) error {
	getter := func(pk PublicKey) *sgo.PrivateKey {
		for _, k := range keys {
			if k.PublicKey() == pk {
				return k.privateKey()
			}
		}
		return nil
	}
	for _, pk := range tx.Message.Signers() {
		if getter(pk) == nil {
			return fmt.Errorf("no keypair for required signer %s: %w", pk, os.ErrNotExist)
		}
	}
	if _, err := tx.Sign(getter); err != nil {
		return fmt.Errorf("could not sign transaction: %w", err)
	}
	return nil
}

// TransactionID returns the transaction signature used to query its status.
func TransactionID(tx *Transaction) Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}
