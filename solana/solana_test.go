// Copyright (c) 2025 BVK Chaitanya

package solana

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func testKeypair(t *testing.T, b byte) *Keypair {
	seed := bytes.Repeat([]byte{b}, 32)
	kp, err := NewKeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	return kp
}

func TestPublicKeyString(t *testing.T) {
	if s := SystemProgramID.String(); s != "11111111111111111111111111111111" {
		t.Fatalf("want all-ones system program id, got %q", s)
	}
	if !SystemProgramID.IsZero() {
		t.Fatalf("system program id should be the zero key")
	}
	if _, err := PublicKeyFromString("abc"); err == nil {
		t.Fatalf("short public key must fail to parse")
	}
	pk := testKeypair(t, 3).PublicKey()
	pk2, err := PublicKeyFromString(pk.String())
	if err != nil {
		t.Fatal(err)
	}
	if pk != pk2 {
		t.Fatalf("want %s, got %s", pk, pk2)
	}
}

func TestKeypairBase58(t *testing.T) {
	kp := testKeypair(t, 7)
	kp2, err := KeypairFromBase58(kp.Base58())
	if err != nil {
		t.Fatal(err)
	}
	if kp.PublicKey() != kp2.PublicKey() {
		t.Fatalf("public key mismatch after round trip")
	}

	msg := []byte("hello")
	sig := kp2.Sign(msg)
	if !Verify(kp.PublicKey(), msg, sig) {
		t.Fatalf("signature did not verify")
	}
	if Verify(kp.PublicKey(), []byte("other"), sig) {
		t.Fatalf("signature verified for a different message")
	}
}

func TestNewTransaction(t *testing.T) {
	payer := testKeypair(t, 1)
	program := testKeypair(t, 2).PublicKey()
	writable := testKeypair(t, 3).PublicKey()
	readonly := testKeypair(t, 4).PublicKey()

	ins := []Instruction{
		{
			ProgramID: program,
			Accounts:  []AccountMeta{Readonly(readonly), Writable(writable), Signer(payer.PublicKey(), false)},
			Data:      []byte{1, 2, 3},
		},
		{
			ProgramID: program,
			Accounts:  []AccountMeta{Writable(readonly)},
		},
	}
	tx, err := NewTransaction(ins, Hash{9}, payer.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	m := tx.Message
	if m.Header.NumRequiredSignatures != 1 || m.Header.NumReadonlySignedAccounts != 0 || m.Header.NumReadonlyUnsignedAccounts != 1 {
		t.Fatalf("unexpected header %+v", m.Header)
	}
	if len(m.AccountKeys) != 4 || m.AccountKeys[0] != payer.PublicKey() {
		t.Fatalf("want payer first among 4 keys, got %v", m.AccountKeys)
	}
	// readonly account became writable through the second instruction.
	for _, pk := range []PublicKey{readonly, writable} {
		if ok, err := tx.IsWritable(pk); err != nil || !ok {
			t.Fatalf("account %s must be writable", pk)
		}
	}
	if ok, _ := tx.IsWritable(program); ok {
		t.Fatalf("program account must be readonly")
	}
	if ins[0].Accounts[0].IsWritable {
		t.Fatalf("input instruction accounts must not be modified")
	}

	if err := Sign(tx, testKeypair(t, 5)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("signing without the payer key must fail with os.ErrNotExist, got %v", err)
	}
	if err := Sign(tx, payer); err != nil {
		t.Fatal(err)
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !Verify(payer.PublicKey(), msg, TransactionID(tx)) {
		t.Fatalf("transaction signature did not verify")
	}

	data, err := tx.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 1 || !bytes.Equal(data[1:65], tx.Signatures[0][:]) || !bytes.Equal(data[65:], msg) {
		t.Fatalf("unexpected wire layout")
	}
}

func TestNewTransactionEmpty(t *testing.T) {
	if _, err := NewTransaction(nil, Hash{}, PublicKey{1}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("empty transaction must fail with os.ErrInvalid, got %v", err)
	}
}
