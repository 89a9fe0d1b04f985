// Copyright (c) 2025 BVK Chaitanya

// Package workertest provides an in-memory ledger and runtime fixtures for
// testing worker strategies.
package workertest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/solana/rpc"
	"github.com/bvk/gridbot/worker"
	"github.com/bvkgo/kv/kvmemdb"
)

// Well known addresses used by the fixtures.
var (
	MarketAddress = solana.PublicKey{0xa1}
	BaseMint      = solana.PublicKey{0xa2}
	QuoteMint     = solana.PublicKey{0xa3}
	BaseWallet    = solana.PublicKey{0xa4}
	QuoteWallet   = solana.PublicKey{0xa5}
	OpenOrders    = solana.PublicKey{0xa6}
	Bids          = solana.PublicKey{0xa7}
	Asks          = solana.PublicKey{0xa8}
)

// Chain is an in-memory ledger. Signature statuses are scripted per
// commitment level with StatusFunc.
type Chain struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]*rpc.AccountInfo

	// StatusFunc returns the status for a signature status poll. Nil status
	// means not seen. Polls are counted per commitment level starting at 1.
	StatusFunc func(commitment rpc.Commitment, poll int) *rpc.SignatureStatus

	// BlockhashValid reports blockhash validity. Blockhashes are valid when
	// nil.
	BlockhashValid func() bool

	BlockhashErr error
	SendErr      error

	Logs []string

	Sent  []*solana.Transaction
	polls map[rpc.Commitment]int
}

func NewChain() *Chain {
	return &Chain{
		accounts: make(map[solana.PublicKey]*rpc.AccountInfo),
		polls:    make(map[rpc.Commitment]int),
	}
}

// SetAccount stores account data owned by the owner program.
func (c *Chain) SetAccount(pk, owner solana.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[pk] = &rpc.AccountInfo{Owner: owner, Data: bytes.Clone(data)}
}

func (c *Chain) Polls(commitment rpc.Commitment) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls[commitment]
}

func (c *Chain) NumSent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

func (c *Chain) GetAccountInfo(ctx context.Context, pk solana.PublicKey) (*rpc.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.accounts[pk]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", pk, os.ErrNotExist)
	}
	v := *info
	v.Data = bytes.Clone(info.Data)
	return &v, nil
}

func (c *Chain) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if c.BlockhashErr != nil {
		return solana.Hash{}, c.BlockhashErr
	}
	return solana.Hash{0xbb}, nil
}

func (c *Chain) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if c.SendErr != nil {
		return solana.Signature{}, c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, tx)
	return solana.TransactionID(tx), nil
}

func (c *Chain) GetSignatureStatus(ctx context.Context, sig solana.Signature, commitment rpc.Commitment) (*rpc.SignatureStatus, error) {
	c.mu.Lock()
	c.polls[commitment]++
	poll := c.polls[commitment]
	c.mu.Unlock()

	if c.StatusFunc == nil {
		return &rpc.SignatureStatus{Slot: 1, ConfirmationStatus: commitment}, nil
	}
	return c.StatusFunc(commitment, poll), nil
}

func (c *Chain) IsBlockhashValid(ctx context.Context, hash solana.Hash, commitment rpc.Commitment) (bool, error) {
	if c.BlockhashValid == nil {
		return true, nil
	}
	return c.BlockhashValid(), nil
}

func (c *Chain) GetTransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	return c.Logs, nil
}

// Market returns the market state used by the fixtures. Prices are in quote
// lots per base lot with 10 native quote units per quote lot.
func Market() *serum.Market {
	return &serum.Market{
		Flags:        serum.FlagInitialized | serum.FlagMarket,
		Address:      MarketAddress,
		BaseMint:     BaseMint,
		QuoteMint:    QuoteMint,
		BaseVault:    solana.PublicKey{0xb1},
		QuoteVault:   solana.PublicKey{0xb2},
		RequestQueue: solana.PublicKey{0xb3},
		EventQueue:   solana.PublicKey{0xb4},
		Bids:         Bids,
		Asks:         Asks,
		BaseLotSize:  100,
		QuoteLotSize: 10,
	}
}

// Record returns an initialized account record on the fixture market.
func Record(t *testing.T) *gobs.TradingAccount {
	kp, err := solana.NewKeypairFromSeed(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return &gobs.TradingAccount{
		MarketAddress: MarketAddress.String(),
		BaseToken:     gobs.TokenInfo{Symbol: "BASE", Mint: BaseMint.String(), Decimals: 9},
		QuoteToken:    gobs.TokenInfo{Symbol: "QUOTE", Mint: QuoteMint.String(), Decimals: 6},
		TraderKeypair: kp.Base58(),
		BaseWallet:    BaseWallet.String(),
		QuoteWallet:   QuoteWallet.String(),
		OpenOrders:    []string{OpenOrders.String()},
		Owner:         "tester",
		Status:        gobs.StatusInitialized,
	}
}

// NewRuntime saves the record into an in-memory store and returns a runtime
// for it backed by the chain.
func NewRuntime(t *testing.T, chain *Chain, rec *gobs.TradingAccount) *worker.Runtime {
	ctx := context.Background()
	store := account.NewStore(kvmemdb.New())
	if err := store.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}
	cfg, err := account.NewConfig(rec, &account.Options{RPCEndpoint: "http://localhost"})
	if err != nil {
		t.Fatal(err)
	}
	m := Market()
	chain.SetAccount(m.Address, cfg.DexProgram(), m.Encode())
	return &worker.Runtime{
		Config: cfg,
		Market: m,
		Chain:  chain,
		Store:  store,
	}
}

// OpenOrdersData returns the fixture's open orders account data holding the
// orders in their slots.
func OpenOrdersData(baseFree, quoteFree uint64, orders ...*serum.SlotOrder) []byte {
	oo := &serum.OpenOrders{
		Flags:        serum.FlagInitialized | serum.FlagOpenOrders,
		Market:       MarketAddress,
		BaseFree:     baseFree,
		BaseTotal:    baseFree,
		QuoteFree:    quoteFree,
		QuoteTotal:   quoteFree,
		FreeSlotBits: [2]uint64{^uint64(0), ^uint64(0)},
	}
	for _, o := range orders {
		oo.FreeSlotBits[o.Slot/64] &^= 1 << (o.Slot % 64)
		if o.Side == serum.Bid {
			oo.IsBidBits[o.Slot/64] |= 1 << (o.Slot % 64)
		}
		oo.OrderIDs[o.Slot] = o.OrderID
		oo.ClientIDs[o.Slot] = o.ClientID
	}
	return oo.Encode()
}
