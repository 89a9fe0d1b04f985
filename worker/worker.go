// Copyright (c) 2025 BVK Chaitanya

/*
Package worker implements the transaction engine that drives every worker
role.

Each cycle runs the strategy hooks in order: Setup reconciles the strategy
state with the ledger and the store, Decide returns the instructions to
submit and Settle is invoked after the transaction is confirmed, or
immediately when there is nothing to submit. Transactions are confirmed in
two phases, first at the processed commitment level and then at the
confirmed level. A transaction that is not seen before its blockhash
expires can never land, so polling stops early in that case.
*/
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/solana/rpc"
)

// Role identifies the strategy driven by a worker. Role names are also the
// log sources.
type Role int

const (
	RoleTrader Role = iota
	RoleCleanup
	RoleSync
)

func (r Role) String() string {
	switch r {
	case RoleTrader:
		return "trader"
	case RoleCleanup:
		return "cleanup"
	case RoleSync:
		return "sync"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Chain is the ledger interface used by the workers.
type Chain interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.AccountInfo, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature, commitment rpc.Commitment) (*rpc.SignatureStatus, error)
	IsBlockhashValid(ctx context.Context, hash solana.Hash, commitment rpc.Commitment) (bool, error)
	GetTransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error)
}

// Runtime holds the collaborators shared by the engine and the strategy of
// one worker.
type Runtime struct {
	Config *account.Config
	Market *serum.Market
	Chain  Chain
	Store  *account.Store
	Logger *slog.Logger
}

// Strategy is the role specific part of a worker.
type Strategy interface {
	Role() Role

	// Setup reconciles strategy state before every Decide.
	Setup(ctx context.Context, rt *Runtime) error

	// Decide returns the instructions to submit in a single transaction.
	Decide(ctx context.Context, rt *Runtime) ([]solana.Instruction, error)

	// Settle is called with the transaction signature after it is confirmed,
	// or with nil when Decide returned no instructions.
	Settle(ctx context.Context, rt *Runtime, sig *solana.Signature) error
}

// LoadMarket fetches and decodes the account's market state. Failures are
// reported as a ConfigError.
func LoadMarket(ctx context.Context, chain Chain, cfg *account.Config) (*serum.Market, error) {
	info, err := chain.GetAccountInfo(ctx, cfg.Market())
	if err != nil {
		return nil, &account.ConfigError{Market: cfg.Market().String(), Owner: cfg.Owner(), Err: fmt.Errorf("could not fetch market state: %w", err)}
	}
	if info.Owner != cfg.DexProgram() {
		return nil, &account.ConfigError{Market: cfg.Market().String(), Owner: cfg.Owner(), Err: fmt.Errorf("market account is owned by %s, not the dex program", info.Owner)}
	}
	m, err := serum.DecodeMarket(info.Data)
	if err != nil {
		return nil, &account.ConfigError{Market: cfg.Market().String(), Owner: cfg.Owner(), Err: err}
	}
	return m, nil
}

// FetchAccount reads an account's data.
func FetchAccount(ctx context.Context, chain Chain, pk solana.PublicKey) ([]byte, error) {
	info, err := chain.GetAccountInfo(ctx, pk)
	if err != nil {
		return nil, fmt.Errorf("could not fetch account %s: %w", pk, err)
	}
	return info.Data, nil
}

// DescribeError renders rpc and transaction errors with program error names.
func DescribeError(err error) string {
	return strings.TrimSpace(rpc.Describe(err, serum.ErrorName))
}
