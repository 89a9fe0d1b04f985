// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"os"

	"github.com/bvk/gridbot/balancesync"
	"github.com/bvk/gridbot/decommission"
	"github.com/bvk/gridbot/ladder"
	"github.com/bvk/gridbot/solana/rpc"
	"github.com/bvk/gridbot/worker"
)

type Options struct {
	// RPCEndpoint is the ledger rpc endpoint used by all accounts.
	RPCEndpoint string

	// LogDir is the root directory for the worker log files.
	LogDir string

	RPC          rpc.Options
	Worker       worker.Options
	Ladder       ladder.Options
	Decommission decommission.Options
	BalanceSync  balancesync.Options

	// NewChain creates the ledger client for an account. Defaults to an rpc
	// client for the endpoint.
	NewChain func(endpoint string) (worker.Chain, error)
}

func (v *Options) setDefaults() {
	if v.RPCEndpoint == "" {
		v.RPCEndpoint = rpc.DefaultEndpoint
	}
	if v.LogDir == "" {
		v.LogDir = "logs"
	}
	if v.NewChain == nil {
		opts := v.RPC
		v.NewChain = func(endpoint string) (worker.Chain, error) {
			return rpc.New(endpoint, &opts)
		}
	}
}

func (v *Options) Check() error {
	if v.LogDir == "" {
		return fmt.Errorf("log directory cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}
