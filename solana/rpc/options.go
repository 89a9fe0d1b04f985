// Copyright (c) 2025 BVK Chaitanya

package rpc

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// Timeout holds the http client timeout for every rpc call.
	Timeout time.Duration

	// RequestsPerSecond limits the rate of rpc calls made by a client.
	RequestsPerSecond float64

	// Commitment is the commitment level used for account reads. It must not
	// be stricter than the level transactions are confirmed at.
	Commitment Commitment
}

func (v *Options) setDefaults() {
	if v.Timeout == 0 {
		v.Timeout = 10 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
	if v.Commitment == "" {
		v.Commitment = Confirmed
	}
}

func (v *Options) Check() error {
	if v.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %w", os.ErrInvalid)
	}
	if v.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative: %w", os.ErrInvalid)
	}
	if _, ok := commitmentRank[v.Commitment]; !ok {
		return fmt.Errorf("unknown commitment level %q: %w", v.Commitment, os.ErrInvalid)
	}
	if commitmentRank[v.Commitment] > commitmentRank[Confirmed] {
		return fmt.Errorf("account reads at %q lag behind confirmed transactions: %w", v.Commitment, os.ErrInvalid)
	}
	return nil
}
