// Copyright (c) 2025 BVK Chaitanya

// Package account holds the per-account configuration shared by the workers
// and the persisted account records.
package account

import (
	"errors"
	"fmt"
	"os"

	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
)

// ConfigError reports missing or invalid account data found when a worker
// is being created.
type ConfigError struct {
	Market string
	Owner  string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid account configuration for market %s owner %s: %v", e.Market, e.Owner, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

type Options struct {
	DexProgram   solana.PublicKey
	TokenProgram solana.PublicKey

	RPCEndpoint string
}

func (v *Options) setDefaults() {
	if v.DexProgram.IsZero() {
		v.DexProgram = serum.DexProgramID
	}
	if v.TokenProgram.IsZero() {
		v.TokenProgram = serum.TokenProgramID
	}
}

// Config is an immutable snapshot of an account's identifiers and signing
// key. A single instance is shared by all workers of the account.
type Config struct {
	dexProgram   solana.PublicKey
	tokenProgram solana.PublicKey

	market solana.PublicKey
	owner  string

	signer *solana.Keypair

	baseWallet  solana.PublicKey
	quoteWallet solana.PublicKey
	openOrders  []solana.PublicKey

	baseToken  gobs.TokenInfo
	quoteToken gobs.TokenInfo

	rpcEndpoint string
}

// NewConfig builds the configuration from a persisted record. Returns a
// ConfigError if the record has missing or malformed fields.
func NewConfig(rec *gobs.TradingAccount, opts *Options) (*Config, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	cerr := func(format string, args ...any) error {
		return &ConfigError{Market: rec.MarketAddress, Owner: rec.Owner, Err: fmt.Errorf(format, args...)}
	}

	if rec.Owner == "" {
		return nil, cerr("owner cannot be empty: %w", os.ErrInvalid)
	}
	if opts.RPCEndpoint == "" {
		return nil, cerr("rpc endpoint cannot be empty: %w", os.ErrInvalid)
	}
	market, err := solana.PublicKeyFromString(rec.MarketAddress)
	if err != nil {
		return nil, cerr("invalid market address: %w", err)
	}
	signer, err := solana.KeypairFromBase58(rec.TraderKeypair)
	if err != nil {
		return nil, cerr("invalid trader keypair: %w", err)
	}
	baseWallet, err := solana.PublicKeyFromString(rec.BaseWallet)
	if err != nil {
		return nil, cerr("invalid base wallet: %w", err)
	}
	quoteWallet, err := solana.PublicKeyFromString(rec.QuoteWallet)
	if err != nil {
		return nil, cerr("invalid quote wallet: %w", err)
	}
	if len(rec.OpenOrders) == 0 {
		return nil, cerr("no open orders account: %w", os.ErrNotExist)
	}
	var openOrders []solana.PublicKey
	for _, s := range rec.OpenOrders {
		pk, err := solana.PublicKeyFromString(s)
		if err != nil {
			return nil, cerr("invalid open orders account %q: %w", s, err)
		}
		openOrders = append(openOrders, pk)
	}

	c := &Config{
		dexProgram:   opts.DexProgram,
		tokenProgram: opts.TokenProgram,
		market:       market,
		owner:        rec.Owner,
		signer:       signer,
		baseWallet:   baseWallet,
		quoteWallet:  quoteWallet,
		openOrders:   openOrders,
		baseToken:    rec.BaseToken,
		quoteToken:   rec.QuoteToken,
		rpcEndpoint:  opts.RPCEndpoint,
	}
	return c, nil
}

func (c *Config) DexProgram() solana.PublicKey   { return c.dexProgram }
func (c *Config) TokenProgram() solana.PublicKey { return c.tokenProgram }
func (c *Config) Market() solana.PublicKey       { return c.market }
func (c *Config) Owner() string                  { return c.owner }
func (c *Config) Signer() *solana.Keypair        { return c.signer }
func (c *Config) BaseWallet() solana.PublicKey   { return c.baseWallet }
func (c *Config) QuoteWallet() solana.PublicKey  { return c.quoteWallet }
func (c *Config) BaseToken() gobs.TokenInfo      { return c.baseToken }
func (c *Config) QuoteToken() gobs.TokenInfo     { return c.quoteToken }
func (c *Config) RPCEndpoint() string            { return c.rpcEndpoint }

// OpenOrders returns the primary open orders account used for trading.
func (c *Config) OpenOrders() solana.PublicKey {
	return c.openOrders[0]
}

// OrderAccounts returns the owner side accounts for building order
// instructions.
func (c *Config) OrderAccounts() *serum.OrderAccounts {
	return &serum.OrderAccounts{
		OpenOrders:  c.openOrders[0],
		Owner:       c.signer.PublicKey(),
		BaseWallet:  c.baseWallet,
		QuoteWallet: c.quoteWallet,
	}
}

// Key returns the store key for the account record.
func (c *Config) Key() string {
	return Key(c.market.String(), c.owner)
}

func (c *Config) String() string {
	return fmt.Sprintf("%s/%s", c.market, c.owner)
}
