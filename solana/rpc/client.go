// Copyright (c) 2025 BVK Chaitanya

// Package rpc wraps the solana-go json-rpc client with the rate limits,
// commitment levels and error forms used by the trading engine.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bvk/gridbot/solana"
	sgo "github.com/gagliardetto/solana-go"
	sgorpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public mainnet rpc endpoint.
const DefaultEndpoint = sgorpc.MainNetBeta_RPC

type Commitment = sgorpc.CommitmentType

const (
	Processed = sgorpc.CommitmentProcessed
	Confirmed = sgorpc.CommitmentConfirmed
	Finalized = sgorpc.CommitmentFinalized
)

var commitmentRank = map[Commitment]int{
	Processed: 1,
	Confirmed: 2,
	Finalized: 3,
}

type Client struct {
	opts Options

	endpoint string

	client *sgorpc.Client
}

// New creates a client for the rpc endpoint. Timeout configured in the
// options applies to every call.
func New(endpoint string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint cannot be empty: %w", os.ErrInvalid)
	}
	jc := jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	})
	lc := &limitedClient{
		RPCClient: jc,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		timeout:   opts.Timeout,
	}
	c := &Client{
		opts:     *opts,
		endpoint: endpoint,
		client:   sgorpc.NewWithCustomRPCClient(lc),
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// limitedClient throttles the json-rpc calls and warns about slow calls.
type limitedClient struct {
	jsonrpc.RPCClient

	limiter *rate.Limiter
	timeout time.Duration
}

func (lc *limitedClient) CallForInto(ctx context.Context, out any, method string, params []any) error {
	if err := lc.limiter.Wait(ctx); err != nil {
		return err
	}
	s := time.Now()
	err := lc.RPCClient.CallForInto(ctx, out, method, params)
	if d := time.Since(s); d > lc.timeout {
		slog.Warn("rpc call took longer than the client timeout", "method", method, "took", d, "timeout", lc.timeout)
	}
	return err
}

func (lc *limitedClient) CallWithCallback(ctx context.Context, method string, params []any, callback func(*http.Request, *http.Response) error) error {
	if err := lc.limiter.Wait(ctx); err != nil {
		return err
	}
	return lc.RPCClient.CallWithCallback(ctx, method, params, callback)
}

func (lc *limitedClient) CallBatch(ctx context.Context, requests jsonrpc.RPCRequests) (jsonrpc.RPCResponses, error) {
	if err := lc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return lc.RPCClient.CallBatch(ctx, requests)
}

// convertError turns json-rpc error responses into RPCError values with the
// raw data preserved.
func convertError(method string, err error) error {
	var jerr *jsonrpc.RPCError
	if !errors.As(err, &jerr) {
		return fmt.Errorf("could not perform %s request: %w", method, err)
	}
	rerr := &RPCError{Code: jerr.Code, Message: jerr.Message}
	if jerr.Data != nil {
		if data, err := json.Marshal(jerr.Data); err == nil {
			rerr.Data = data
		}
	}
	return rerr
}

type AccountInfo struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	Data       []byte
}

// GetAccountInfo fetches the account data at the client's commitment level.
// Returns os.ErrNotExist if the account is not found.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	opts := &sgorpc.GetAccountInfoOpts{
		Encoding:   sgo.EncodingBase64,
		Commitment: c.opts.Commitment,
	}
	result, err := c.client.GetAccountInfoWithOpts(ctx, account, opts)
	if err != nil {
		if errors.Is(err, sgorpc.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", account, os.ErrNotExist)
		}
		return nil, convertError("getAccountInfo", err)
	}
	v := result.Value
	if v.Data == nil {
		return nil, fmt.Errorf("account %s has no binary data: %w", account, os.ErrInvalid)
	}
	info := &AccountInfo{
		Lamports:   v.Lamports,
		Owner:      v.Owner,
		Executable: v.Executable,
		Data:       v.Data.GetBinary(),
	}
	return info, nil
}

// GetLatestBlockhash returns a recent blockhash at the confirmed commitment
// level.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.client.GetLatestBlockhash(ctx, Confirmed)
	if err != nil {
		return solana.Hash{}, convertError("getLatestBlockhash", err)
	}
	if result == nil || result.Value == nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash returned no blockhash: %w", os.ErrNotExist)
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction without waiting for it to
// land. Preflight checks are performed by the rpc node.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	opts := sgorpc.TransactionOpts{
		Encoding:            sgo.EncodingBase64,
		PreflightCommitment: Confirmed,
	}
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, convertError("sendTransaction", err)
	}
	return sig, nil
}

// SignatureStatus is the ledger status of a submitted transaction.
type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus Commitment

	// Err is non-nil if the transaction failed.
	Err *TransactionError
}

// GetSignatureStatus returns the status of a transaction signature if it has
// reached the given commitment level. Returns nil status when the signature
// is unknown or not yet at the commitment level.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature, commitment Commitment) (*SignatureStatus, error) {
	result, err := c.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		if errors.Is(err, sgorpc.ErrNotFound) {
			return nil, nil
		}
		return nil, convertError("getSignatureStatuses", err)
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}
	v := result.Value[0]
	reached := Commitment(v.ConfirmationStatus)
	if commitmentRank[reached] < commitmentRank[commitment] {
		return nil, nil
	}
	status := &SignatureStatus{
		Slot:               v.Slot,
		ConfirmationStatus: reached,
	}
	if v.Err != nil {
		raw, err := json.Marshal(v.Err)
		if err != nil {
			return nil, fmt.Errorf("could not encode transaction error: %w", err)
		}
		status.Err = parseTransactionError(raw)
	}
	return status, nil
}

// IsBlockhashValid returns true if transactions referencing the blockhash
// can still land.
func (c *Client) IsBlockhashValid(ctx context.Context, hash solana.Hash, commitment Commitment) (bool, error) {
	result, err := c.client.IsBlockhashValid(ctx, hash, commitment)
	if err != nil {
		return false, convertError("isBlockhashValid", err)
	}
	if result == nil {
		return false, fmt.Errorf("isBlockhashValid returned no result: %w", os.ErrInvalid)
	}
	return result.Value, nil
}

// GetTransactionLogs returns the program log lines of a landed transaction.
func (c *Client) GetTransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	version := uint64(0)
	opts := &sgorpc.GetTransactionOpts{
		Encoding:                       sgo.EncodingBase64,
		Commitment:                     Confirmed,
		MaxSupportedTransactionVersion: &version,
	}
	result, err := c.client.GetTransaction(ctx, sig, opts)
	if err != nil {
		if errors.Is(err, sgorpc.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", sig, os.ErrNotExist)
		}
		return nil, convertError("getTransaction", err)
	}
	if result.Meta == nil {
		return nil, nil
	}
	return result.Meta.LogMessages, nil
}

// IsRPCError returns true if the error was reported by the rpc endpoint.
func IsRPCError(err error) bool {
	var rerr *RPCError
	return errors.As(err, &rerr)
}
