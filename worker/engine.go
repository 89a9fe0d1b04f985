// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bvk/gridbot/ctxutil"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/solana/rpc"
)

// Outcome is the terminal state of a cycle.
type Outcome int

const (
	OutcomeNoOp Outcome = iota
	OutcomeSuccess
	OutcomeSetupFailed
	OutcomeDecideFailed
	OutcomeBuildFailed
	OutcomeFetchFailed
	OutcomeSubmitFailed
	OutcomeRejected
	OutcomeTimeout
	OutcomeStaleBlockhash
	OutcomeSettleFailed
	OutcomeCanceled
)

var outcomeNames = []string{
	OutcomeNoOp:           "noop",
	OutcomeSuccess:        "success",
	OutcomeSetupFailed:    "setup-failed",
	OutcomeDecideFailed:   "decide-failed",
	OutcomeBuildFailed:    "build-failed",
	OutcomeFetchFailed:    "fetch-failed",
	OutcomeSubmitFailed:   "submit-failed",
	OutcomeRejected:       "rejected",
	OutcomeTimeout:        "timeout",
	OutcomeStaleBlockhash: "stale-blockhash",
	OutcomeSettleFailed:   "settle-failed",
	OutcomeCanceled:       "canceled",
}

func (v Outcome) String() string {
	if int(v) >= 0 && int(v) < len(outcomeNames) {
		return outcomeNames[v]
	}
	return fmt.Sprintf("outcome(%d)", int(v))
}

// abandoned returns true for attempts that may be retried with a fresh
// blockhash.
func (v Outcome) abandoned() bool {
	return v == OutcomeTimeout || v == OutcomeStaleBlockhash
}

// Engine runs the cycles of one worker.
type Engine struct {
	opts Options

	rt       *Runtime
	strategy Strategy

	log *slog.Logger
}

func New(rt *Runtime, strategy Strategy, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if rt == nil || rt.Config == nil || rt.Market == nil || rt.Chain == nil || rt.Store == nil {
		return nil, fmt.Errorf("runtime is incomplete: %w", os.ErrInvalid)
	}
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	e := &Engine{
		opts:     *opts,
		rt:       rt,
		strategy: strategy,
		log:      rt.Logger.With("role", strategy.Role().String(), "account", rt.Config.String()),
	}
	return e, nil
}

func (e *Engine) Role() Role {
	return e.strategy.Role()
}

// Run runs cycles back to back till the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("started worker")
	defer e.log.Info("stopped worker")

	for ctx.Err() == nil {
		switch outcome := e.RunCycle(ctx); outcome {
		case OutcomeSuccess:
		case OutcomeNoOp:
			ctxutil.Sleep(ctx, e.opts.IdleInterval)
		default:
			ctxutil.Sleep(ctx, e.opts.ErrorBackoff)
		}
	}
	return context.Cause(ctx)
}

// RunCycle runs a single reconcile, decide, submit and settle cycle.
func (e *Engine) RunCycle(ctx context.Context) (outcome Outcome) {
	role := e.strategy.Role().String()
	defer func() {
		cyclesTotal.WithLabelValues(role, outcome.String()).Inc()
	}()

	if err := e.strategy.Setup(ctx, e.rt); err != nil {
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
		e.log.Error("could not reconcile strategy state", "err", err)
		return OutcomeSetupFailed
	}

	instructions, err := e.strategy.Decide(ctx, e.rt)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
		e.log.Error("could not decide the next operations", "err", err)
		return OutcomeDecideFailed
	}

	if len(instructions) == 0 {
		if err := e.strategy.Settle(ctx, e.rt, nil); err != nil {
			e.log.Error("could not settle no-op cycle", "err", err)
			return OutcomeSettleFailed
		}
		return OutcomeNoOp
	}

	for attempt := 0; attempt < e.opts.MaxAttempts; attempt++ {
		var sig solana.Signature
		sig, outcome = e.submit(ctx, instructions)
		if outcome == OutcomeSuccess {
			if err := e.strategy.Settle(ctx, e.rt, &sig); err != nil {
				e.log.Error("could not settle confirmed transaction", "signature", sig, "err", err)
				return OutcomeSettleFailed
			}
			return OutcomeSuccess
		}
		if !outcome.abandoned() || ctx.Err() != nil {
			break
		}
	}
	return outcome
}

// submit builds, signs and submits one transaction and waits for it to be
// confirmed.
func (e *Engine) submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, Outcome) {
	signer := e.rt.Config.Signer()

	blockhash, err := e.rt.Chain.GetLatestBlockhash(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return solana.Signature{}, OutcomeCanceled
		}
		e.log.Error("could not fetch a recent blockhash\n" + DescribeError(err))
		return solana.Signature{}, OutcomeFetchFailed
	}

	tx, err := solana.NewTransaction(instructions, blockhash, signer.PublicKey())
	if err != nil {
		e.log.Error("could not build transaction", "err", err)
		return solana.Signature{}, OutcomeBuildFailed
	}
	if err := solana.Sign(tx, signer); err != nil {
		e.log.Error("could not sign transaction", "err", err)
		return solana.Signature{}, OutcomeBuildFailed
	}

	e.log.Info("sending transaction", "signature", solana.TransactionID(tx), "instructions", len(instructions))
	sig, err := e.rt.Chain.SendTransaction(ctx, tx)
	if err != nil {
		if ctx.Err() != nil {
			return solana.Signature{}, OutcomeCanceled
		}
		e.log.Error("could not submit transaction\n" + DescribeError(err))
		return solana.Signature{}, OutcomeSubmitFailed
	}

	if outcome := e.confirm(ctx, sig, blockhash, rpc.Processed); outcome != OutcomeSuccess {
		return sig, outcome
	}
	if outcome := e.confirm(ctx, sig, blockhash, rpc.Confirmed); outcome != OutcomeSuccess {
		return sig, outcome
	}
	e.log.Info("transaction is confirmed", "signature", sig)
	return sig, OutcomeSuccess
}

// confirm polls the signature status at a commitment level. Returns success
// when the transaction reaches the level without errors.
func (e *Engine) confirm(ctx context.Context, sig solana.Signature, blockhash solana.Hash, commitment rpc.Commitment) Outcome {
	for retry := 0; ; retry++ {
		status, err := e.rt.Chain.GetSignatureStatus(ctx, sig, commitment)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeCanceled
			}
			e.log.Warn("could not fetch signature status (treated as no status)", "signature", sig, "commitment", commitment, "err", err)
		}
		if status != nil {
			if status.Err != nil {
				e.logFailure(ctx, sig, status.Err)
				return OutcomeRejected
			}
			return OutcomeSuccess
		}

		valid, err := e.rt.Chain.IsBlockhashValid(ctx, blockhash, commitment)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeCanceled
			}
			e.log.Warn("could not check blockhash validity", "blockhash", blockhash, "err", err)
		} else if !valid {
			e.log.Warn("blockhash expired before the transaction was seen; abandoning", "signature", sig, "commitment", commitment)
			return OutcomeStaleBlockhash
		}

		if retry+1 >= e.opts.ConfirmRetries {
			e.log.Warn("timed out waiting for the transaction", "signature", sig, "commitment", commitment, "polls", retry+1)
			return OutcomeTimeout
		}
		ctxutil.Sleep(ctx, e.opts.PollInterval)
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
	}
}

func (e *Engine) logFailure(ctx context.Context, sig solana.Signature, txErr *rpc.TransactionError) {
	var sb strings.Builder
	sb.WriteString("transaction failed\n")
	sb.WriteString(DescribeError(txErr))
	sb.WriteString("\n")
	if logs, err := e.rt.Chain.GetTransactionLogs(ctx, sig); err != nil {
		fmt.Fprintf(&sb, "Could not fetch transaction logs: %v\n", err)
	} else if len(logs) != 0 {
		sb.WriteString("Program logs\n")
		for _, line := range logs {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "Signature: %s", sig)
	e.log.Error(sb.String())
}
