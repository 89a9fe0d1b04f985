// Copyright (c) 2025 BVK Chaitanya

package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bvk/gridbot/serum"
	"github.com/bvk/gridbot/solana"
	"github.com/bvk/gridbot/solana/rpc"
	"github.com/bvk/gridbot/worker"
	"github.com/bvk/gridbot/worker/workertest"
)

type testStrategy struct {
	instructions []solana.Instruction

	setups  int
	settled []*solana.Signature
}

func (s *testStrategy) Role() worker.Role {
	return worker.RoleTrader
}

func (s *testStrategy) Setup(ctx context.Context, rt *worker.Runtime) error {
	s.setups++
	return nil
}

func (s *testStrategy) Decide(ctx context.Context, rt *worker.Runtime) ([]solana.Instruction, error) {
	return s.instructions, nil
}

func (s *testStrategy) Settle(ctx context.Context, rt *worker.Runtime, sig *solana.Signature) error {
	s.settled = append(s.settled, sig)
	return nil
}

func newTestEngine(t *testing.T, chain *workertest.Chain, s worker.Strategy, opts *worker.Options) *worker.Engine {
	rt := workertest.NewRuntime(t, chain, workertest.Record(t))
	if opts == nil {
		opts = new(worker.Options)
	}
	opts.PollInterval = time.Millisecond
	e, err := worker.New(rt, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func matchInstruction(t *testing.T) []solana.Instruction {
	m := workertest.Market()
	ins, err := serum.MatchOrders(serum.DexProgramID, m, workertest.BaseWallet, workertest.QuoteWallet, serum.DefaultMatchLimit)
	if err != nil {
		t.Fatal(err)
	}
	return []solana.Instruction{ins}
}

func TestNoOpCycle(t *testing.T) {
	chain := workertest.NewChain()
	s := new(testStrategy)
	e := newTestEngine(t, chain, s, nil)

	if v := e.RunCycle(context.Background()); v != worker.OutcomeNoOp {
		t.Fatalf("want noop, got %s", v)
	}
	if chain.NumSent() != 0 {
		t.Fatalf("no transaction is expected")
	}
	if len(s.settled) != 1 || s.settled[0] != nil {
		t.Fatalf("want a single settle with nil signature, got %v", s.settled)
	}
}

func TestTwoPhaseConfirmation(t *testing.T) {
	chain := workertest.NewChain()
	chain.StatusFunc = func(c rpc.Commitment, poll int) *rpc.SignatureStatus {
		if poll < 3 {
			return nil
		}
		return &rpc.SignatureStatus{Slot: 10, ConfirmationStatus: c}
	}
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, nil)

	if v := e.RunCycle(context.Background()); v != worker.OutcomeSuccess {
		t.Fatalf("want success, got %s", v)
	}
	if chain.Polls(rpc.Processed) != 3 || chain.Polls(rpc.Confirmed) != 3 {
		t.Fatalf("want 3 polls per phase, got %d and %d", chain.Polls(rpc.Processed), chain.Polls(rpc.Confirmed))
	}
	if len(s.settled) != 1 || s.settled[0] == nil {
		t.Fatalf("want settle with the signature")
	}
	if *s.settled[0] != solana.TransactionID(chain.Sent[0]) {
		t.Fatalf("settled signature does not match the submitted transaction")
	}
	if !solana.Verify(chain.Sent[0].Message.AccountKeys[0], mustMessage(t, chain.Sent[0]), chain.Sent[0].Signatures[0]) {
		t.Fatalf("transaction is not signed by the fee payer")
	}
}

func mustMessage(t *testing.T, tx *solana.Transaction) []byte {
	data, err := tx.Message.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestConfirmTimeout(t *testing.T) {
	chain := workertest.NewChain()
	chain.StatusFunc = func(c rpc.Commitment, poll int) *rpc.SignatureStatus {
		if c == rpc.Processed {
			return &rpc.SignatureStatus{ConfirmationStatus: c}
		}
		return nil
	}
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, &worker.Options{ConfirmRetries: 3})

	if v := e.RunCycle(context.Background()); v != worker.OutcomeTimeout {
		t.Fatalf("want timeout, got %s", v)
	}
	if n := chain.Polls(rpc.Confirmed); n != 3 {
		t.Fatalf("want exactly 3 confirmed polls, got %d", n)
	}
	if len(s.settled) != 0 {
		t.Fatalf("settle must not run for unconfirmed transactions")
	}
}

func TestStaleBlockhash(t *testing.T) {
	chain := workertest.NewChain()
	chain.StatusFunc = func(rpc.Commitment, int) *rpc.SignatureStatus { return nil }
	chain.BlockhashValid = func() bool { return false }
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, nil)

	if v := e.RunCycle(context.Background()); v != worker.OutcomeStaleBlockhash {
		t.Fatalf("want stale blockhash, got %s", v)
	}
	if n := chain.Polls(rpc.Processed); n != 1 {
		t.Fatalf("polling must stop at the first expired blockhash check, got %d polls", n)
	}
}

func TestStaleBlockhashRetry(t *testing.T) {
	chain := workertest.NewChain()
	chain.StatusFunc = func(rpc.Commitment, int) *rpc.SignatureStatus { return nil }
	chain.BlockhashValid = func() bool { return false }
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, &worker.Options{MaxAttempts: 2})

	if v := e.RunCycle(context.Background()); v != worker.OutcomeStaleBlockhash {
		t.Fatalf("want stale blockhash, got %s", v)
	}
	if n := chain.NumSent(); n != 2 {
		t.Fatalf("want 2 submissions, got %d", n)
	}
}

func TestRejected(t *testing.T) {
	custom := serum.ErrInsufficientTokens
	chain := workertest.NewChain()
	chain.Logs = []string{"Program log: Error: InsufficientTokens"}
	chain.StatusFunc = func(c rpc.Commitment, _ int) *rpc.SignatureStatus {
		return &rpc.SignatureStatus{
			ConfirmationStatus: c,
			Err:                &rpc.TransactionError{Kind: "InstructionError", Custom: &custom},
		}
	}
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, &worker.Options{MaxAttempts: 3})

	if v := e.RunCycle(context.Background()); v != worker.OutcomeRejected {
		t.Fatalf("want rejected, got %s", v)
	}
	if n := chain.NumSent(); n != 1 {
		t.Fatalf("rejected transactions must not be retried, got %d submissions", n)
	}
	if len(s.settled) != 0 {
		t.Fatalf("settle must not run for failed transactions")
	}
}

func TestFetchAndSubmitFailures(t *testing.T) {
	chain := workertest.NewChain()
	chain.BlockhashErr = &rpc.RPCError{Code: -32005, Message: "Node is behind"}
	s := &testStrategy{instructions: matchInstruction(t)}
	e := newTestEngine(t, chain, s, nil)

	if v := e.RunCycle(context.Background()); v != worker.OutcomeFetchFailed {
		t.Fatalf("want fetch failure, got %s", v)
	}

	chain.BlockhashErr = nil
	chain.SendErr = errors.New("connection refused")
	if v := e.RunCycle(context.Background()); v != worker.OutcomeSubmitFailed {
		t.Fatalf("want submit failure, got %s", v)
	}
	if s.setups != 2 || len(s.settled) != 0 {
		t.Fatalf("unexpected hook calls: setups=%d settles=%d", s.setups, len(s.settled))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	chain := workertest.NewChain()
	s := new(testStrategy)
	e := newTestEngine(t, chain, s, &worker.Options{IdleInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := e.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if s.setups == 0 {
		t.Fatalf("want at least one cycle")
	}
}
