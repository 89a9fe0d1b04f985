// Copyright (c) 2023 BVK Chaitanya

// Package server runs the workers of all accounts in the database.
//
// Registered and initialized accounts get a trader and a balance sync
// worker. Decommissioned and stopped accounts get a cleanup worker that
// cancels their resting orders. Workers log through the message bus, which
// is drained by a single collector into per-role, per-severity log files.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/balancesync"
	"github.com/bvk/gridbot/ctxutil"
	"github.com/bvk/gridbot/decommission"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/ladder"
	"github.com/bvk/gridbot/msgbus"
	"github.com/bvk/gridbot/worker"
	"github.com/bvkgo/kv"
)

type Server struct {
	opts Options

	store *account.Store

	bus       *msgbus.Bus
	collector *msgbus.Collector

	closer ctxutil.CloseGroup

	collectorWG     sync.WaitGroup
	collectorCancel context.CancelFunc

	mu      sync.Mutex
	workers []*WorkerInfo
}

// WorkerInfo identifies a running worker.
type WorkerInfo struct {
	Account string
	Role    worker.Role
}

func New(db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	bus, err := msgbus.New()
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			bus.Close()
		}
	}()

	s := &Server{
		opts:      *opts,
		store:     account.NewStore(db),
		bus:       bus,
		collector: msgbus.NewCollector(opts.LogDir),
	}

	cctx, cancel := context.WithCancel(context.Background())
	s.collectorCancel = cancel

	s.collectorWG.Add(1)
	go func() {
		defer s.collectorWG.Done()
		if err := s.collector.Run(cctx, s.bus); err != nil && cctx.Err() == nil {
			slog.Error("log collector has failed", "err", err)
		}
	}()
	return s, nil
}

// Close stops all workers and flushes the worker logs.
func (s *Server) Close() error {
	s.closer.Close()
	s.bus.Close()
	s.collectorCancel()
	s.collectorWG.Wait()
	s.collector.Close()
	return nil
}

// Workers returns the workers started so far.
func (s *Server) Workers() []*WorkerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.workers)
}

func (s *Server) newStrategies(status string) ([]worker.Strategy, error) {
	switch status {
	case gobs.StatusRegistered, gobs.StatusInitialized:
		trader, err := ladder.New(&s.opts.Ladder)
		if err != nil {
			return nil, err
		}
		syncer, err := balancesync.New(&s.opts.BalanceSync)
		if err != nil {
			return nil, err
		}
		return []worker.Strategy{trader, syncer}, nil
	case gobs.StatusDecommissioned, gobs.StatusStopped:
		cleanup, err := decommission.New(&s.opts.Decommission)
		if err != nil {
			return nil, err
		}
		return []worker.Strategy{cleanup}, nil
	}
	return nil, nil
}

// Start loads all accounts and starts their workers. Accounts with invalid
// configuration are logged and skipped.
func (s *Server) Start(ctx context.Context) error {
	recs, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		cfg, err := account.NewConfig(rec, &account.Options{RPCEndpoint: s.opts.RPCEndpoint})
		if err != nil {
			slog.Error("could not load account configuration; account is skipped", "err", err)
			continue
		}
		strategies, err := s.newStrategies(rec.Status)
		if err != nil {
			return err
		}
		if len(strategies) == 0 {
			slog.Warn("account has unknown status; account is skipped", "account", cfg, "status", rec.Status)
			continue
		}
		chain, err := s.opts.NewChain(cfg.RPCEndpoint())
		if err != nil {
			return fmt.Errorf("could not create rpc client for %s: %w", cfg.RPCEndpoint(), err)
		}
		for _, strategy := range strategies {
			s.startWorker(cfg, chain, strategy)
		}
	}
	return nil
}

func (s *Server) startWorker(cfg *account.Config, chain worker.Chain, strategy worker.Strategy) {
	role := strategy.Role()
	handler := msgbus.NewHandler(s.bus, role.String(), nil, slog.Default().Handler())
	logger := slog.New(handler)

	started := s.closer.Go(func(ctx context.Context) {
		if err := s.runWorker(ctx, cfg, chain, strategy, logger); err != nil && ctx.Err() == nil {
			logger.Error("worker has stopped", "account", cfg, "err", err)
		}
	})
	if !started {
		slog.Warn("server is closed; worker is not started", "account", cfg, "role", role)
		return
	}

	s.mu.Lock()
	s.workers = append(s.workers, &WorkerInfo{Account: cfg.String(), Role: role})
	s.mu.Unlock()
}

func (s *Server) runWorker(ctx context.Context, cfg *account.Config, chain worker.Chain, strategy worker.Strategy, logger *slog.Logger) error {
	market, err := worker.LoadMarket(ctx, chain, cfg)
	if err != nil {
		return err
	}
	rt := &worker.Runtime{
		Config: cfg,
		Market: market,
		Chain:  chain,
		Store:  s.store,
		Logger: logger,
	}
	opts := s.opts.Worker
	e, err := worker.New(rt, strategy, &opts)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}
