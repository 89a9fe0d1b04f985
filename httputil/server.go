// Copyright (c) 2023 BVK Chaitanya

// Package httputil implements a http server with a replaceable handler set
// that can serve on multiple tcp listeners.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bvk/gridbot/ctxutil"
	"github.com/google/uuid"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	opts Options

	nextID atomic.Int64

	mux atomic.Pointer[http.ServeMux]

	mu        sync.Mutex
	handlers  map[string]http.Handler
	listeners map[int64]*http.Server
}

// New creates a http server with no listeners.
func New(opts *Options) (*Server, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Server{
		ctx:       ctx,
		cancel:    cancel,
		opts:      *opts,
		handlers:  make(map[string]http.Handler),
		listeners: make(map[int64]*http.Server),
	}
	s.mux.Store(http.NewServeMux())
	return s, nil
}

// Close stops all listeners and waits for their serving goroutines.
func (s *Server) Close() error {
	s.cancel(os.ErrClosed)

	s.mu.Lock()
	for id, svr := range s.listeners {
		svr.Close()
		delete(s.listeners, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// StartTCP starts serving on the address and returns a listener id for
// Stop. Port number in the addr is updated when it is zero. Returns only
// after the listener has answered a readiness check.
func (s *Server) StartTCP(ctx context.Context, addr *net.TCPAddr) (id int64, status error) {
	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return -1, fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	defer func() {
		if status != nil {
			l.Close()
		}
	}()

	if addr.Port == 0 {
		laddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			return -1, fmt.Errorf("listener addr %v is not a tcp address", l.Addr())
		}
		addr.Port = laddr.Port
	}

	readyPath := "/" + uuid.New().String()
	s.AddHandler(readyPath, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer s.RemoveHandler(readyPath)

	svr := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return s.ctx
		},
	}
	defer func() {
		if status != nil {
			svr.Close()
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := svr.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "addr", addr, "error", err)
		}
	}()

	if err := s.waitReady(ctx, l.Addr().String(), readyPath); err != nil {
		return -1, err
	}

	id = s.nextID.Add(1)
	s.mu.Lock()
	s.listeners[id] = svr
	s.mu.Unlock()
	slog.Info("http server is ready", "addr", addr, "id", id)
	return id, nil
}

func (s *Server) waitReady(ctx context.Context, host, readyPath string) error {
	u := url.URL{Scheme: "http", Host: host, Path: readyPath}
	client := http.Client{Timeout: s.opts.ReadyTimeout}

	tctx, tcancel := context.WithTimeout(ctx, s.opts.ReadyTimeout)
	defer tcancel()

	for tctx.Err() == nil {
		r, err := http.NewRequestWithContext(tctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("could not create readiness request: %w", err)
		}
		resp, err := client.Do(r)
		if err != nil {
			ctxutil.Sleep(tctx, s.opts.ReadyRetryInterval)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		ctxutil.Sleep(tctx, s.opts.ReadyRetryInterval)
	}
	return fmt.Errorf("http server did not become ready at %s: %w", host, context.Cause(tctx))
}

// Stop closes the listener with the given id.
func (s *Server) Stop(id int64) error {
	s.mu.Lock()
	svr, ok := s.listeners[id]
	delete(s.listeners, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("http listener %d: %w", id, os.ErrNotExist)
	}
	return svr.Close()
}

// AddHandler registers or replaces the handler for a pattern. Handlers can
// be updated while the server is running.
func (s *Server) AddHandler(pattern string, handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[pattern] = handler
	s.rebuildMux()
}

func (s *Server) RemoveHandler(pattern string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handlers[pattern]; !ok {
		return false
	}
	delete(s.handlers, pattern)
	s.rebuildMux()
	return true
}

func (s *Server) rebuildMux() {
	m := http.NewServeMux()
	for k, v := range s.handlers {
		m.Handle(k, v)
	}
	s.mux.Store(m)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.Load().ServeHTTP(w, r)
}
