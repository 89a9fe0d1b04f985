// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/gridbot/ctxutil"
	"github.com/bvk/gridbot/httputil"
	"github.com/bvk/gridbot/server"
	"github.com/bvk/gridbot/subcmds/cmdutil"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/nightlyone/lockfile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

type Run struct {
	cmdutil.ServerFlags

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	envFile     string
	dataDir     string
	rpcEndpoint string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.restart, "restart", false, "when true, stops any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.envFile, "env-file", ".env", "path to an optional environment file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory (default GRIDBOT_DB value or $HOME/.gridbot)")
	fset.StringVar(&c.rpcEndpoint, "rpc-url", "", "ledger json-rpc endpoint (default GRIDBOT_RPC_URL value)")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the grid trading service in foreground"
}

func (c *Run) Description() string {
	return `

Command "run" starts the gridbot service. The service scans the database for
trading accounts and starts workers for them based on the account status.

Active accounts (Registered or Initialized status) get a trader worker that
maintains the grid orders and a balance sync worker that refreshes the
recorded balances. Retired accounts (Decommissioned or Stopped status) get a
cleanup worker that cancels their resting orders.

Worker logs are written under <data-dir>/logs/<role>/<level>.log and process
logs are written under <data-dir>/logs/process. Prometheus metrics are
served at /metrics and the database is exported at /db/ on the listen
address.

Environment variables can also be loaded from an env file:

    GRIDBOT_DB=/path/to/data-dir
    GRIDBOT_RPC_URL=https://api.mainnet-beta.solana.com

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments: %w", os.ErrInvalid)
	}

	if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not load env file %q: %w", c.envFile, err)
	}

	if len(c.dataDir) == 0 {
		c.dataDir = cmdutil.DataDirFromEnv()
	}
	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".gridbot")
	}
	if len(c.rpcEndpoint) == 0 {
		c.rpcEndpoint = os.Getenv("GRIDBOT_RPC_URL")
	}

	if err := os.MkdirAll(c.dataDir, 0700); err != nil {
		return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	addr, err := c.ServerFlags.TCPAddr()
	if err != nil {
		return err
	}

	processLogs := filepath.Join(dataDir, "logs", "process")
	if err := os.MkdirAll(processLogs, 0700); err != nil {
		return fmt.Errorf("could not create process log directory: %w", err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs:        []string{processLogs},
		LogFileMaxSize: 100 * 1024 * 1024,
	})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	slog.Info("using data directory", "dir", dataDir, "rpc", c.rpcEndpoint)

	lockPath := filepath.Join(dataDir, "gridbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			slog.Info("waiting for the previous instance to shutdown", "pid", owner.Pid)
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after stopping previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	bdb, err := badger.Open(badger.DefaultOptions(cmdutil.DatabaseDir(dataDir)).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	hs, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer hs.Close()

	id, err := hs.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer hs.Stop(id)

	hs.AddHandler("/metrics", promhttp.Handler())
	hs.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))
	if !c.noPprof {
		hs.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		hs.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		hs.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	sopts := &server.Options{
		RPCEndpoint: c.rpcEndpoint,
		LogDir:      filepath.Join(dataDir, "logs"),
	}
	svc, err := server.New(db, sopts)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	slog.Info("started gridbot service", "addr", addr, "workers", len(svc.Workers()))

	<-ctx.Done()
	slog.Info("gridbot service is shutting down", "cause", context.Cause(ctx))
	return nil
}
