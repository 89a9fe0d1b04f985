// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/solana/rpc"
	"github.com/bvk/gridbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Import struct {
	cmdutil.DBFlags
}

func (c *Import) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("import", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "import", fset, cli.CmdFunc(c.run)
}

func (c *Import) Purpose() string {
	return "Adds a trading account from a json file"
}

func (c *Import) Description() string {
	return `

Command "import" reads a trading account record in json format and adds it to
the database. Status defaults to Registered and the register date defaults to
the current time. Import fails if an account already exists for the same market
and owner.

`
}

func (c *Import) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (account json file) argument")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read file %q: %w", args[0], err)
	}
	rec := new(gobs.TradingAccount)
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("could not parse account json: %w", err)
	}
	if rec.Status == "" {
		rec.Status = gobs.StatusRegistered
	}
	if !IsValidStatus(rec.Status) {
		return fmt.Errorf("invalid account status %q: %w", rec.Status, os.ErrInvalid)
	}
	if rec.RegisterDate == 0 {
		rec.RegisterDate = time.Now().Unix()
	}
	rec.Revision = 0

	if _, err := account.NewConfig(rec, &account.Options{RPCEndpoint: rpc.DefaultEndpoint}); err != nil {
		return err
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if err := account.NewStore(db).Create(ctx, rec); err != nil {
		return err
	}
	fmt.Fprintln(cli.Stdout(ctx), account.Key(rec.MarketAddress, rec.Owner))
	return nil
}

// IsValidStatus reports whether s is a known account lifecycle status.
func IsValidStatus(s string) bool {
	switch s {
	case gobs.StatusRegistered, gobs.StatusInitialized, gobs.StatusDecommissioned, gobs.StatusStopped:
		return true
	}
	return false
}
