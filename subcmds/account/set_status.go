// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/gobs"
	"github.com/bvk/gridbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type SetStatus struct {
	cmdutil.DBFlags
}

func (c *SetStatus) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("set-status", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "set-status", fset, cli.CmdFunc(c.run)
}

func (c *SetStatus) Purpose() string {
	return "Updates the lifecycle status of a trading account"
}

func (c *SetStatus) Description() string {
	return `

Command "set-status" takes market, owner and status arguments. Setting the
status to Decommissioned or Stopped makes a running service cancel the
account's resting orders after it is restarted.

`
}

func (c *SetStatus) run(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("command takes three (market, owner, status) arguments")
	}
	market, owner, status := args[0], args[1], args[2]
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid account status %q: %w", status, os.ErrInvalid)
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	var old string
	update := func(rec *gobs.TradingAccount) error {
		old, rec.Status = rec.Status, status
		return nil
	}
	if err := account.NewStore(db).Update(ctx, market, owner, update); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s -> %s\n", old, status)
	return nil
}
