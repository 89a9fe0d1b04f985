// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Get struct {
	cmdutil.DBFlags
}

func (c *Get) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "get", fset, cli.CmdFunc(c.run)
}

func (c *Get) Purpose() string {
	return "Prints a trading account record in json format"
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("command takes two (market, owner) arguments")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	rec, err := account.NewStore(db).Load(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	// Signing key is never printed.
	rec.TraderKeypair = ""

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal account record: %w", err)
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s\n", data)
	return nil
}
