// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/bvk/gridbot/account"
	"github.com/bvk/gridbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.DBFlags

	status string
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.status, "status", "", "when non-empty, lists only accounts with this status")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Prints all trading accounts"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	recs, err := account.NewStore(db).List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "Market\tOwner\tStatus\tLevels\tBase\tQuote\tTxs\tRevision\n")
	for _, rec := range recs {
		if c.status != "" && rec.Status != c.status {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n", rec.MarketAddress, rec.Owner, rec.Status, len(rec.Levels), rec.BaseBalance, rec.QuoteBalance, rec.TotalTxs, rec.Revision)
	}
	return tw.Flush()
}
