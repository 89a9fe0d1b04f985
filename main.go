// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/gridbot/subcmds"
	"github.com/bvk/gridbot/subcmds/account"
	"github.com/bvk/gridbot/subcmds/db"
	"github.com/visvasity/cli"
)

func main() {
	dbCmds := []cli.Command{
		new(db.List),
		new(db.Backup),
		new(db.Restore),
	}

	accountCmds := []cli.Command{
		new(account.Import),
		new(account.List),
		new(account.Get),
		new(account.SetStatus),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.IDGen),
		cli.NewGroup("account", "Manage trading accounts", accountCmds...),
		cli.NewGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
