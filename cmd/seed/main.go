package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/GregMSThompson/ledger-backend/internal/bootstrap"
	"github.com/GregMSThompson/ledger-backend/internal/config"
	"github.com/GregMSThompson/ledger-backend/internal/store"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

// globals holds options shared by every command
type globals struct {
	Project  string `help:"Firestore project (defaults to PROJECTID)."`
	LogLevel string `name:"log-level" default:"info" help:"debug, info, warn or error."`
}

var cli struct {
	Globals globals `embed`

	Demo demoCmd `cmd help:"Write the five-item demo ledger for an owner."`
}

type demoCmd struct {
	Owner  string `required help:"Firebase uid that will own the transactions."`
	DryRun bool   `name:"dry-run" help:"Print the transactions instead of writing them."`
}

func (c *demoCmd) Run(g *globals) error {
	txs := demoTransactions(c.Owner, time.Now())

	if c.DryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(txs)
	}

	project := g.Project
	if project == "" {
		project = config.New().ProjectID
	}
	if project == "" {
		return fmt.Errorf("no project: pass --project or set PROJECTID")
	}

	log := logger.New(g.LogLevel, logger.NewCloudRunHandler)
	ctx := logger.ToContext(context.Background(), log)

	client, err := bootstrap.InitFirestore(ctx, project)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := bootstrap.WaitForFirestore(ctx, client, log); err != nil {
		return err
	}

	if err := store.NewTransactionStore(client).SeedBatch(ctx, txs); err != nil {
		return err
	}
	log.Info("demo ledger written", "owner_id", c.Owner, "count", len(txs))
	return nil
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
