// Command ledger-rebuild replays the stock ledger of every material and compares it with the
// cached on-hand balance. By default it only reports drift; --apply rewrites the cached
// balances in a single transaction.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sangkips/atelier-api/internal/app"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("ledger-rebuild", pflag.ExitOnError)
	apply := flags.Bool("apply", false, "rewrite cached balances from the ledger")
	dryRun := flags.Bool("dry-run", true, "only report drift (default)")
	all := flags.Bool("all", false, "list consistent materials too")
	_ = flags.Parse(os.Args[1:])

	cfg := config.Load()
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(&cfg.Database, false, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	container, err := app.New(ctx, db, cfg, log)
	if err != nil {
		log.Fatal("failed to build services", "error", err)
	}
	defer container.Close()

	write := *apply || !*dryRun
	reports, err := container.Ledger.RebuildBalances(ctx, !write)
	if err != nil {
		log.Fatal("ledger rebuild failed", "error", err)
	}

	drifted := printReports(os.Stdout, reports, *all)
	switch {
	case drifted == 0:
		log.Info("all balances match the ledger", "materials", len(reports))
	case write:
		log.Info("cached balances rewritten", "materials", drifted)
	default:
		log.Warn("balances drift from the ledger, rerun with --apply to fix", "materials", drifted)
		os.Exit(2)
	}
}

// printReports writes one row per material and returns how many drift from their ledger
func printReports(out io.Writer, reports []service.BalanceReport, all bool) int {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tID\tCACHED\tLEDGER\tDRIFT")

	drifted := 0
	for _, r := range reports {
		if !r.Consistent {
			drifted++
		} else if !all {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.MaterialTitle, r.MaterialID, r.Cached, r.Ledger, r.Drift)
	}
	_ = w.Flush()
	return drifted
}
