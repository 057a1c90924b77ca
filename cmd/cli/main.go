package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/store"
	"github.com/dvloznov/mf-dashboard/internal/warehouse"
)

// Reader is the slice of the repository the inspection commands use.
type Reader interface {
	ListGroups(ctx context.Context) ([]store.GroupRow, error)
	ListAccounts(ctx context.Context) ([]store.AccountRow, error)
	LatestSnapshot(ctx context.Context, groupID string) (*store.SnapshotRow, error)
	CountHoldingValues(ctx context.Context, snapshotID uint) (int64, error)
	AssetHistory(ctx context.Context, groupID string) ([]store.AssetHistoryRow, error)
	AssetHistoryCategories(ctx context.Context, assetHistoryID uint) ([]store.AssetHistoryCategoryRow, error)
	SpendingTargets(ctx context.Context, groupID string) ([]store.SpendingTargetRow, error)
	ListTransactions(ctx context.Context, from, to string) ([]store.TransactionRow, error)
}

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	case "exported":
		runExported(log, args)
		return
	}

	ctx := logger.WithContext(context.Background(), log)

	dsn, err := config.DatabaseURL()
	if err != nil {
		log.Fatal().Err(err).Msg("Database not configured")
	}
	repo, err := store.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer repo.Close()

	if err := dispatch(ctx, repo, os.Stdout, cmd, args, time.Now()); err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "MoneyForward Dashboard CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  groups        List stored groups")
	fmt.Fprintln(w, "  accounts      List stored accounts")
	fmt.Fprintln(w, "  snapshot      Show the latest snapshot of a group")
	fmt.Fprintln(w, "  history       Show the asset history of a group")
	fmt.Fprintln(w, "  budgets       Show the spending targets of a group")
	fmt.Fprintln(w, "  transactions  List transactions in a date range")
	fmt.Fprintln(w, "  exported      List days exported to BigQuery for a group")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

// dispatch runs one inspection command against repo.
func dispatch(ctx context.Context, repo Reader, out io.Writer, cmd string, args []string, now time.Time) error {
	switch cmd {
	case "groups":
		return runGroups(ctx, repo, out)
	case "accounts":
		return runAccounts(ctx, repo, out)
	case "snapshot":
		fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
		groupID := fs.String("group", "0", "Group ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return runSnapshot(ctx, repo, out, *groupID)
	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		groupID := fs.String("group", "0", "Group ID")
		breakdown := fs.Bool("breakdown", false, "Show the category breakdown of the latest day")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return runHistory(ctx, repo, out, *groupID, *breakdown)
	case "budgets":
		fs := flag.NewFlagSet("budgets", flag.ContinueOnError)
		groupID := fs.String("group", "0", "Group ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return runBudgets(ctx, repo, out, *groupID)
	case "transactions":
		today := civil.DateOf(now)
		monthStart := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
		fs := flag.NewFlagSet("transactions", flag.ContinueOnError)
		from := fs.String("from", monthStart.String(), "First day (YYYY-MM-DD)")
		to := fs.String("to", today.String(), "Last day (YYYY-MM-DD)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return runTransactions(ctx, repo, out, *from, *to)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func runGroups(ctx context.Context, repo Reader, out io.Writer) error {
	groups, err := repo.ListGroups(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Groups (%d) ===\n", len(groups))
	for _, g := range groups {
		marker := " "
		if g.IsCurrent {
			marker = "*"
		}
		scraped := "never"
		if g.LastScrapedAt != nil {
			scraped = g.LastScrapedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%s %-12s %-24s last scraped: %s\n", marker, g.ID, g.Name, scraped)
	}
	return nil
}

func runAccounts(ctx context.Context, repo Reader, out io.Writer) error {
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Accounts (%d) ===\n", len(accounts))
	for _, a := range accounts {
		state := "active"
		if !a.IsActive {
			state = "inactive"
		}
		fmt.Fprintf(out, "%-24s %-32s %-8s %s\n", a.MfID, a.Name, a.Type, state)
	}
	return nil
}

func runSnapshot(ctx context.Context, repo Reader, out io.Writer, groupID string) error {
	snap, err := repo.LatestSnapshot(ctx, groupID)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Fprintf(out, "No snapshot stored for group %s\n", groupID)
		return nil
	}
	n, err := repo.CountHoldingValues(ctx, snap.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\n=== Latest Snapshot ===")
	fmt.Fprintf(out, "Group:     %s\n", snap.GroupID)
	fmt.Fprintf(out, "Date:      %s\n", snap.Date)
	fmt.Fprintf(out, "Refreshed: %t\n", snap.RefreshCompleted)
	fmt.Fprintf(out, "Holdings:  %d\n", n)
	return nil
}

func runHistory(ctx context.Context, repo Reader, out io.Writer, groupID string, breakdown bool) error {
	points, err := repo.AssetHistory(ctx, groupID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Asset History %s (%d days) ===\n", groupID, len(points))
	for _, p := range points {
		fmt.Fprintf(out, "%s %14d %+12d\n", p.Date, p.TotalAssets, p.Change)
	}
	if !breakdown || len(points) == 0 {
		return nil
	}

	last := points[len(points)-1]
	categories, err := repo.AssetHistoryCategories(ctx, last.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n--- Breakdown %s ---\n", last.Date)
	for _, c := range categories {
		fmt.Fprintf(out, "%-20s %14d\n", c.CategoryName, c.Amount)
	}
	return nil
}

func runBudgets(ctx context.Context, repo Reader, out io.Writer, groupID string) error {
	targets, err := repo.SpendingTargets(ctx, groupID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Spending Targets %s (%d) ===\n", groupID, len(targets))
	for _, t := range targets {
		fmt.Fprintf(out, "%4d %-20s %s\n", t.LargeCategoryID, t.CategoryName, t.Type)
	}
	return nil
}

func runTransactions(ctx context.Context, repo Reader, out io.Writer, from, to string) error {
	for _, d := range []string{from, to} {
		if _, err := civil.ParseDate(d); err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	txs, err := repo.ListTransactions(ctx, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Transactions %s..%s (%d) ===\n", from, to, len(txs))
	for _, tx := range txs {
		category := "-"
		if tx.Category != nil {
			category = *tx.Category
		}
		fmt.Fprintf(out, "%s %10d %-8s %-16s %s\n", tx.Date, tx.Amount, tx.Type, category, tx.Description)
	}
	return nil
}

func runExported(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("exported", flag.ExitOnError)
	groupID := fs.String("group", "0", "Group ID")
	fs.Parse(args)

	cfg, err := config.LoadCrawler()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.BigQueryProject == "" {
		log.Fatal().Msg("Error: BIGQUERY_PROJECT is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	exporter, err := warehouse.NewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer exporter.Close()

	dates, err := exporter.ListExportedDates(ctx, *groupID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list exported dates")
	}

	fmt.Printf("\n=== Exported Days %s (%d) ===\n", *groupID, len(dates))
	for _, d := range dates {
		fmt.Println(d)
	}
}
