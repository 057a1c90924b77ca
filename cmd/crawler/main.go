package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/pipeline"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

func main() {
	log := logger.New()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(pipeline.ExitConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logger.WithContext(ctx, log)

	err = run(ctx, opts)
	stop()
	os.Exit(pipeline.ExitCode(err))
}

func parseFlags(args []string, output io.Writer) (pipeline.Options, error) {
	fs := flag.NewFlagSet("crawler", flag.ContinueOnError)
	fs.SetOutput(output)

	skipRefresh := fs.Bool("skip-refresh", false, "Do not trigger the account refresh before scraping")
	groupOnly := fs.Bool("group-only", false, "Only scrape per-group data (accounts, history, budgets)")
	useStoredAuth := fs.Bool("use-stored-auth", false, "Reuse the saved session state and skip sign-in when still valid")

	if err := fs.Parse(args); err != nil {
		return pipeline.Options{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(output, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return pipeline.Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts := pipeline.Options{
		Mode:          pipeline.ModeFull,
		SkipRefresh:   *skipRefresh,
		UseStoredAuth: *useStoredAuth,
	}
	if *groupOnly {
		opts.Mode = pipeline.ModeGroupOnly
	}
	return opts, nil
}

func run(ctx context.Context, opts pipeline.Options) error {
	log := logger.FromContext(ctx)

	cfg, err := config.LoadCrawler()
	if err != nil {
		log.Error().Err(err).Msg("Invalid crawler configuration")
		return fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
	}

	// Credentials are checked before anything touches the database or the browser.
	login, err := auth.LoadLogin()
	if err != nil {
		log.Error().Err(err).Msg("Missing MoneyForward credentials")
		return err
	}

	dsn, err := config.DatabaseURL()
	if err != nil {
		log.Error().Err(err).Msg("Database not configured")
		return err
	}
	repo, err := store.Open(dsn)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database")
		return fmt.Errorf("%w: %w", pipeline.ErrPersistence, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	deps, cleanup, err := pipeline.NewDeps(ctx, cfg, repo, func() (*auth.Login, error) { return login, nil })
	if err != nil {
		log.Error().Err(err).Msg("Failed to set up crawl")
		return fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
	}
	defer cleanup()

	_, err = pipeline.Crawl(ctx, deps, opts)
	return err
}
