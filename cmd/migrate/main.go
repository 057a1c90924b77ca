package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/store"
	"github.com/dvloznov/mf-dashboard/internal/warehouse"
)

// Migrator applies the relational schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// TableEnsurer creates the warehouse export tables.
type TableEnsurer interface {
	EnsureTables(ctx context.Context) error
}

func main() {
	log := logger.New()

	cfg, err := config.LoadCrawler()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	var (
		projectID = flag.String("project", cfg.BigQueryProject, "GCP project ID for the BigQuery export tables (or set BIGQUERY_PROJECT)")
		datasetID = flag.String("dataset", cfg.BigQueryDataset, "BigQuery dataset ID (or set BIGQUERY_DATASET)")
		skipDB    = flag.Bool("skip-db", false, "Only create the BigQuery tables")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var db Migrator
	if !*skipDB {
		dsn, err := config.DatabaseURL()
		if err != nil {
			log.Fatal().Err(err).Msg("Database not configured")
		}
		repo, err := store.Open(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer repo.Close()
		db = repo
	}

	var wh TableEnsurer
	if *projectID != "" {
		exporter, err := warehouse.NewExporter(ctx, *projectID, *datasetID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer exporter.Close()
		wh = exporter
		log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")
	}

	if err := migrate(ctx, db, wh); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

// migrate applies whichever schemas are configured. Nil targets are skipped;
// having neither is an error.
func migrate(ctx context.Context, db Migrator, wh TableEnsurer) error {
	log := logger.FromContext(ctx)

	if db == nil && wh == nil {
		return fmt.Errorf("nothing to migrate: database skipped and no BigQuery project set")
	}

	if db != nil {
		log.Info().Msg("Migrating database schema")
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		log.Info().Msg("Database schema is up to date")
	} else {
		log.Info().Msg("Skipping database schema")
	}

	if wh != nil {
		log.Info().Msg("Ensuring BigQuery export tables")
		if err := wh.EnsureTables(ctx); err != nil {
			return fmt.Errorf("bigquery: %w", err)
		}
		log.Info().Msg("BigQuery export tables are up to date")
	} else {
		log.Info().Msg("BIGQUERY_PROJECT not set, skipping export tables")
	}

	return nil
}
