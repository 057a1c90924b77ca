package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/diagnostics"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/revalidate"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
	"github.com/dvloznov/mf-dashboard/internal/warehouse"
)

// NewDeps assembles production collaborators from crawler settings.
// loadLogin may be nil, in which case credentials are read when a session opens.
// The returned cleanup releases the screenshot sink and the warehouse client.
func NewDeps(ctx context.Context, cfg *config.Crawler, store Store, loadLogin func() (*auth.Login, error)) (Deps, func(), error) {
	log := logger.FromContext(ctx)

	sink, closeSink, err := diagnostics.NewSink(ctx, cfg.ScreenshotDir)
	if err != nil {
		return Deps{}, nil, fmt.Errorf("NewDeps: screenshot sink: %w", err)
	}
	closers := []func() error{closeSink}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("Failed to release crawl dependency")
			}
		}
	}

	deps := Deps{
		Sessions: &BrowserOpener{Config: browser.Config{
			BaseURL:           cfg.BaseURL,
			AuthStatePath:     cfg.AuthStatePath,
			Headless:          cfg.Headless,
			NavigationTimeout: cfg.NavigationTimeout,
			Screenshots:       sink,
			LoadLogin:         loadLogin,
		}},
		Scraper:     scraper.New(cfg.BaseURL, sink, cfg.RefreshTimeout),
		Store:       store,
		Revalidator: revalidate.New(cfg.RevalidationURL, cfg.RevalidationToken),
	}

	if cfg.BigQueryProject != "" {
		exporter, err := warehouse.NewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			cleanup()
			return Deps{}, nil, fmt.Errorf("NewDeps: warehouse exporter: %w", err)
		}
		closers = append(closers, exporter.Close)
		deps.Exporter = exporter
	} else {
		log.Debug().Msg("BIGQUERY_PROJECT not set, warehouse export disabled")
	}

	return deps, cleanup, nil
}
