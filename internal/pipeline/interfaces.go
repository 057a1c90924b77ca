package pipeline

//go:generate mockgen -destination=mocks/mock_pipeline.go -package=mocks -source=interfaces.go

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

// Session is an authenticated browser session.
type Session interface {
	WithPage(ctx context.Context, fn func(context.Context, browser.Page) error) error
	Close() error
}

// SessionOpener starts authenticated sessions.
type SessionOpener interface {
	Open(ctx context.Context, opts browser.Options) (Session, error)
}

// Scraper extracts one run's raw records from a signed-in page.
type Scraper interface {
	ScrapeAll(ctx context.Context, page browser.Page, opts scraper.Options) (*scraper.Result, error)
}

// Store persists built aggregates.
type Store interface {
	SaveScrapedData(ctx context.Context, data *domain.ScrapedData) (*store.SaveResult, error)
	SaveGroupOnlyData(ctx context.Context, data *domain.GroupOnlyScrapedData) error
	HasExistingData(ctx context.Context) (bool, error)
}

// Exporter mirrors persisted results into the analytics warehouse.
type Exporter interface {
	ExportAssetHistory(ctx context.Context, groupID string, points []domain.AssetHistoryPoint) error
	ExportHoldingValues(ctx context.Context, runID string, snapshotDate civil.Date, holdings []domain.Holding) error
}

// Revalidator tells the dashboard that new data is available.
type Revalidator interface {
	Notify(ctx context.Context)
}
