// Package pipeline sequences a crawl: sign in, extract, build, persist and
// notify downstream consumers.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// Deps are the collaborators of a crawl. Exporter and Revalidator are optional.
type Deps struct {
	Sessions    SessionOpener
	Scraper     Scraper
	Store       Store
	Exporter    Exporter
	Revalidator Revalidator

	Now func() time.Time
}

// NewCrawlPipeline creates the standard crawl pipeline.
func NewCrawlPipeline(deps Deps) *Pipeline {
	steps := []PipelineStep{
		&OpenSessionStep{Sessions: deps.Sessions},
		&ScrapeStep{Scraper: deps.Scraper},
		&BuildStep{},
		&PersistStep{Store: deps.Store},
	}
	if deps.Exporter != nil {
		steps = append(steps, &ExportStep{Exporter: deps.Exporter})
	}
	if deps.Revalidator != nil {
		steps = append(steps, &RevalidateStep{Revalidator: deps.Revalidator})
	}
	return NewPipeline(steps...)
}

// Crawl runs one crawl. Every log line of the run carries its run_id.
func Crawl(ctx context.Context, deps Deps, opts Options) (*PipelineState, error) {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	state := &PipelineState{
		RunID:     uuid.NewString(),
		Options:   opts,
		StartedAt: now(),
	}

	log := logger.FromContext(ctx).With().Str("run_id", state.RunID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("mode", string(opts.Mode)).
		Bool("skip_refresh", opts.SkipRefresh).
		Bool("use_stored_auth", opts.UseStoredAuth).
		Msg("Starting crawl")

	if err := NewCrawlPipeline(deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Crawl failed")
		return state, err
	}

	log.Info().
		Int("groups_saved", state.GroupsSaved).
		Dur("duration", now().Sub(state.StartedAt)).
		Msg("Crawl completed")
	return state, nil
}

// BrowserOpener opens real Chrome sessions.
type BrowserOpener struct {
	Config browser.Config
}

// Open implements SessionOpener.
func (o *BrowserOpener) Open(ctx context.Context, opts browser.Options) (Session, error) {
	s, err := browser.Open(ctx, o.Config, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var _ SessionOpener = (*BrowserOpener)(nil)
