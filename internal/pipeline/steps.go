package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/builder"
	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

// PipelineStep represents a single step of a crawl.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Options are the per-run choices of a crawl.
type Options struct {
	Mode          Mode
	SkipRefresh   bool
	UseStoredAuth bool
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID     string
	Options   Options
	StartedAt time.Time

	Session Session
	Result  *scraper.Result

	Data      *domain.ScrapedData // nil in group-only mode
	GroupData []domain.GroupOnlyScrapedData

	Saved       *store.SaveResult
	GroupsSaved int
}

// closeSession releases the browser. Safe to call more than once.
func (s *PipelineState) closeSession(ctx context.Context) {
	if s.Session == nil {
		return
	}
	if err := s.Session.Close(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Closing browser session")
	}
	s.Session = nil
}

// Step 1: OpenSessionStep signs in to the aggregation site.
type OpenSessionStep struct {
	Sessions SessionOpener
}

func (s *OpenSessionStep) Execute(ctx context.Context, state *PipelineState) error {
	session, err := s.Sessions.Open(ctx, browser.Options{UseStoredAuth: state.Options.UseStoredAuth})
	if err != nil {
		return fmt.Errorf("OpenSessionStep: %w", err)
	}
	state.Session = session
	return nil
}

// Step 2: ScrapeStep runs the extractors on one page and closes the browser.
type ScrapeStep struct {
	Scraper Scraper
}

func (s *ScrapeStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	if state.Session == nil {
		return errors.New("ScrapeStep: no open session")
	}
	defer state.closeSession(ctx)

	opts := scraper.Options{
		SkipRefresh: state.Options.SkipRefresh,
		GroupOnly:   state.Options.Mode == ModeGroupOnly,
	}
	err := state.Session.WithPage(ctx, func(ctx context.Context, page browser.Page) error {
		res, err := s.Scraper.ScrapeAll(ctx, page, opts)
		if err != nil {
			return err
		}
		state.Result = res
		return nil
	})
	if err != nil {
		return fmt.Errorf("ScrapeStep: %w", err)
	}

	if len(state.Result.Skipped) > 0 {
		log.Warn().Strs("skipped", state.Result.Skipped).Msg("Some entities were skipped")
	}
	return nil
}

// Step 3: BuildStep turns the raw records into storage-ready aggregates.
type BuildStep struct{}

func (s *BuildStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Result == nil {
		return errors.New("BuildStep: nothing scraped")
	}
	data, groups := builder.FromResult(state.Result, builder.Options{ScrapedAt: state.StartedAt})
	if state.Options.Mode == ModeFull && data == nil {
		return fmt.Errorf("BuildStep: %w: no-group data missing from a full scrape", ErrExtraction)
	}
	state.Data = data
	state.GroupData = groups

	log := logger.FromContext(ctx)
	ev := log.Info().Int("groups", len(groups))
	if data != nil {
		ev = ev.Int("accounts", len(data.Accounts)).
			Int("holdings", len(data.Holdings)).
			Int("transactions", len(data.Transactions))
	}
	ev.Msg("Built aggregates")
	return nil
}

// Step 4: PersistStep saves the no-group aggregate first, then each group.
// The first failure aborts the remaining saves.
type PersistStep struct {
	Store Store
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	if state.Data != nil {
		saved, err := s.Store.SaveScrapedData(ctx, state.Data)
		if err != nil {
			return fmt.Errorf("PersistStep: %w", err)
		}
		state.Saved = saved
		log.Info().Uint("snapshot_id", saved.SnapshotID).Int("accounts", len(saved.AccountIDs)).Msg("Saved no-group data")
	} else {
		existing, err := s.Store.HasExistingData(ctx)
		if err != nil {
			return fmt.Errorf("PersistStep: %w", err)
		}
		if !existing {
			log.Warn().Msg("Group-only run against an empty store, accounts and holdings stay empty until a full run")
		}
	}

	for i := range state.GroupData {
		g := &state.GroupData[i]
		if err := s.Store.SaveGroupOnlyData(ctx, g); err != nil {
			return fmt.Errorf("PersistStep: group %s: %w", g.Group.ID, err)
		}
		state.GroupsSaved++
		log.Info().Str("group_id", g.Group.ID).Str("group", g.Group.Name).Msg("Saved group data")
	}
	return nil
}

// Step 5: ExportStep mirrors the run into the warehouse. Failures are logged only.
type ExportStep struct {
	Exporter Exporter
}

func (s *ExportStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Exporter == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	if state.Data != nil {
		if err := s.Exporter.ExportAssetHistory(ctx, state.Data.Group.ID, state.Data.AssetHistory); err != nil {
			log.Error().Err(err).Str("group_id", state.Data.Group.ID).Msg("Warehouse export of asset history failed")
		}
		if err := s.Exporter.ExportHoldingValues(ctx, state.RunID, state.Data.SnapshotDate, state.Data.Holdings); err != nil {
			log.Error().Err(err).Msg("Warehouse export of holding values failed")
		}
	}
	for _, g := range state.GroupData {
		if err := s.Exporter.ExportAssetHistory(ctx, g.Group.ID, g.AssetHistory); err != nil {
			log.Error().Err(err).Str("group_id", g.Group.ID).Msg("Warehouse export of asset history failed")
		}
	}
	return nil
}

// Step 6: RevalidateStep notifies the dashboard. It never fails the run.
type RevalidateStep struct {
	Revalidator Revalidator
}

func (s *RevalidateStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Revalidator == nil {
		return nil
	}
	s.Revalidator.Notify(ctx)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
// The browser session is closed on every exit path.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	defer state.closeSession(ctx)

	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
