// Package scraper extracts typed records from the aggregation site's pages.
//
// Every Parse* function is a pure function of page HTML. The Scraper drives
// a browser.Page to the right page and group selection before parsing.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/diagnostics"
	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// ErrExtraction wraps every failure to read an entity from the site.
var ErrExtraction = errors.New("extraction failed")

const defaultPollInterval = 5 * time.Second

// Options select what ScrapeAll does.
type Options struct {
	// SkipRefresh reuses the data already aggregated by the site and
	// tolerates per-entity failures.
	SkipRefresh bool
	// GroupOnly skips the global entities and the no-group bucket.
	GroupOnly bool
}

// Scraper extracts every entity the pipeline persists.
type Scraper struct {
	BaseURL        string
	Screenshots    diagnostics.Sink
	RefreshTimeout time.Duration
	PollInterval   time.Duration
}

// New creates a Scraper for the site at baseURL.
func New(baseURL string, screenshots diagnostics.Sink, refreshTimeout time.Duration) *Scraper {
	return &Scraper{
		BaseURL:        baseURL,
		Screenshots:    screenshots,
		RefreshTimeout: refreshTimeout,
		PollInterval:   defaultPollInterval,
	}
}

// ScrapeAll walks every group. The group selected on the site before the
// call is selected again afterwards, also when extraction fails.
func (s *Scraper) ScrapeAll(ctx context.Context, page browser.Page, opts Options) (*Result, error) {
	log := logger.FromContext(ctx)

	groups, err := s.Groups(ctx, page)
	if err != nil {
		return nil, s.wrap("groups", err)
	}

	res := &Result{DefaultGroup: groups.Current()}
	selected := groups.CurrentID
	defer func() {
		if selected == groups.CurrentID {
			return
		}
		if err := s.selectGroup(ctx, page, groups.CurrentID); err != nil {
			log.Warn().Err(err).Str("group_id", groups.CurrentID).Msg("Failed to restore group selection")
		}
	}()

	switchTo := func(id string) error {
		if selected == id {
			return nil
		}
		if err := s.selectGroup(ctx, page, id); err != nil {
			return s.wrap("select group "+id, err)
		}
		selected = id
		return nil
	}

	if !opts.GroupOnly {
		if err := switchTo(domain.NoGroupID); err != nil {
			return nil, err
		}

		global := &GlobalData{}
		if !opts.SkipRefresh {
			global.RefreshCompleted = s.refresh(ctx, page)
		}

		steps := []struct {
			label string
			run   func() error
		}{
			{"accounts", func() (err error) { global.Accounts, err = s.Accounts(ctx, page); return err }},
			{"portfolio", func() error {
				rows, err := s.Portfolio(ctx, page)
				global.Holdings = append(global.Holdings, rows...)
				return err
			}},
			{"liabilities", func() error {
				rows, err := s.Liabilities(ctx, page)
				global.Holdings = append(global.Holdings, rows...)
				return err
			}},
			{"transactions", func() (err error) { global.Transactions, err = s.Transactions(ctx, page); return err }},
		}
		for _, step := range steps {
			if err := s.extract(ctx, page, opts, res, step.label, step.run); err != nil {
				return nil, err
			}
		}
		res.Global = global
	}

	for _, g := range groups.Groups {
		if opts.GroupOnly && g.IsNoGroup() {
			continue
		}
		if err := switchTo(g.ID); err != nil {
			return nil, err
		}

		gd, err := s.groupData(ctx, page, opts, res, g)
		if err != nil {
			return nil, err
		}
		res.Groups = append(res.Groups, *gd)
		log.Info().Str("group_id", g.ID).Str("group", g.Name).
			Int("accounts", len(gd.Accounts)).
			Int("history_points", len(gd.AssetHistory)).
			Int("spending_targets", len(gd.SpendingTargets)).
			Msg("Scraped group")
	}

	return res, nil
}

func (s *Scraper) groupData(ctx context.Context, page browser.Page, opts Options, res *Result, g domain.Group) (*GroupData, error) {
	gd := &GroupData{Group: g}
	label := func(entity string) string { return entity + " group " + g.ID }

	if g.IsNoGroup() && res.Global != nil {
		// the global account list was read under this same selection
		gd.Accounts = res.Global.Accounts
	} else {
		err := s.extract(ctx, page, opts, res, label("accounts"), func() (err error) {
			gd.Accounts, err = s.Accounts(ctx, page)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	err := s.extract(ctx, page, opts, res, label("asset history"), func() (err error) {
		gd.AssetHistory, err = s.AssetHistory(ctx, page)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.extract(ctx, page, opts, res, label("spending targets"), func() (err error) {
		gd.SpendingTargets, err = s.SpendingTargets(ctx, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return gd, nil
}

// extract runs one entity extraction with an error screenshot. In
// skip-refresh mode a failure is recorded and swallowed.
func (s *Scraper) extract(ctx context.Context, page browser.Page, opts Options, res *Result, label string, fn func() error) error {
	err := browser.WithErrorScreenshot(ctx, page, s.Screenshots, label, fn)
	if err == nil {
		return nil
	}
	if opts.SkipRefresh {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("entity", label).Msg("Skipping entity after extraction failure")
		res.Skipped = append(res.Skipped, label)
		return nil
	}
	return s.wrap(label, err)
}

func (s *Scraper) wrap(label string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExtraction, label, err)
}

// load navigates to path and returns the document once waitFor is visible.
func (s *Scraper) load(ctx context.Context, page browser.Page, path, waitFor string) (string, error) {
	if err := page.Navigate(ctx, s.BaseURL+path); err != nil {
		return "", err
	}
	if waitFor != "" {
		if err := page.WaitVisible(ctx, waitFor); err != nil {
			return "", err
		}
	}
	return page.HTML(ctx)
}

// Accounts extracts the registered accounts of the selected group.
func (s *Scraper) Accounts(ctx context.Context, page browser.Page) ([]Account, error) {
	html, err := s.load(ctx, page, accountsPath, accountTableSelector)
	if err != nil {
		return nil, err
	}
	return ParseAccounts(html)
}

// Portfolio extracts asset holdings.
func (s *Scraper) Portfolio(ctx context.Context, page browser.Page) ([]HoldingRow, error) {
	html, err := s.load(ctx, page, portfolioPath, "")
	if err != nil {
		return nil, err
	}
	return ParsePortfolio(html)
}

// Liabilities extracts liability holdings.
func (s *Scraper) Liabilities(ctx context.Context, page browser.Page) ([]HoldingRow, error) {
	html, err := s.load(ctx, page, liabilityPath, "")
	if err != nil {
		return nil, err
	}
	return ParseLiabilities(html)
}

// Transactions extracts the current month's cash flow.
func (s *Scraper) Transactions(ctx context.Context, page browser.Page) ([]TransactionRow, error) {
	html, err := s.load(ctx, page, cashFlowPath, cashFlowTableSelector)
	if err != nil {
		return nil, err
	}
	return ParseTransactions(html)
}

// Groups extracts the selectable groups and the current selection.
func (s *Scraper) Groups(ctx context.Context, page browser.Page) (*GroupList, error) {
	var list *GroupList
	err := browser.WithErrorScreenshot(ctx, page, s.Screenshots, "groups", func() error {
		html, err := s.load(ctx, page, groupsPath, groupSelectSelector)
		if err != nil {
			return err
		}
		list, err = ParseGroups(html)
		return err
	})
	return list, err
}

// AssetHistory extracts the selected group's daily totals.
func (s *Scraper) AssetHistory(ctx context.Context, page browser.Page) ([]domain.AssetHistoryPoint, error) {
	html, err := s.load(ctx, page, historyPath, "")
	if err != nil {
		return nil, err
	}
	return ParseAssetHistory(html)
}

// SpendingTargets extracts the selected group's budget.
func (s *Scraper) SpendingTargets(ctx context.Context, page browser.Page) ([]domain.SpendingTarget, error) {
	html, err := s.load(ctx, page, spendingTargetPath, "")
	if err != nil {
		return nil, err
	}
	return ParseSpendingTargets(html)
}

// selectGroup switches the site's group selection and confirms it took effect.
func (s *Scraper) selectGroup(ctx context.Context, page browser.Page, id string) error {
	return browser.WithErrorScreenshot(ctx, page, s.Screenshots, "select group "+id, func() error {
		if _, err := s.load(ctx, page, groupsPath, groupSelectSelector); err != nil {
			return err
		}
		if err := page.SetValue(ctx, groupSelectSelector, id); err != nil {
			return err
		}
		if err := page.Submit(ctx, groupSelectSelector); err != nil {
			return err
		}

		html, err := s.load(ctx, page, groupsPath, groupSelectSelector)
		if err != nil {
			return err
		}
		list, err := ParseGroups(html)
		if err != nil {
			return err
		}
		if list.CurrentID != id {
			return fmt.Errorf("selectGroup: site still shows group %s, want %s", list.CurrentID, id)
		}
		return nil
	})
}

// refresh asks the site to re-aggregate every account and waits until no
// account is updating. It reports whether the refresh finished in time;
// failures only cost freshness and are logged.
func (s *Scraper) refresh(ctx context.Context, page browser.Page) bool {
	log := logger.FromContext(ctx)

	if _, err := s.load(ctx, page, accountsPath, refreshAllSelector); err != nil {
		log.Warn().Err(err).Msg("Refresh button not available")
		return false
	}
	if err := page.Click(ctx, refreshAllSelector); err != nil {
		log.Warn().Err(err).Msg("Failed to start refresh")
		return false
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(s.RefreshTimeout)

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}

		accounts, err := s.Accounts(ctx, page)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to poll refresh status")
		} else if !anyUpdating(accounts) {
			log.Info().Msg("Refresh completed")
			return true
		}

		if time.Now().After(deadline) {
			log.Warn().Dur("timeout", s.RefreshTimeout).Msg("Refresh did not complete in time")
			return false
		}
	}
}
