package pipeline_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/browser/browsertest"
	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/pipeline"
	mock_pipeline "github.com/dvloznov/mf-dashboard/internal/pipeline/mocks"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

var (
	jst     = time.FixedZone("JST", 9*60*60)
	runTime = time.Date(2024, 1, 20, 7, 30, 0, 0, jst)

	noGroup = domain.Group{ID: domain.NoGroupID, Name: domain.NoGroupName}
	family  = domain.Group{ID: "g-family", Name: "家族", IsCurrent: true}
)

func ptr[T any](v T) *T { return &v }

func fixtureAccounts() []scraper.Account {
	return []scraper.Account{{
		MfID:           "acc-bank",
		Name:           "三井住友銀行",
		ConnectionType: "自動連携",
		Institution:    "三井住友銀行",
		Category:       "銀行",
		Status:         domain.AccountStatusOK,
		TotalAssets:    ptr(int64(1200000)),
	}}
}

func fixtureHistory() []domain.AssetHistoryPoint {
	return []domain.AssetHistoryPoint{
		{
			Date:        civil.Date{Year: 2024, Month: 1, Day: 19},
			TotalAssets: 1200000,
			Change:      3000,
			Categories:  []domain.AssetHistoryCategory{{Name: "預金・現金・暗号資産", Amount: 1200000}},
		},
	}
}

func fullResult() *scraper.Result {
	return &scraper.Result{
		Global: &scraper.GlobalData{
			Accounts: fixtureAccounts(),
			Holdings: []scraper.HoldingRow{{
				MfID:        "h-dep-1",
				AccountName: "三井住友銀行",
				Name:        "普通預金",
				Category:    "預金・現金・暗号資産",
				Type:        domain.HoldingTypeAsset,
				Amount:      ptr(int64(1200000)),
			}},
			Transactions: []scraper.TransactionRow{{
				MfID:        "tx-1",
				Date:        civil.Date{Year: 2024, Month: 1, Day: 15},
				AccountName: "三井住友銀行",
				Category:    "食費",
				SubCategory: "食料品",
				Description: "スーパー",
				Amount:      -3200,
				Type:        domain.TransactionTypeExpense,
			}},
			RefreshCompleted: true,
		},
		Groups: []scraper.GroupData{
			{Group: noGroup, Accounts: fixtureAccounts(), AssetHistory: fixtureHistory()},
			{Group: family, Accounts: fixtureAccounts(), AssetHistory: fixtureHistory()},
		},
		DefaultGroup: family,
	}
}

func groupOnlyResult() *scraper.Result {
	return &scraper.Result{
		Groups:       []scraper.GroupData{{Group: family, Accounts: fixtureAccounts(), AssetHistory: fixtureHistory()}},
		DefaultGroup: family,
	}
}

type mocks struct {
	opener      *mock_pipeline.MockSessionOpener
	session     *mock_pipeline.MockSession
	scraper     *mock_pipeline.MockScraper
	store       *mock_pipeline.MockStore
	exporter    *mock_pipeline.MockExporter
	revalidator *mock_pipeline.MockRevalidator
}

func newMocks(ctrl *gomock.Controller) *mocks {
	return &mocks{
		opener:      mock_pipeline.NewMockSessionOpener(ctrl),
		session:     mock_pipeline.NewMockSession(ctrl),
		scraper:     mock_pipeline.NewMockScraper(ctrl),
		store:       mock_pipeline.NewMockStore(ctrl),
		exporter:    mock_pipeline.NewMockExporter(ctrl),
		revalidator: mock_pipeline.NewMockRevalidator(ctrl),
	}
}

func (m *mocks) deps() pipeline.Deps {
	return pipeline.Deps{
		Sessions:    m.opener,
		Scraper:     m.scraper,
		Store:       m.store,
		Exporter:    m.exporter,
		Revalidator: m.revalidator,
		Now:         func() time.Time { return runTime },
	}
}

// expectSession wires Open and WithPage to hand a fake page to the scraper.
func (m *mocks) expectSession(useStoredAuth bool) {
	m.opener.EXPECT().Open(gomock.Any(), browser.Options{UseStoredAuth: useStoredAuth}).Return(m.session, nil)
	m.session.EXPECT().WithPage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, browser.Page) error) error {
			return fn(ctx, browsertest.New(nil))
		})
	m.session.EXPECT().Close().Return(nil).Times(1)
}

func TestCrawl_FullRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(true)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), scraper.Options{}).Return(fullResult(), nil)

	var exportedRunID string
	gomock.InOrder(
		m.store.EXPECT().SaveScrapedData(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, data *domain.ScrapedData) (*store.SaveResult, error) {
				assert.Equal(t, domain.NoGroupID, data.Group.ID)
				assert.True(t, data.MembershipKnown)
				assert.True(t, data.RefreshCompleted)
				assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 20}, data.SnapshotDate)
				assert.Len(t, data.Holdings, 1)
				assert.Len(t, data.Transactions, 1)
				return &store.SaveResult{SnapshotID: 7, AccountIDs: map[string]uint{"acc-bank": 1}}, nil
			}),
		m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, data *domain.GroupOnlyScrapedData) error {
				assert.Equal(t, family, data.Group)
				assert.Equal(t, []string{"acc-bank"}, data.MemberAccountMfIDs)
				return nil
			}),
		m.exporter.EXPECT().ExportAssetHistory(gomock.Any(), domain.NoGroupID, fixtureHistory()).Return(nil),
		m.exporter.EXPECT().ExportHoldingValues(gomock.Any(), gomock.Any(), civil.Date{Year: 2024, Month: 1, Day: 20}, gomock.Len(1)).DoAndReturn(
			func(_ context.Context, runID string, _ civil.Date, _ []domain.Holding) error {
				exportedRunID = runID
				return nil
			}),
		m.exporter.EXPECT().ExportAssetHistory(gomock.Any(), family.ID, fixtureHistory()).Return(nil),
		m.revalidator.EXPECT().Notify(gomock.Any()),
	)

	state, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{Mode: pipeline.ModeFull, UseStoredAuth: true})
	require.NoError(t, err)

	assert.NotEmpty(t, state.RunID)
	assert.Equal(t, state.RunID, exportedRunID)
	assert.Equal(t, uint(7), state.Saved.SnapshotID)
	assert.Equal(t, 1, state.GroupsSaved)
	assert.Nil(t, state.Session)
}

func TestCrawl_GroupOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), scraper.Options{SkipRefresh: true, GroupOnly: true}).Return(groupOnlyResult(), nil)
	m.store.EXPECT().HasExistingData(gomock.Any()).Return(true, nil)
	m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).Return(nil)
	m.exporter.EXPECT().ExportAssetHistory(gomock.Any(), family.ID, gomock.Any()).Return(nil)
	m.revalidator.EXPECT().Notify(gomock.Any())

	state, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{Mode: pipeline.ModeGroupOnly, SkipRefresh: true})
	require.NoError(t, err)
	assert.Nil(t, state.Data)
	assert.Equal(t, 1, state.GroupsSaved)
}

func TestCrawl_AuthFailureStopsBeforeScrape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.opener.EXPECT().Open(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: credentials or one-time code rejected", browser.ErrAuth))

	_, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrAuth)
	assert.Contains(t, err.Error(), "pipeline step 1 failed")
	assert.Equal(t, pipeline.ExitAuth, pipeline.ExitCode(err))
}

func TestCrawl_ExtractionFailureClosesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: accounts: waiting for table", scraper.ErrExtraction))

	_, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrExtraction)
	assert.Equal(t, pipeline.ExitFailure, pipeline.ExitCode(err))
}

func TestCrawl_PersistenceFailureSkipsRevalidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(fullResult(), nil)
	m.store.EXPECT().SaveScrapedData(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: SaveScrapedData: accounts: %w", store.ErrPersistence, errors.New("connection reset")))

	_, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrPersistence)
	assert.Equal(t, pipeline.ExitPersistence, pipeline.ExitCode(err))
}

func TestCrawl_GroupSaveFailureAbortsRemainingGroups(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	res := fullResult()
	invest := domain.Group{ID: "g-invest", Name: "投資"}
	res.Groups = append(res.Groups, scraper.GroupData{Group: invest, Accounts: fixtureAccounts()})

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(res, nil)
	m.store.EXPECT().SaveScrapedData(gomock.Any(), gomock.Any()).Return(&store.SaveResult{SnapshotID: 1}, nil)
	m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("%w: SaveGroupOnlyData: membership: %w", store.ErrPersistence, errors.New("deadlock"))).Times(1)

	state, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group g-family")
	assert.Equal(t, 0, state.GroupsSaved)
	assert.NotNil(t, state.Saved)
}

func TestCrawl_ExportFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(fullResult(), nil)
	m.store.EXPECT().SaveScrapedData(gomock.Any(), gomock.Any()).Return(&store.SaveResult{SnapshotID: 1}, nil)
	m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).Return(nil)
	m.exporter.EXPECT().ExportAssetHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded")).Times(2)
	m.exporter.EXPECT().ExportHoldingValues(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))
	m.revalidator.EXPECT().Notify(gomock.Any())

	_, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{})
	require.NoError(t, err)
}

func TestCrawl_OptionalCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(groupOnlyResult(), nil)
	m.store.EXPECT().HasExistingData(gomock.Any()).Return(false, nil)
	m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).Return(nil)

	deps := m.deps()
	deps.Exporter = nil
	deps.Revalidator = nil

	_, err := pipeline.Crawl(context.Background(), deps, pipeline.Options{Mode: pipeline.ModeGroupOnly})
	require.NoError(t, err)
}

func TestCrawl_FullScrapeWithoutGlobalDataFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(groupOnlyResult(), nil)

	_, err := pipeline.Crawl(context.Background(), m.deps(), pipeline.Options{Mode: pipeline.ModeFull})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrExtraction)
	assert.Contains(t, err.Error(), "pipeline step 3 failed")
}

func TestCrawl_LogLinesCarryRunID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := newMocks(ctrl)

	m.expectSession(false)
	m.scraper.EXPECT().ScrapeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(groupOnlyResult(), nil)
	m.store.EXPECT().HasExistingData(gomock.Any()).Return(true, nil)
	m.store.EXPECT().SaveGroupOnlyData(gomock.Any(), gomock.Any()).Return(nil)
	m.exporter.EXPECT().ExportAssetHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.revalidator.EXPECT().Notify(gomock.Any())

	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&buf))

	state, err := pipeline.Crawl(ctx, m.deps(), pipeline.Options{Mode: pipeline.ModeGroupOnly})
	require.NoError(t, err)

	lines := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		assert.Equal(t, state.RunID, entry["run_id"], "line: %s", sc.Text())
		lines++
	}
	assert.Greater(t, lines, 2)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, pipeline.ExitOK},
		{"missing credentials", fmt.Errorf("pipeline step 1 failed: %w", auth.ErrMissingCredentials), pipeline.ExitConfig},
		{"missing totp secret", auth.ErrMissingTOTPSecret, pipeline.ExitConfig},
		{"database not configured", fmt.Errorf("opening store: %w", config.ErrDatabaseNotConfigured), pipeline.ExitConfig},
		{"config", fmt.Errorf("%w: HEADLESS", pipeline.ErrConfig), pipeline.ExitConfig},
		{"auth", fmt.Errorf("%w: rejected", pipeline.ErrAuth), pipeline.ExitAuth},
		{"persistence", fmt.Errorf("%w: accounts", pipeline.ErrPersistence), pipeline.ExitPersistence},
		{"extraction", fmt.Errorf("%w: groups", pipeline.ErrExtraction), pipeline.ExitFailure},
		{"other", errors.New("boom"), pipeline.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.ExitCode(tt.err))
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]pipeline.Mode{"": pipeline.ModeFull, "full": pipeline.ModeFull, "group-only": pipeline.ModeGroupOnly} {
		got, ok := pipeline.ParseMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := pipeline.ParseMode("partial")
	assert.False(t, ok)
}

func TestNewDeps_LocalSinkWithoutWarehouse(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mock_pipeline.NewMockStore(ctrl)
	cfg := &config.Crawler{
		BaseURL:        config.DefaultBaseURL,
		ScreenshotDir:  t.TempDir(),
		RefreshTimeout: time.Minute,
	}

	deps, cleanup, err := pipeline.NewDeps(logger.WithContext(context.Background(), logger.Nop()), cfg, st, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.Exporter)
	assert.NotNil(t, deps.Scraper)
	assert.NotNil(t, deps.Revalidator)
	assert.Equal(t, st, deps.Store)

	opener, ok := deps.Sessions.(*pipeline.BrowserOpener)
	require.True(t, ok)
	assert.Equal(t, config.DefaultBaseURL, opener.Config.BaseURL)
	assert.NotNil(t, opener.Config.Screenshots)
}

func TestNewDeps_BadScreenshotTarget(t *testing.T) {
	cfg := &config.Crawler{ScreenshotDir: "gs://"}

	_, _, err := pipeline.NewDeps(logger.WithContext(context.Background(), logger.Nop()), cfg, nil, nil)
	assert.Error(t, err)
}
