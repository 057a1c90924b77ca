package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/mf-dashboard/internal/browser/browsertest"
	"github.com/dvloznov/mf-dashboard/internal/domain"
)

const testBaseURL = "https://mf.test"

// fakeSite serves a different group view depending on the selected group,
// switching when the group form is submitted.
type fakeSite struct {
	page *browsertest.FakePage

	mu       sync.Mutex
	selected string
	pending  string
	perGroup map[string]map[string]string
}

var groupNames = []struct{ id, name string }{
	{domain.NoGroupID, domain.NoGroupName},
	{"g-family", "家族"},
	{"g-invest", "投資"},
}

func groupsHTML(selected string) string {
	var b strings.Builder
	b.WriteString(`<html><body><select id="group_id_hash">`)
	for _, g := range groupNames {
		sel := ""
		if g.id == selected {
			sel = ` selected="selected"`
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, g.id, sel, g.name)
	}
	b.WriteString(`</select></body></html>`)
	return b.String()
}

func newFakeSite(t *testing.T, initial string) *fakeSite {
	emptyAccounts := `<table id="account-table"><tbody></tbody></table>`
	site := &fakeSite{
		perGroup: map[string]map[string]string{
			domain.NoGroupID: {
				accountsPath:       fixture(t, "accounts.html"),
				historyPath:        fixture(t, "history.html"),
				spendingTargetPath: fixture(t, "budgets.html"),
			},
			"g-family": {
				accountsPath:       fixture(t, "accounts_family.html"),
				historyPath:        fixture(t, "history.html"),
				spendingTargetPath: `<table id="spending-targets"><tbody></tbody></table>`,
			},
			"g-invest": {
				accountsPath:       emptyAccounts,
				historyPath:        `<html><body></body></html>`,
				spendingTargetPath: `<table id="spending-targets"><tbody></tbody></table>`,
			},
		},
	}

	site.page = browsertest.New(map[string]string{
		testBaseURL + portfolioPath: fixture(t, "portfolio.html"),
		testBaseURL + liabilityPath: fixture(t, "liability.html"),
		testBaseURL + cashFlowPath:  fixture(t, "cf.html"),
	})
	site.page.OnSetValue = func(_ *browsertest.FakePage, _, value string) {
		site.mu.Lock()
		site.pending = value
		site.mu.Unlock()
	}
	site.page.OnSubmit = func(_ *browsertest.FakePage, _ string) {
		site.mu.Lock()
		id := site.pending
		site.mu.Unlock()
		site.show(id)
	}
	site.show(initial)
	return site
}

func (s *fakeSite) show(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	s.page.SetPage(testBaseURL+groupsPath, groupsHTML(id))
	for path, html := range s.perGroup[id] {
		s.page.SetPage(testBaseURL+path, html)
	}
}

func (s *fakeSite) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

type recordingSink struct {
	mu     sync.Mutex
	labels []string
}

func (r *recordingSink) Save(ctx context.Context, label string, png []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
	return "mem://" + label, nil
}

func newTestScraper(sink *recordingSink) *Scraper {
	s := New(testBaseURL, nil, time.Second)
	if sink != nil {
		s.Screenshots = sink
	}
	s.PollInterval = time.Millisecond
	return s
}

func countCalls(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestScrapeAll_Full(t *testing.T) {
	site := newFakeSite(t, "g-family")
	s := newTestScraper(nil)

	res, err := s.ScrapeAll(context.Background(), site.page, Options{})
	require.NoError(t, err)

	require.NotNil(t, res.Global)
	assert.True(t, res.Global.RefreshCompleted)
	assert.Len(t, res.Global.Accounts, 3)
	assert.Len(t, res.Global.Holdings, 5)
	assert.Len(t, res.Global.Transactions, 7)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, "g-family", res.DefaultGroup.ID)

	require.Len(t, res.Groups, 3)
	noGroup := res.NoGroupData()
	require.NotNil(t, noGroup)
	assert.Len(t, noGroup.Accounts, 3)
	assert.Len(t, noGroup.AssetHistory, 2)
	assert.Len(t, noGroup.SpendingTargets, 2)

	others := res.OtherGroups()
	require.Len(t, others, 2)
	assert.Equal(t, "g-family", others[0].Group.ID)
	assert.Len(t, others[0].Accounts, 1)
	assert.Empty(t, others[0].SpendingTargets)
	assert.Equal(t, "g-invest", others[1].Group.ID)
	assert.NotNil(t, others[1].Accounts, "an empty account table is still a known membership")
	assert.Empty(t, others[1].Accounts)
	assert.Empty(t, others[1].AssetHistory)

	calls := site.page.Calls()
	assert.Equal(t, 1, countCalls(calls, "click "+refreshAllSelector))
	assert.Equal(t, "g-family", site.current(), "original group is selected again")
}

func TestScrapeAll_SkipRefreshToleratesFailures(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	site.page.Fail["navigate "+testBaseURL+portfolioPath] = errors.New("timeout")
	sink := &recordingSink{}
	s := newTestScraper(sink)

	res, err := s.ScrapeAll(context.Background(), site.page, Options{SkipRefresh: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"portfolio"}, res.Skipped)
	assert.Equal(t, []string{"portfolio"}, sink.labels)
	assert.False(t, res.Global.RefreshCompleted)
	assert.Len(t, res.Global.Holdings, 1, "liabilities are still read")
	assert.Zero(t, countCalls(site.page.Calls(), "click "))
	assert.Equal(t, domain.NoGroupID, site.current())
}

func TestScrapeAll_FullModeAbortsAndRestoresGroup(t *testing.T) {
	site := newFakeSite(t, "g-invest")
	site.page.Fail["wait "+cashFlowTableSelector] = errors.New("element not found")
	s := newTestScraper(nil)

	res, err := s.ScrapeAll(context.Background(), site.page, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "transactions")
	assert.Equal(t, "g-invest", site.current())
}

func TestScrapeAll_GroupOnly(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	s := newTestScraper(nil)

	res, err := s.ScrapeAll(context.Background(), site.page, Options{GroupOnly: true})
	require.NoError(t, err)

	assert.Nil(t, res.Global)
	assert.Nil(t, res.NoGroupData())
	require.Len(t, res.Groups, 2)

	calls := site.page.Calls()
	assert.Zero(t, countCalls(calls, "navigate "+testBaseURL+cashFlowPath))
	assert.Zero(t, countCalls(calls, "navigate "+testBaseURL+portfolioPath))
	assert.Equal(t, domain.NoGroupID, site.current())
}

func TestScrapeAll_GroupsUnavailable(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	site.page.Fail["wait "+groupSelectSelector] = errors.New("blank page")
	sink := &recordingSink{}
	s := newTestScraper(sink)

	_, err := s.ScrapeAll(context.Background(), site.page, Options{SkipRefresh: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Equal(t, []string{"groups"}, sink.labels)
}

func TestSelectGroup_RejectedSwitch(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	site.page.OnSubmit = nil
	s := newTestScraper(nil)

	err := s.selectGroup(context.Background(), site.page, "g-family")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still shows group 0")
}

func TestRefresh_Timeout(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	site.page.SetPage(testBaseURL+accountsPath, fixture(t, "accounts_updating.html"))
	s := newTestScraper(nil)
	s.RefreshTimeout = 5 * time.Millisecond

	assert.False(t, s.refresh(context.Background(), site.page))
	assert.Equal(t, 1, countCalls(site.page.Calls(), "click "+refreshAllSelector))
}

func TestRefresh_ButtonMissing(t *testing.T) {
	site := newFakeSite(t, domain.NoGroupID)
	site.page.Fail["wait "+refreshAllSelector] = errors.New("not visible")
	s := newTestScraper(nil)

	assert.False(t, s.refresh(context.Background(), site.page))
	assert.Zero(t, countCalls(site.page.Calls(), "click "))
}
