// Package builder turns extracted rows into storage-ready aggregates.
//
// Builders are pure: the scrape time is an input and the same rows always
// produce the same aggregate, with every slice in a stable order. Rows that
// share an mf id collapse to the one with the greatest content, so the
// result does not depend on page order.
package builder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
)

// Options carry the run-level inputs of a build.
type Options struct {
	ScrapedAt time.Time
	// SnapshotDate defaults to the calendar day of ScrapedAt in its own location.
	SnapshotDate civil.Date
}

func (o Options) snapshotDate() civil.Date {
	if o.SnapshotDate.IsValid() {
		return o.SnapshotDate
	}
	return civil.DateOf(o.ScrapedAt)
}

// BuildScrapedData assembles the no-group aggregate from the global
// extraction and the no-group view. groupData may be nil when the group
// view could not be read; the aggregate then carries no history or budget.
// Without an account list no owner can be resolved, so holdings and
// transactions are left out.
func BuildScrapedData(global *scraper.GlobalData, groupData *scraper.GroupData, opts Options) *domain.ScrapedData {
	if global == nil {
		global = &scraper.GlobalData{}
	}

	data := &domain.ScrapedData{
		Group:            domain.Group{ID: domain.NoGroupID, Name: domain.NoGroupName},
		ScrapedAt:        opts.ScrapedAt,
		SnapshotDate:     opts.snapshotDate(),
		RefreshCompleted: global.RefreshCompleted,
		MembershipKnown:  global.Accounts != nil,
	}
	if groupData != nil {
		data.Group = groupData.Group
		data.AssetHistory = buildAssetHistory(groupData.AssetHistory)
		data.SpendingTargets = buildSpendingTargets(groupData.SpendingTargets)
	}

	accounts := buildAccounts(global.Accounts)
	idx := newAccountIndex(accounts)

	if data.MembershipKnown {
		data.Holdings = buildHoldings(global.Holdings, idx)
		data.Transactions = buildTransactions(global.Transactions, idx)
	}

	if idx.unknownUsed {
		accounts = append(accounts, unknownAccount())
		sortAccounts(accounts)
	}
	data.Accounts = accounts
	data.MemberAccountMfIDs = memberIDs(global.Accounts)
	return data
}

// BuildGroupOnlyScrapedData assembles the aggregate of a non-default group.
func BuildGroupOnlyScrapedData(groupData *scraper.GroupData, opts Options) *domain.GroupOnlyScrapedData {
	return &domain.GroupOnlyScrapedData{
		Group:              groupData.Group,
		ScrapedAt:          opts.ScrapedAt,
		MemberAccountMfIDs: memberIDs(groupData.Accounts),
		MembershipKnown:    groupData.Accounts != nil,
		AssetHistory:       buildAssetHistory(groupData.AssetHistory),
		SpendingTargets:    buildSpendingTargets(groupData.SpendingTargets),
	}
}

// FromResult builds every aggregate of one scrape. The no-group aggregate is
// nil for group-only scrapes.
func FromResult(res *scraper.Result, opts Options) (*domain.ScrapedData, []domain.GroupOnlyScrapedData) {
	var full *domain.ScrapedData
	if res.Global != nil {
		full = BuildScrapedData(res.Global, res.NoGroupData(), opts)
	}

	others := res.OtherGroups()
	groups := make([]domain.GroupOnlyScrapedData, 0, len(others))
	for i := range others {
		groups = append(groups, *BuildGroupOnlyScrapedData(&others[i], opts))
	}
	return full, groups
}

func buildAccounts(rows []scraper.Account) []domain.Account {
	byID := make(map[string]domain.Account, len(rows))
	for _, r := range rows {
		if r.MfID == "" || r.MfID == domain.UnknownAccountMfID {
			continue
		}
		a := domain.Account{
			MfID:           r.MfID,
			Name:           strings.TrimSpace(r.Name),
			ConnectionType: r.ConnectionType,
			Institution:    optional(r.Institution),
			Category:       optional(r.Category),
			Status:         r.Status,
			LastUpdated:    optional(r.LastUpdated),
			ErrorMessage:   optional(r.ErrorMessage),
		}
		if a.Status == "" {
			a.Status = domain.AccountStatusOK
		}
		if r.TotalAssets != nil {
			a.TotalAssets = *r.TotalAssets
		}
		if prev, ok := byID[r.MfID]; !ok || outranks(a, prev) {
			byID[r.MfID] = a
		}
	}

	accounts := make([]domain.Account, 0, len(byID))
	for _, a := range byID {
		accounts = append(accounts, a)
	}
	sortAccounts(accounts)
	return accounts
}

func sortAccounts(accounts []domain.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].MfID < accounts[j].MfID })
}

func unknownAccount() domain.Account {
	return domain.Account{
		MfID:           domain.UnknownAccountMfID,
		Name:           domain.UnknownAccountName,
		ConnectionType: "手動",
		Status:         domain.AccountStatusOK,
	}
}

// memberIDs lists the distinct real account ids of an account table.
func memberIDs(rows []scraper.Account) []string {
	if rows == nil {
		return nil
	}
	seen := map[string]bool{}
	ids := []string{}
	for _, r := range rows {
		if r.MfID == "" || r.MfID == domain.UnknownAccountMfID || seen[r.MfID] {
			continue
		}
		seen[r.MfID] = true
		ids = append(ids, r.MfID)
	}
	sort.Strings(ids)
	return ids
}

func buildHoldings(rows []scraper.HoldingRow, idx *accountIndex) []domain.Holding {
	holdings := make([]domain.Holding, 0, len(rows))
	withID := map[string]int{}
	for _, r := range rows {
		h := domain.Holding{
			MfID:              optional(r.MfID),
			AccountMfID:       idx.owner(r.AccountName),
			Name:              strings.TrimSpace(r.Name),
			Code:              optional(r.Code),
			Type:              r.Type,
			LiabilityCategory: optional(r.LiabilityCategory),
			Value: domain.HoldingValue{
				Quantity:          r.Quantity,
				UnitPrice:         r.UnitPrice,
				AvgCostPrice:      r.AvgCostPrice,
				DailyChange:       r.DailyChange,
				UnrealizedGain:    r.UnrealizedGain,
				UnrealizedGainPct: r.UnrealizedGainPct,
			},
		}
		if h.Type == "" {
			h.Type = domain.HoldingTypeAsset
		}
		if h.Type == domain.HoldingTypeAsset {
			h.Category = optional(r.Category)
		}
		if r.Amount != nil {
			h.Value.Amount = *r.Amount
		}

		if h.MfID != nil {
			if i, ok := withID[*h.MfID]; ok {
				if outranks(h, holdings[i]) {
					holdings[i] = h
				}
				continue
			}
			withID[*h.MfID] = len(holdings)
		}
		holdings = append(holdings, h)
	}

	// Stable: id-less duplicates keep page order, which drives ordinal matching.
	sort.SliceStable(holdings, func(i, j int) bool {
		a, b := holdings[i], holdings[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.AccountMfID != b.AccountMfID {
			return a.AccountMfID < b.AccountMfID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return deref(a.MfID) < deref(b.MfID)
	})
	return holdings
}

func buildTransactions(rows []scraper.TransactionRow, idx *accountIndex) []domain.Transaction {
	byID := make(map[string]domain.Transaction, len(rows))
	for _, r := range rows {
		if r.MfID == "" {
			continue
		}
		owner := idx.owner(r.AccountName)
		tx := domain.Transaction{
			MfID:        r.MfID,
			Date:        r.Date,
			AccountMfID: &owner,
			Category:    optional(r.Category),
			SubCategory: optional(r.SubCategory),
			Description: strings.TrimSpace(r.Description),
			Amount:      r.Amount,
			Type:        domain.ClassifyTransaction(r.IsTransfer, r.Amount),
			IsTransfer:  r.IsTransfer,
			// a transfer never counts towards income or spending
			IsExcludedFromCalculation: r.IsExcluded || r.IsTransfer,
			TransferTarget:            optional(r.TransferTarget),
		}
		if tx.TransferTarget != nil {
			tx.TransferTargetAccountMfID = idx.exact(*tx.TransferTarget)
		}
		if prev, ok := byID[r.MfID]; !ok || outranks(tx, prev) {
			byID[r.MfID] = tx
		}
	}

	txs := make([]domain.Transaction, 0, len(byID))
	for _, tx := range byID {
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].MfID < txs[j].MfID
	})
	return txs
}

func buildAssetHistory(points []domain.AssetHistoryPoint) []domain.AssetHistoryPoint {
	byDate := make(map[civil.Date]domain.AssetHistoryPoint, len(points))
	for _, p := range points {
		cats := map[string]int64{}
		for _, c := range p.Categories {
			name := strings.TrimSpace(c.Name)
			if prev, ok := cats[name]; name != "" && (!ok || c.Amount > prev) {
				cats[name] = c.Amount
			}
		}
		p.Categories = make([]domain.AssetHistoryCategory, 0, len(cats))
		for name, amount := range cats {
			p.Categories = append(p.Categories, domain.AssetHistoryCategory{Name: name, Amount: amount})
		}
		sort.Slice(p.Categories, func(i, j int) bool { return p.Categories[i].Name < p.Categories[j].Name })
		if prev, ok := byDate[p.Date]; !ok || outranks(p, prev) {
			byDate[p.Date] = p
		}
	}

	out := make([]domain.AssetHistoryPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func buildSpendingTargets(targets []domain.SpendingTarget) []domain.SpendingTarget {
	byID := make(map[int]domain.SpendingTarget, len(targets))
	for _, t := range targets {
		if prev, ok := byID[t.LargeCategoryID]; !ok || outranks(t, prev) {
			byID[t.LargeCategoryID] = t
		}
	}
	out := make([]domain.SpendingTarget, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LargeCategoryID < out[j].LargeCategoryID })
	return out
}

// outranks reports whether a wins over b among rows sharing a key. Rows are
// compared by their JSON encoding, which follows pointers and is total.
func outranks(a, b any) bool {
	return contentKey(a) > contentKey(b)
}

func contentKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
