package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func TestParseAccounts(t *testing.T) {
	accounts, err := ParseAccounts(fixture(t, "accounts.html"))
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	bank := accounts[0]
	assert.Equal(t, "acc-bank", bank.MfID)
	assert.Equal(t, "楽天銀行", bank.Name)
	assert.Equal(t, "自動連携", bank.ConnectionType)
	assert.Equal(t, "楽天銀行", bank.Institution)
	assert.Equal(t, "銀行", bank.Category)
	assert.Equal(t, domain.AccountStatusOK, bank.Status)
	require.NotNil(t, bank.TotalAssets)
	assert.Equal(t, int64(1234567), *bank.TotalAssets)
	assert.Equal(t, "01/15 09:30", bank.LastUpdated)

	sec := accounts[1]
	assert.Equal(t, domain.AccountStatusError, sec.Status)
	assert.Equal(t, "ログインに失敗しました", sec.ErrorMessage)

	cash := accounts[2]
	assert.Equal(t, "手動", cash.ConnectionType)
	assert.Empty(t, cash.Institution)
	assert.Empty(t, cash.Category)
	assert.False(t, anyUpdating(accounts))
}

func TestParseAccounts_EmptyAndMissing(t *testing.T) {
	accounts, err := ParseAccounts(`<table id="account-table"><tbody></tbody></table>`)
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)

	_, err = ParseAccounts(`<html><body>maintenance</body></html>`)
	assert.Error(t, err)
}

func TestParseAccounts_Updating(t *testing.T) {
	accounts, err := ParseAccounts(fixture(t, "accounts_updating.html"))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, domain.AccountStatusUpdating, accounts[0].Status)
	assert.True(t, anyUpdating(accounts))
}

func TestParsePortfolio(t *testing.T) {
	rows, err := ParsePortfolio(fixture(t, "portfolio.html"))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	dep := rows[0]
	assert.Equal(t, "h-dep-1", dep.MfID)
	assert.Equal(t, "預金・現金・暗号資産", dep.Category)
	assert.Equal(t, "楽天銀行", dep.AccountName)
	assert.Equal(t, domain.HoldingTypeAsset, dep.Type)

	cash := rows[1]
	assert.Empty(t, cash.MfID)
	assert.Equal(t, "財布", cash.AccountName)

	fund := rows[2]
	assert.Equal(t, "投資信託", fund.Category, "category falls back to the section heading")
	require.NotNil(t, fund.Amount)
	assert.Equal(t, int64(2000000), *fund.Amount)
	require.NotNil(t, fund.Quantity)
	assert.InDelta(t, 1000, *fund.Quantity, 1e-9)
	require.NotNil(t, fund.UnitPrice)
	assert.InDelta(t, 20000, *fund.UnitPrice, 1e-9)
	require.NotNil(t, fund.AvgCostPrice)
	assert.InDelta(t, 15000, *fund.AvgCostPrice, 1e-9)
	require.NotNil(t, fund.DailyChange)
	assert.Equal(t, int64(5000), *fund.DailyChange)
	require.NotNil(t, fund.UnrealizedGain)
	assert.Equal(t, int64(500000), *fund.UnrealizedGain)
	require.NotNil(t, fund.UnrealizedGainPct)
	assert.InDelta(t, 33.33, *fund.UnrealizedGainPct, 1e-9)

	dup := rows[3]
	assert.Equal(t, fund.Name, dup.Name)
	assert.Empty(t, dup.MfID)
	assert.Nil(t, dup.Amount)
	assert.Nil(t, dup.Quantity)
}

func TestParseLiabilities(t *testing.T) {
	rows, err := ParseLiabilities(fixture(t, "liability.html"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "l-card-1", rows[0].MfID)
	assert.Equal(t, domain.HoldingTypeLiability, rows[0].Type)
	assert.Equal(t, "クレジットカード利用残高", rows[0].LiabilityCategory)
	assert.Empty(t, rows[0].Category)
	require.NotNil(t, rows[0].Amount)
	assert.Equal(t, int64(45000), *rows[0].Amount)

	none, err := ParseLiabilities(`<html><body>負債はありません</body></html>`)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseTransactions(t *testing.T) {
	rows, err := ParseTransactions(fixture(t, "cf.html"))
	require.NoError(t, err)
	require.Len(t, rows, 7, "the row without a sortable date is dropped")

	byID := map[string]TransactionRow{}
	for _, r := range rows {
		byID[r.MfID] = r
	}

	food := byID["tx-1"]
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 10}, food.Date)
	assert.Equal(t, "楽天銀行", food.AccountName)
	assert.Equal(t, "食費", food.Category)
	assert.Equal(t, "食料品", food.SubCategory)
	assert.Equal(t, int64(-1200), food.Amount)
	assert.Equal(t, domain.TransactionTypeExpense, food.Type)
	assert.False(t, food.IsTransfer)
	assert.False(t, food.IsExcluded)

	salary := byID["tx-2"]
	assert.Equal(t, domain.TransactionTypeIncome, salary.Type)
	assert.Equal(t, int64(300000), salary.Amount)

	marked := byID["tx-3"]
	assert.True(t, marked.IsTransfer)
	assert.True(t, marked.IsExcluded)
	assert.Equal(t, domain.TransactionTypeTransfer, marked.Type)
	assert.Equal(t, "SBI証券", marked.TransferTarget)
	assert.Equal(t, "楽天銀行", marked.AccountName)

	external := byID["tx-4"]
	assert.Empty(t, external.Category, "未分類 reads as no category")
	assert.True(t, external.IsTransfer)
	assert.Equal(t, "Unknown External Bank", external.TransferTarget)

	withdrawal := byID["tx-5"]
	assert.False(t, withdrawal.IsTransfer, "a missing category alone is not a transfer")
	assert.Equal(t, domain.TransactionTypeExpense, withdrawal.Type)

	grayed := byID["tx-6"]
	assert.False(t, grayed.IsTransfer)
	assert.True(t, grayed.IsExcluded)
	assert.Equal(t, "財布", grayed.AccountName)

	fee := byID["tx-7"]
	assert.False(t, fee.IsTransfer, "categorized rows are never inferred as transfers")
}

func TestParseTransactions_MissingTable(t *testing.T) {
	_, err := ParseTransactions(`<html><body></body></html>`)
	assert.Error(t, err)
}

func TestIsTransfer(t *testing.T) {
	tests := []struct {
		name        string
		category    string
		description string
		marker      bool
		want        bool
	}{
		{"marker wins", "食費", "ランチ", true, true},
		{"uncategorized transfer wording", "", "振替 SBI証券", false, true},
		{"uncategorized charge", "", "Suica チャージ", false, true},
		{"english wording", "", "Bank Transfer", false, true},
		{"uncategorized other", "", "現金引出", false, false},
		{"categorized transfer wording", "その他", "振込手数料", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransfer(tt.category, tt.description, tt.marker))
		})
	}
}

func TestParseGroups(t *testing.T) {
	list, err := ParseGroups(fixture(t, "groups.html"))
	require.NoError(t, err)
	assert.Equal(t, "g-family", list.CurrentID)
	require.Len(t, list.Groups, 3)
	assert.Equal(t, domain.Group{ID: domain.NoGroupID, Name: domain.NoGroupName}, list.Groups[0])
	assert.Equal(t, domain.Group{ID: "g-family", Name: "家族", IsCurrent: true}, list.Groups[1])
	assert.Equal(t, "家族", list.Current().Name)
}

func TestParseGroups_NoGroupOptionAdded(t *testing.T) {
	list, err := ParseGroups(`<select id="group_id_hash"><option value="g-a">A</option></select>`)
	require.NoError(t, err)
	assert.Equal(t, domain.NoGroupID, list.CurrentID)
	require.Len(t, list.Groups, 2)
	assert.True(t, list.Groups[0].IsNoGroup())
	assert.True(t, list.Groups[0].IsCurrent)
	assert.False(t, list.Groups[1].IsCurrent)

	_, err = ParseGroups(`<html></html>`)
	assert.Error(t, err)
}

func TestParseAssetHistory(t *testing.T) {
	points, err := ParseAssetHistory(fixture(t, "history.html"))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 15}, points[0].Date)
	assert.Equal(t, int64(3244567), points[0].TotalAssets)
	assert.Equal(t, int64(5000), points[0].Change)
	assert.Equal(t, []domain.AssetHistoryCategory{
		{Name: "預金・現金・暗号資産", Amount: 1244567},
		{Name: "投資信託", Amount: 2000000},
	}, points[0].Categories)

	assert.Equal(t, int64(0), points[1].Change)

	none, err := ParseAssetHistory(`<html><body></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseSpendingTargets(t *testing.T) {
	targets, err := ParseSpendingTargets(fixture(t, "budgets.html"))
	require.NoError(t, err)
	assert.Equal(t, []domain.SpendingTarget{
		{LargeCategoryID: 11, CategoryName: "食費", Type: domain.SpendingTargetVariable},
		{LargeCategoryID: 15, CategoryName: "住宅", Type: domain.SpendingTargetFixed},
	}, targets)

	empty, err := ParseSpendingTargets(`<table id="spending-targets"><tbody></tbody></table>`)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
