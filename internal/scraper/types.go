package scraper

import (
	"cloud.google.com/go/civil"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// Account is one row of the registered-accounts table.
type Account struct {
	MfID           string
	Name           string
	ConnectionType string
	Institution    string // empty when the source shows none
	Category       string
	Status         domain.AccountStatus
	TotalAssets    *int64
	LastUpdated    string
	ErrorMessage   string
}

// HoldingRow is one asset or liability line with its current valuation.
type HoldingRow struct {
	MfID              string // empty for manual holdings
	AccountName       string
	Name              string
	Code              string
	Category          string // asset category, empty for liabilities
	Type              domain.HoldingType
	LiabilityCategory string

	Amount            *int64
	Quantity          *float64
	UnitPrice         *float64
	AvgCostPrice      *float64
	DailyChange       *int64
	UnrealizedGain    *int64
	UnrealizedGainPct *float64
}

// TransactionRow is one cash-flow row as classified at extraction time.
type TransactionRow struct {
	MfID           string
	Date           civil.Date
	AccountName    string
	Category       string // empty when the source shows none
	SubCategory    string
	Description    string
	Amount         int64
	IsTransfer     bool
	IsExcluded     bool // grayed out, or a transfer
	TransferTarget string
	Type           domain.TransactionType
}

// GroupList is the group selector state.
type GroupList struct {
	Groups    []domain.Group
	CurrentID string
}

// GlobalData is everything extracted under the no-group selection.
type GlobalData struct {
	Accounts         []Account
	Holdings         []HoldingRow
	Transactions     []TransactionRow
	RefreshCompleted bool
}

// GroupData is what one group selection shows.
type GroupData struct {
	Group           domain.Group
	Accounts        []Account
	AssetHistory    []domain.AssetHistoryPoint
	SpendingTargets []domain.SpendingTarget
}

// Result is the output of one ScrapeAll call.
type Result struct {
	Global       *GlobalData // nil for group-only runs
	Groups       []GroupData
	DefaultGroup domain.Group
	// Skipped lists entities dropped after a tolerated failure.
	Skipped []string
}

// NoGroupData returns the data scraped under the no-group selection, if any.
func (r *Result) NoGroupData() *GroupData {
	for i := range r.Groups {
		if r.Groups[i].Group.IsNoGroup() {
			return &r.Groups[i]
		}
	}
	return nil
}

// OtherGroups returns every scraped group except the no-group bucket.
func (r *Result) OtherGroups() []GroupData {
	var out []GroupData
	for _, g := range r.Groups {
		if !g.Group.IsNoGroup() {
			out = append(out, g)
		}
	}
	return out
}
