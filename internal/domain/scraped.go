package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

const (
	// NoGroupID is the reserved group that holds every real account.
	NoGroupID = "0"
	// NoGroupName is how the source labels the no-group selection.
	NoGroupName = "グループ選択なし"

	// UnknownAccountMfID is the placeholder owner for rows whose account could not be identified.
	UnknownAccountMfID = "unknown"
	UnknownAccountName = "不明な口座"
)

// HoldingType separates assets from liabilities.
type HoldingType string

const (
	HoldingTypeAsset     HoldingType = "asset"
	HoldingTypeLiability HoldingType = "liability"
)

// AccountStatus values reported by the aggregation site.
type AccountStatus string

const (
	AccountStatusOK       AccountStatus = "ok"
	AccountStatusError    AccountStatus = "error"
	AccountStatusUpdating AccountStatus = "updating"
)

// SpendingTargetType is the budget kind of a large category.
type SpendingTargetType string

const (
	SpendingTargetFixed    SpendingTargetType = "fixed"
	SpendingTargetVariable SpendingTargetType = "variable"
)

// Group is a named subset of accounts.
type Group struct {
	ID        string
	Name      string
	IsCurrent bool
}

// IsNoGroup reports whether g is the reserved no-group bucket.
func (g Group) IsNoGroup() bool {
	return g.ID == NoGroupID
}

// Account is a storage-ready account together with its latest status.
type Account struct {
	MfID           string
	Name           string
	ConnectionType string // 自動連携 / 手動
	Institution    *string
	Category       *string // institution category name

	Status       AccountStatus
	LastUpdated  *string
	TotalAssets  int64
	ErrorMessage *string
}

// IsReal reports whether the account exists on the source site.
func (a Account) IsReal() bool {
	return a.MfID != UnknownAccountMfID
}

// Holding is one asset or liability line together with its valuation in this run.
type Holding struct {
	MfID              *string
	AccountMfID       string
	Category          *string // asset category name, nil for liabilities
	Name              string
	Code              *string
	Type              HoldingType
	LiabilityCategory *string

	Value HoldingValue
}

// HoldingValue is the valuation of a holding within one snapshot.
type HoldingValue struct {
	Amount            int64
	Quantity          *float64
	UnitPrice         *float64
	AvgCostPrice      *float64
	DailyChange       *int64
	UnrealizedGain    *int64
	UnrealizedGainPct *float64
}

// AssetHistoryPoint is the aggregate total assets of a group on one day.
type AssetHistoryPoint struct {
	Date        civil.Date
	TotalAssets int64
	Change      int64
	Categories  []AssetHistoryCategory
}

// AssetHistoryCategory is one category share of an AssetHistoryPoint.
type AssetHistoryCategory struct {
	Name   string
	Amount int64
}

// SpendingTarget is a budget line for one large category.
type SpendingTarget struct {
	LargeCategoryID int
	CategoryName    string
	Type            SpendingTargetType
}

// ScrapedData is the full-context aggregate persisted for the no-group pass.
type ScrapedData struct {
	Group     Group
	ScrapedAt time.Time
	// SnapshotDate is the calendar day the run's snapshot is recorded under.
	SnapshotDate     civil.Date
	RefreshCompleted bool

	Accounts        []Account
	Holdings        []Holding
	Transactions    []Transaction
	AssetHistory    []AssetHistoryPoint
	SpendingTargets []SpendingTarget

	// MemberAccountMfIDs are the accounts linked to Group; for the no-group
	// pass this is every real account.
	MemberAccountMfIDs []string
	// MembershipKnown is false when the account list could not be read.
	// Membership and account deactivation are left untouched then.
	MembershipKnown bool
}

// GroupOnlyScrapedData carries the entities owned by a non-default group.
type GroupOnlyScrapedData struct {
	Group              Group
	ScrapedAt          time.Time
	MemberAccountMfIDs []string
	MembershipKnown    bool
	AssetHistory       []AssetHistoryPoint
	SpendingTargets    []SpendingTarget
}
