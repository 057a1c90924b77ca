package store

import "time"

type GroupRow struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Name          string     `gorm:"column:name;not null"`
	IsCurrent     bool       `gorm:"column:is_current;not null"`
	LastScrapedAt *time.Time `gorm:"column:last_scraped_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (GroupRow) TableName() string { return "groups" }

type InstitutionCategoryRow struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	DisplayOrder int       `gorm:"column:display_order;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (InstitutionCategoryRow) TableName() string { return "institution_categories" }

type AccountRow struct {
	ID          uint    `gorm:"column:id;primaryKey"`
	MfID        string  `gorm:"column:mf_id;not null;uniqueIndex"`
	Name        string  `gorm:"column:name;not null"`
	Type        string  `gorm:"column:type;not null"` // 自動連携 / 手動
	Institution *string `gorm:"column:institution"`
	CategoryID  *uint   `gorm:"column:category_id;index"`
	IsActive    bool    `gorm:"column:is_active;not null"`

	Category *InstitutionCategoryRow `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (AccountRow) TableName() string { return "accounts" }

type GroupAccountRow struct {
	ID        uint   `gorm:"column:id;primaryKey"`
	GroupID   string `gorm:"column:group_id;not null;uniqueIndex:idx_group_accounts_group_account"`
	AccountID uint   `gorm:"column:account_id;not null;uniqueIndex:idx_group_accounts_group_account"`

	Group   *GroupRow   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	Account *AccountRow `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

func (GroupAccountRow) TableName() string { return "group_accounts" }

type AssetCategoryRow struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (AssetCategoryRow) TableName() string { return "asset_categories" }

type AccountStatusRow struct {
	ID           uint    `gorm:"column:id;primaryKey"`
	AccountID    uint    `gorm:"column:account_id;not null;uniqueIndex"`
	Status       string  `gorm:"column:status;not null"` // ok / error / updating
	LastUpdated  *string `gorm:"column:last_updated"`
	TotalAssets  int64   `gorm:"column:total_assets;not null"`
	ErrorMessage *string `gorm:"column:error_message"`

	Account *AccountRow `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (AccountStatusRow) TableName() string { return "account_statuses" }

// HoldingRow has no uniqueness on (account, name, type): manual holdings may
// legitimately repeat.
type HoldingRow struct {
	ID                uint    `gorm:"column:id;primaryKey"`
	MfID              *string `gorm:"column:mf_id;uniqueIndex"`
	AccountID         uint    `gorm:"column:account_id;not null;index"`
	CategoryID        *uint   `gorm:"column:category_id"` // NULL for liabilities
	Name              string  `gorm:"column:name;not null"`
	Code              *string `gorm:"column:code"`
	Type              string  `gorm:"column:type;not null"` // asset / liability
	LiabilityCategory *string `gorm:"column:liability_category"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (HoldingRow) TableName() string { return "holdings" }

type SnapshotRow struct {
	ID               uint      `gorm:"column:id;primaryKey"`
	GroupID          string    `gorm:"column:group_id;not null;index"`
	Date             string    `gorm:"column:date;not null"` // YYYY-MM-DD
	RefreshCompleted bool      `gorm:"column:refresh_completed;not null"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (SnapshotRow) TableName() string { return "daily_snapshots" }

type HoldingValueRow struct {
	ID                uint     `gorm:"column:id;primaryKey"`
	HoldingID         uint     `gorm:"column:holding_id;not null;uniqueIndex:idx_holding_values_holding_snapshot"`
	SnapshotID        uint     `gorm:"column:snapshot_id;not null;uniqueIndex:idx_holding_values_holding_snapshot"`
	Amount            int64    `gorm:"column:amount;not null"`
	Quantity          *float64 `gorm:"column:quantity"`
	UnitPrice         *float64 `gorm:"column:unit_price"`
	AvgCostPrice      *float64 `gorm:"column:avg_cost_price"`
	DailyChange       *int64   `gorm:"column:daily_change"`
	UnrealizedGain    *int64   `gorm:"column:unrealized_gain"`
	UnrealizedGainPct *float64 `gorm:"column:unrealized_gain_pct"`

	Holding  *HoldingRow  `gorm:"foreignKey:HoldingID;constraint:OnDelete:CASCADE"`
	Snapshot *SnapshotRow `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (HoldingValueRow) TableName() string { return "holding_values" }

type TransactionRow struct {
	ID                        uint    `gorm:"column:id;primaryKey"`
	MfID                      string  `gorm:"column:mf_id;not null;uniqueIndex"`
	Date                      string  `gorm:"column:date;not null;index"` // YYYY-MM-DD
	AccountID                 *uint   `gorm:"column:account_id;index"`
	Category                  *string `gorm:"column:category"`
	SubCategory               *string `gorm:"column:sub_category"`
	Description               string  `gorm:"column:description;not null"`
	Amount                    int64   `gorm:"column:amount;not null"`
	Type                      string  `gorm:"column:type;not null"` // income / expense / transfer
	IsTransfer                bool    `gorm:"column:is_transfer;not null"`
	IsExcludedFromCalculation bool    `gorm:"column:is_excluded_from_calculation;not null"`
	TransferTarget            *string `gorm:"column:transfer_target"`
	TransferTargetAccountID   *uint   `gorm:"column:transfer_target_account_id"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (TransactionRow) TableName() string { return "transactions" }

type AssetHistoryRow struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	GroupID     string `gorm:"column:group_id;not null;uniqueIndex:idx_asset_history_group_date"`
	Date        string `gorm:"column:date;not null;uniqueIndex:idx_asset_history_group_date"`
	TotalAssets int64  `gorm:"column:total_assets;not null"`
	Change      int64  `gorm:"column:change;not null"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (AssetHistoryRow) TableName() string { return "asset_history" }

type AssetHistoryCategoryRow struct {
	ID             uint   `gorm:"column:id;primaryKey"`
	AssetHistoryID uint   `gorm:"column:asset_history_id;not null;uniqueIndex:idx_asset_history_categories_history_name"`
	CategoryName   string `gorm:"column:category_name;not null;uniqueIndex:idx_asset_history_categories_history_name"`
	Amount         int64  `gorm:"column:amount;not null"`

	AssetHistory *AssetHistoryRow `gorm:"foreignKey:AssetHistoryID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

func (AssetHistoryCategoryRow) TableName() string { return "asset_history_categories" }

type SpendingTargetRow struct {
	ID              uint   `gorm:"column:id;primaryKey"`
	GroupID         string `gorm:"column:group_id;not null;uniqueIndex:idx_spending_targets_group_category"`
	LargeCategoryID int    `gorm:"column:large_category_id;not null;uniqueIndex:idx_spending_targets_group_category"`
	CategoryName    string `gorm:"column:category_name;not null"`
	Type            string `gorm:"column:type;not null"` // fixed / variable

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SpendingTargetRow) TableName() string { return "spending_targets" }

// allModels is the AutoMigrate order: parents before children.
var allModels = []any{
	&GroupRow{},
	&InstitutionCategoryRow{},
	&AccountRow{},
	&GroupAccountRow{},
	&AssetCategoryRow{},
	&AccountStatusRow{},
	&HoldingRow{},
	&SnapshotRow{},
	&HoldingValueRow{},
	&TransactionRow{},
	&AssetHistoryRow{},
	&AssetHistoryCategoryRow{},
	&SpendingTargetRow{},
}
