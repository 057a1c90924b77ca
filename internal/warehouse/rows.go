package warehouse

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// AssetHistoryRow is one day of a group's totals in <dataset>.asset_history.
type AssetHistoryRow struct {
	GroupID     string     `bigquery:"group_id"`     // REQUIRED
	Date        civil.Date `bigquery:"date"`         // DATE, REQUIRED
	TotalAssets int64      `bigquery:"total_assets"` // REQUIRED
	Change      int64      `bigquery:"change"`
	ExportedAt  time.Time  `bigquery:"exported_ts"` // TIMESTAMP, REQUIRED
}

// HoldingValueRow is one valuation of a run in <dataset>.holding_values.
type HoldingValueRow struct {
	RunID        string     `bigquery:"run_id"`        // REQUIRED
	SnapshotDate civil.Date `bigquery:"snapshot_date"` // DATE, REQUIRED

	HoldingMfID bigquery.NullString `bigquery:"holding_mf_id"` // NULL for manual holdings
	AccountMfID string              `bigquery:"account_mf_id"`
	Name        string              `bigquery:"name"`
	Type        string              `bigquery:"type"` // asset / liability
	Category    bigquery.NullString `bigquery:"category"`

	Amount            int64                `bigquery:"amount"`
	Quantity          bigquery.NullFloat64 `bigquery:"quantity"`
	UnitPrice         bigquery.NullFloat64 `bigquery:"unit_price"`
	AvgCostPrice      bigquery.NullFloat64 `bigquery:"avg_cost_price"`
	DailyChange       bigquery.NullInt64   `bigquery:"daily_change"`
	UnrealizedGain    bigquery.NullInt64   `bigquery:"unrealized_gain"`
	UnrealizedGainPct bigquery.NullFloat64 `bigquery:"unrealized_gain_pct"`

	ExportedAt time.Time `bigquery:"exported_ts"`
}

// assetHistoryParam is the STRUCT element of the MERGE source array.
type assetHistoryParam struct {
	Date        civil.Date `bigquery:"date"`
	TotalAssets int64      `bigquery:"total_assets"`
	Change      int64      `bigquery:"change"`
}

func assetHistoryParams(points []domain.AssetHistoryPoint) []assetHistoryParam {
	params := make([]assetHistoryParam, 0, len(points))
	for _, p := range points {
		params = append(params, assetHistoryParam{Date: p.Date, TotalAssets: p.TotalAssets, Change: p.Change})
	}
	return params
}

func holdingValueRows(runID string, date civil.Date, holdings []domain.Holding, at time.Time) []*HoldingValueRow {
	rows := make([]*HoldingValueRow, 0, len(holdings))
	for _, h := range holdings {
		v := h.Value
		rows = append(rows, &HoldingValueRow{
			RunID:             runID,
			SnapshotDate:      date,
			HoldingMfID:       nullString(h.MfID),
			AccountMfID:       h.AccountMfID,
			Name:              h.Name,
			Type:              string(h.Type),
			Category:          nullString(h.Category),
			Amount:            v.Amount,
			Quantity:          nullFloat(v.Quantity),
			UnitPrice:         nullFloat(v.UnitPrice),
			AvgCostPrice:      nullFloat(v.AvgCostPrice),
			DailyChange:       nullInt(v.DailyChange),
			UnrealizedGain:    nullInt(v.UnrealizedGain),
			UnrealizedGainPct: nullFloat(v.UnrealizedGainPct),
			ExportedAt:        at.UTC(),
		})
	}
	return rows
}

func nullString(s *string) bigquery.NullString {
	if s == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int64) bigquery.NullInt64 {
	if i == nil {
		return bigquery.NullInt64{}
	}
	return bigquery.NullInt64{Int64: *i, Valid: true}
}
