package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// UpsertAssetHistory stores daily totals keyed by (group, date) and
// replaces the category breakdown of every stored day.
func (r *Repository) UpsertAssetHistory(ctx context.Context, groupID string, points []domain.AssetHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		for _, p := range points {
			date := p.Date.String()
			row := AssetHistoryRow{GroupID: groupID, Date: date, TotalAssets: p.TotalAssets, Change: p.Change}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "group_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_assets", "change", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upserting %s: %w", date, err)
			}

			var stored AssetHistoryRow
			if err := tx.Select("id").Where("group_id = ? AND date = ?", groupID, date).First(&stored).Error; err != nil {
				return fmt.Errorf("re-reading %s: %w", date, err)
			}

			if err := tx.Where("asset_history_id = ?", stored.ID).Delete(&AssetHistoryCategoryRow{}).Error; err != nil {
				return fmt.Errorf("clearing categories of %s: %w", date, err)
			}
			if len(p.Categories) == 0 {
				continue
			}
			cats := make([]AssetHistoryCategoryRow, 0, len(p.Categories))
			for _, c := range p.Categories {
				cats = append(cats, AssetHistoryCategoryRow{AssetHistoryID: stored.ID, CategoryName: c.Name, Amount: c.Amount})
			}
			if err := tx.Create(&cats).Error; err != nil {
				return fmt.Errorf("inserting categories of %s: %w", date, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("UpsertAssetHistory: %w", err)
	}
	return nil
}

// UpsertSpendingTargets stores the group's budget keyed by (group, large category).
// An empty budget leaves stored targets untouched.
func (r *Repository) UpsertSpendingTargets(ctx context.Context, groupID string, targets []domain.SpendingTarget) error {
	if len(targets) == 0 {
		return nil
	}
	rows := make([]SpendingTargetRow, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, SpendingTargetRow{
			GroupID:         groupID,
			LargeCategoryID: t.LargeCategoryID,
			CategoryName:    t.CategoryName,
			Type:            string(t.Type),
		})
	}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "large_category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_name", "type", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("UpsertSpendingTargets: %w", err)
	}
	return nil
}

// AssetHistory returns the group's daily totals oldest first.
func (r *Repository) AssetHistory(ctx context.Context, groupID string) ([]AssetHistoryRow, error) {
	var rows []AssetHistoryRow
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("date").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("AssetHistory: %w", err)
	}
	return rows, nil
}

// AssetHistoryCategories returns the breakdown of one stored day.
func (r *Repository) AssetHistoryCategories(ctx context.Context, assetHistoryID uint) ([]AssetHistoryCategoryRow, error) {
	var rows []AssetHistoryCategoryRow
	err := r.db.WithContext(ctx).Where("asset_history_id = ?", assetHistoryID).Order("category_name").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("AssetHistoryCategories: %w", err)
	}
	return rows, nil
}

// SpendingTargets returns the group's budget ordered by large category.
func (r *Repository) SpendingTargets(ctx context.Context, groupID string) ([]SpendingTargetRow, error) {
	var rows []SpendingTargetRow
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("large_category_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("SpendingTargets: %w", err)
	}
	return rows, nil
}
