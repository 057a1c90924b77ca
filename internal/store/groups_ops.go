package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// UpsertGroup stores g. When g is current every other group stops being
// current first, so exactly one current group remains.
func (r *Repository) UpsertGroup(ctx context.Context, g domain.Group) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if g.IsCurrent {
			if err := tx.Model(&GroupRow{}).Where("is_current = ?", true).Update("is_current", false).Error; err != nil {
				return fmt.Errorf("clearing current: %w", err)
			}
		}
		row := GroupRow{ID: g.ID, Name: g.Name, IsCurrent: g.IsCurrent}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_current", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upserting: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("UpsertGroup: %w", err)
	}
	return nil
}

// ReplaceGroupAccounts makes accountIDs the exact membership of the group.
func (r *Repository) ReplaceGroupAccounts(ctx context.Context, groupID string, accountIDs []uint) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&GroupAccountRow{}).Error; err != nil {
			return fmt.Errorf("deleting: %w", err)
		}
		if len(accountIDs) == 0 {
			return nil
		}
		rows := make([]GroupAccountRow, 0, len(accountIDs))
		for _, id := range accountIDs {
			rows = append(rows, GroupAccountRow{GroupID: groupID, AccountID: id})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ReplaceGroupAccounts: %w", err)
	}
	return nil
}

// UpdateGroupLastScrapedAt records when the group was last scraped.
func (r *Repository) UpdateGroupLastScrapedAt(ctx context.Context, groupID string, at time.Time) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(&GroupRow{}).Where("id = ?", groupID).Update("last_scraped_at", at.UTC()).Error
	})
	if err != nil {
		return fmt.Errorf("UpdateGroupLastScrapedAt: %w", err)
	}
	return nil
}

// CurrentGroupID returns the id of the current group, or "" when none is set.
func (r *Repository) CurrentGroupID(ctx context.Context) (string, error) {
	var row GroupRow
	err := r.db.WithContext(ctx).Where("is_current = ?", true).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("CurrentGroupID: %w", err)
	}
	return row.ID, nil
}

// ListGroups returns the current group first, then the most recently scraped.
func (r *Repository) ListGroups(ctx context.Context) ([]GroupRow, error) {
	var rows []GroupRow
	err := r.db.WithContext(ctx).
		Order("is_current DESC").
		Order("last_scraped_at IS NULL").
		Order("last_scraped_at DESC").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	return rows, nil
}

// GroupAccountIDs returns the account ids linked to the group.
func (r *Repository) GroupAccountIDs(ctx context.Context, groupID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&GroupAccountRow{}).
		Where("group_id = ?", groupID).Order("account_id").Pluck("account_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("GroupAccountIDs: %w", err)
	}
	return ids, nil
}
