package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

// CreateSnapshot always inserts a new snapshot and returns its id.
func (r *Repository) CreateSnapshot(ctx context.Context, groupID string, date civil.Date, refreshCompleted bool) (uint, error) {
	row := SnapshotRow{GroupID: groupID, Date: date.String(), RefreshCompleted: refreshCompleted}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return 0, fmt.Errorf("CreateSnapshot: %w", err)
	}
	return row.ID, nil
}

// DeleteSnapshot removes a snapshot together with its holding values.
func (r *Repository) DeleteSnapshot(ctx context.Context, snapshotID uint) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", snapshotID).Delete(&HoldingValueRow{}).Error; err != nil {
			return fmt.Errorf("deleting values: %w", err)
		}
		if err := tx.Delete(&SnapshotRow{}, snapshotID).Error; err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteSnapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot of the group, or nil when there is none.
func (r *Repository) LatestSnapshot(ctx context.Context, groupID string) (*SnapshotRow, error) {
	var row SnapshotRow
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestSnapshot: %w", err)
	}
	return &row, nil
}

// CountHoldingValues returns how many valuations belong to the snapshot.
func (r *Repository) CountHoldingValues(ctx context.Context, snapshotID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&HoldingValueRow{}).Where("snapshot_id = ?", snapshotID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("CountHoldingValues: %w", err)
	}
	return n, nil
}

type holdingKey struct {
	accountID uint
	name      string
	typ       domain.HoldingType
}

// holdingUpdateColumns starts with account_id so placeholder-owned rows can drop it.
var holdingUpdateColumns = []string{"account_id", "category_id", "name", "code", "type", "liability_category", "updated_at"}

// SaveHoldings stores holdings and their valuations for the snapshot.
//
// Holdings with an mf id are upserted by it; a holding owned by the
// placeholder account keeps the owner already stored. Holdings without one are
// matched by (account, name, type) against stored rows that also lack an
// mf id: the k-th such holding of the run reuses the k-th stored row in id
// order, and any surplus is inserted.
func (r *Repository) SaveHoldings(ctx context.Context, snapshotID uint, holdings []domain.Holding, accountIDs map[string]uint) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		categories := map[string]uint{}
		existing := map[holdingKey][]uint{}
		used := map[holdingKey]int{}

		for _, h := range holdings {
			accountID, ok := accountIDs[h.AccountMfID]
			if !ok {
				return fmt.Errorf("holding %q: account %s not stored", h.Name, h.AccountMfID)
			}

			row := HoldingRow{
				MfID:              h.MfID,
				AccountID:         accountID,
				Name:              h.Name,
				Code:              h.Code,
				Type:              string(h.Type),
				LiabilityCategory: h.LiabilityCategory,
			}
			if h.Category != nil && h.Type == domain.HoldingTypeAsset {
				id, ok := categories[*h.Category]
				if !ok {
					var err error
					if id, err = getOrCreateAssetCategory(tx, *h.Category); err != nil {
						return err
					}
					categories[*h.Category] = id
				}
				row.CategoryID = &id
			}

			var holdingID uint
			if h.MfID != nil {
				columns := holdingUpdateColumns
				if h.AccountMfID == domain.UnknownAccountMfID {
					columns = holdingUpdateColumns[1:]
				}
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "mf_id"}},
					DoUpdates: clause.AssignmentColumns(columns),
				}).Create(&row).Error
				if err != nil {
					return fmt.Errorf("upserting holding %s: %w", *h.MfID, err)
				}
				var stored HoldingRow
				if err := tx.Select("id").Where("mf_id = ?", *h.MfID).First(&stored).Error; err != nil {
					return fmt.Errorf("re-reading holding %s: %w", *h.MfID, err)
				}
				holdingID = stored.ID
			} else {
				key := holdingKey{accountID: accountID, name: h.Name, typ: h.Type}
				candidates, loaded := existing[key]
				if !loaded {
					err := tx.Model(&HoldingRow{}).
						Where("mf_id IS NULL AND account_id = ? AND name = ? AND type = ?", accountID, h.Name, string(h.Type)).
						Order("id").Pluck("id", &candidates).Error
					if err != nil {
						return fmt.Errorf("matching holding %q: %w", h.Name, err)
					}
					existing[key] = candidates
				}

				k := used[key]
				used[key]++
				if k < len(candidates) {
					holdingID = candidates[k]
					err := tx.Model(&HoldingRow{}).Where("id = ?", holdingID).Updates(map[string]any{
						"category_id":        row.CategoryID,
						"code":               row.Code,
						"liability_category": row.LiabilityCategory,
					}).Error
					if err != nil {
						return fmt.Errorf("updating holding %d: %w", holdingID, err)
					}
				} else {
					if err := tx.Create(&row).Error; err != nil {
						return fmt.Errorf("inserting holding %q: %w", h.Name, err)
					}
					holdingID = row.ID
				}
			}

			value := HoldingValueRow{
				HoldingID:         holdingID,
				SnapshotID:        snapshotID,
				Amount:            h.Value.Amount,
				Quantity:          h.Value.Quantity,
				UnitPrice:         h.Value.UnitPrice,
				AvgCostPrice:      h.Value.AvgCostPrice,
				DailyChange:       h.Value.DailyChange,
				UnrealizedGain:    h.Value.UnrealizedGain,
				UnrealizedGainPct: h.Value.UnrealizedGainPct,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "holding_id"}, {Name: "snapshot_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"amount", "quantity", "unit_price", "avg_cost_price",
					"daily_change", "unrealized_gain", "unrealized_gain_pct", "updated_at",
				}),
			}).Create(&value).Error
			if err != nil {
				return fmt.Errorf("upserting value of holding %d: %w", holdingID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SaveHoldings: %w", err)
	}
	return nil
}
