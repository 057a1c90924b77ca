package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// UpsertAccounts stores accounts keyed by mf id and marks them active.
// With deactivateMissing set, every other account is marked inactive;
// accounts are never deleted. It returns the internal id of every account
// in the input.
func (r *Repository) UpsertAccounts(ctx context.Context, accounts []domain.Account, deactivateMissing bool) (map[string]uint, error) {
	ids := map[string]uint{}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		categories := map[string]uint{}
		mfIDs := make([]string, 0, len(accounts))

		for _, a := range accounts {
			row := AccountRow{
				MfID:        a.MfID,
				Name:        a.Name,
				Type:        a.ConnectionType,
				Institution: a.Institution,
				IsActive:    true,
			}
			if a.Category != nil {
				id, ok := categories[*a.Category]
				if !ok {
					var err error
					if id, err = getOrCreateInstitutionCategory(tx, *a.Category); err != nil {
						return err
					}
					categories[*a.Category] = id
				}
				row.CategoryID = &id
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "mf_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "type", "institution", "category_id", "is_active", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upserting %s: %w", a.MfID, err)
			}
			mfIDs = append(mfIDs, a.MfID)
		}

		if deactivateMissing {
			q := tx.Model(&AccountRow{}).Where("mf_id <> ?", domain.UnknownAccountMfID)
			if len(mfIDs) > 0 {
				q = q.Where("mf_id NOT IN ?", mfIDs)
			}
			res := q.Update("is_active", false)
			if res.Error != nil {
				return fmt.Errorf("deactivating: %w", res.Error)
			}
			if res.RowsAffected > 0 {
				log := logger.FromContext(ctx)
				log.Info().Int64("accounts", res.RowsAffected).Msg("Deactivated accounts missing from the run")
			}
		}

		found, err := accountIDsByMfID(tx, mfIDs)
		if err != nil {
			return err
		}
		ids = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("UpsertAccounts: %w", err)
	}
	return ids, nil
}

// UpsertAccountStatuses stores the latest status of each account with a known id.
func (r *Repository) UpsertAccountStatuses(ctx context.Context, accounts []domain.Account, accountIDs map[string]uint) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		for _, a := range accounts {
			id, ok := accountIDs[a.MfID]
			if !ok || !a.IsReal() {
				continue
			}
			status := a.Status
			if status == "" {
				status = domain.AccountStatusOK
			}
			row := AccountStatusRow{
				AccountID:    id,
				Status:       string(status),
				LastUpdated:  a.LastUpdated,
				TotalAssets:  a.TotalAssets,
				ErrorMessage: a.ErrorMessage,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "account_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "last_updated", "total_assets", "error_message", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("upserting %s: %w", a.MfID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("UpsertAccountStatuses: %w", err)
	}
	return nil
}

// AccountIDsByMfID maps the given mf ids to internal ids. Unknown ids are
// absent from the result.
func (r *Repository) AccountIDsByMfID(ctx context.Context, mfIDs []string) (map[string]uint, error) {
	ids, err := accountIDsByMfID(r.db.WithContext(ctx), mfIDs)
	if err != nil {
		return nil, fmt.Errorf("AccountIDsByMfID: %w", err)
	}
	return ids, nil
}

// ListAccounts returns every account ordered by mf id.
func (r *Repository) ListAccounts(ctx context.Context) ([]AccountRow, error) {
	var rows []AccountRow
	if err := r.db.WithContext(ctx).Order("mf_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return rows, nil
}

func accountIDsByMfID(tx *gorm.DB, mfIDs []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(mfIDs))
	if len(mfIDs) == 0 {
		return ids, nil
	}
	var rows []AccountRow
	if err := tx.Select("id", "mf_id").Where("mf_id IN ?", mfIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("resolving account ids: %w", err)
	}
	for _, row := range rows {
		ids[row.MfID] = row.ID
	}
	return ids, nil
}

// getOrCreateInstitutionCategory returns the id of the named category,
// appending new categories at the end of the display order.
func getOrCreateInstitutionCategory(tx *gorm.DB, name string) (uint, error) {
	var row InstitutionCategoryRow
	err := tx.Where("name = ?", name).First(&row).Error
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("reading institution category %q: %w", name, err)
	}

	var count int64
	if err := tx.Model(&InstitutionCategoryRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting institution categories: %w", err)
	}
	row = InstitutionCategoryRow{Name: name, DisplayOrder: int(count)}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("creating institution category %q: %w", name, err)
	}
	if err := tx.Where("name = ?", name).First(&row).Error; err != nil {
		return 0, fmt.Errorf("re-reading institution category %q: %w", name, err)
	}
	return row.ID, nil
}

func getOrCreateAssetCategory(tx *gorm.DB, name string) (uint, error) {
	row := AssetCategoryRow{Name: name}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("creating asset category %q: %w", name, err)
	}
	var found AssetCategoryRow
	if err := tx.Where("name = ?", name).First(&found).Error; err != nil {
		return 0, fmt.Errorf("reading asset category %q: %w", name, err)
	}
	return found.ID, nil
}
