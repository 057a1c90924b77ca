package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

const transactionBatchSize = 200

var transactionUpdateColumns = []string{
	"account_id", "date", "category", "sub_category", "description", "amount", "type",
	"is_transfer", "is_excluded_from_calculation", "transfer_target", "transfer_target_account_id",
	"updated_at",
}

// UpsertTransactions stores transactions keyed by mf id, overwriting every
// column. Account references are resolved through accountIDs first and the
// database second; unresolvable ones are stored as NULL. A transaction owned
// by the placeholder account, or by no resolvable account, keeps the owner
// already stored.
func (r *Repository) UpsertTransactions(ctx context.Context, txs []domain.Transaction, accountIDs map[string]uint) error {
	for _, t := range txs {
		if t.IsTransfer && !t.IsExcludedFromCalculation {
			return fmt.Errorf("UpsertTransactions: %w: transfer %s is not excluded from calculation", ErrInvariant, t.MfID)
		}
	}
	if len(txs) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		ids, err := resolveAccountRefs(tx, txs, accountIDs)
		if err != nil {
			return err
		}
		lookup := func(mfID *string) *uint {
			if mfID == nil {
				return nil
			}
			id, ok := ids[*mfID]
			if !ok {
				log.Warn().Str("account_mf_id", *mfID).Msg("Transaction references an unknown account")
				return nil
			}
			return &id
		}

		owned := make([]TransactionRow, 0, len(txs))
		var unowned []TransactionRow
		for _, t := range txs {
			row := TransactionRow{
				MfID:                      t.MfID,
				Date:                      t.Date.String(),
				AccountID:                 lookup(t.AccountMfID),
				Category:                  t.Category,
				SubCategory:               t.SubCategory,
				Description:               t.Description,
				Amount:                    t.Amount,
				Type:                      string(t.Type),
				IsTransfer:                t.IsTransfer,
				IsExcludedFromCalculation: t.IsExcludedFromCalculation,
				TransferTarget:            t.TransferTarget,
				TransferTargetAccountID:   lookup(t.TransferTargetAccountMfID),
			}
			if row.AccountID == nil || *t.AccountMfID == domain.UnknownAccountMfID {
				unowned = append(unowned, row)
			} else {
				owned = append(owned, row)
			}
		}

		if err := upsertTransactionRows(tx, owned, transactionUpdateColumns); err != nil {
			return err
		}
		return upsertTransactionRows(tx, unowned, transactionUpdateColumns[1:])
	})
	if err != nil {
		return fmt.Errorf("UpsertTransactions: %w", err)
	}
	return nil
}

func upsertTransactionRows(tx *gorm.DB, rows []TransactionRow, columns []string) error {
	if len(rows) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mf_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).CreateInBatches(&rows, transactionBatchSize).Error
	if err != nil {
		return fmt.Errorf("upserting: %w", err)
	}
	return nil
}

// ListTransactions returns transactions dated within [from, to] (YYYY-MM-DD), oldest first.
func (r *Repository) ListTransactions(ctx context.Context, from, to string) ([]TransactionRow, error) {
	var rows []TransactionRow
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date").Order("mf_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return rows, nil
}

func resolveAccountRefs(tx *gorm.DB, txs []domain.Transaction, known map[string]uint) (map[string]uint, error) {
	ids := make(map[string]uint, len(known))
	for k, v := range known {
		ids[k] = v
	}

	var missing []string
	seen := map[string]bool{}
	for _, t := range txs {
		for _, ref := range []*string{t.AccountMfID, t.TransferTargetAccountMfID} {
			if ref == nil || seen[*ref] {
				continue
			}
			seen[*ref] = true
			if _, ok := ids[*ref]; !ok {
				missing = append(missing, *ref)
			}
		}
	}

	found, err := accountIDsByMfID(tx, missing)
	if err != nil {
		return nil, err
	}
	for k, v := range found {
		ids[k] = v
	}
	return ids, nil
}
