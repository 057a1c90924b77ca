package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/mf-dashboard/internal/domain"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// SaveResult describes what SaveScrapedData wrote.
type SaveResult struct {
	SnapshotID uint
	AccountIDs map[string]uint
}

// SaveScrapedData persists the no-group aggregate family by family. The
// first failing family aborts the rest; families already committed stay.
// Without a known account list no snapshot is taken and SnapshotID is zero.
func (r *Repository) SaveScrapedData(ctx context.Context, data *domain.ScrapedData) (*SaveResult, error) {
	log := logger.FromContext(ctx)
	fail := func(step string, err error) (*SaveResult, error) {
		return nil, fmt.Errorf("%w: SaveScrapedData: %s: %w", ErrPersistence, step, err)
	}

	if err := r.UpsertGroup(ctx, data.Group); err != nil {
		return fail("group", err)
	}

	accountIDs, err := r.UpsertAccounts(ctx, data.Accounts, data.MembershipKnown)
	if err != nil {
		return fail("accounts", err)
	}

	if data.MembershipKnown {
		members := make([]uint, 0, len(data.MemberAccountMfIDs))
		for _, mfID := range data.MemberAccountMfIDs {
			if mfID == domain.UnknownAccountMfID {
				continue
			}
			if id, ok := accountIDs[mfID]; ok {
				members = append(members, id)
			}
		}
		if err := r.ReplaceGroupAccounts(ctx, data.Group.ID, members); err != nil {
			return fail("group accounts", err)
		}
	} else {
		log.Warn().Str("group_id", data.Group.ID).Msg("Account list unavailable, keeping stored membership")
	}

	if err := r.UpsertAccountStatuses(ctx, data.Accounts, accountIDs); err != nil {
		return fail("account statuses", err)
	}

	var snapshotID uint
	if data.MembershipKnown {
		if snapshotID, err = r.CreateSnapshot(ctx, data.Group.ID, data.SnapshotDate, data.RefreshCompleted); err != nil {
			return fail("snapshot", err)
		}
		if err := r.SaveHoldings(ctx, snapshotID, data.Holdings, accountIDs); err != nil {
			return fail("holdings", err)
		}
		if err := r.UpsertTransactions(ctx, data.Transactions, accountIDs); err != nil {
			return fail("transactions", err)
		}
	} else {
		log.Warn().
			Str("group_id", data.Group.ID).
			Int("holdings", len(data.Holdings)).
			Int("transactions", len(data.Transactions)).
			Msg("Account list unavailable, skipping snapshot, holdings and transactions")
	}
	if err := r.UpsertAssetHistory(ctx, data.Group.ID, data.AssetHistory); err != nil {
		return fail("asset history", err)
	}
	if err := r.UpsertSpendingTargets(ctx, data.Group.ID, data.SpendingTargets); err != nil {
		return fail("spending targets", err)
	}
	if err := r.UpdateGroupLastScrapedAt(ctx, data.Group.ID, data.ScrapedAt); err != nil {
		return fail("last scraped at", err)
	}

	log.Info().
		Str("group_id", data.Group.ID).
		Uint("snapshot_id", snapshotID).
		Int("accounts", len(data.Accounts)).
		Int("holdings", len(data.Holdings)).
		Int("transactions", len(data.Transactions)).
		Int("history_points", len(data.AssetHistory)).
		Msg("Saved scraped data")

	return &SaveResult{SnapshotID: snapshotID, AccountIDs: accountIDs}, nil
}

// SaveGroupOnlyData persists the aggregate of a non-default group. Member
// accounts must already be stored; unknown ones are skipped.
func (r *Repository) SaveGroupOnlyData(ctx context.Context, data *domain.GroupOnlyScrapedData) error {
	log := logger.FromContext(ctx).With().Str("group_id", data.Group.ID).Logger()
	fail := func(step string, err error) error {
		return fmt.Errorf("%w: SaveGroupOnlyData: %s: %w", ErrPersistence, step, err)
	}

	if err := r.UpsertGroup(ctx, data.Group); err != nil {
		return fail("group", err)
	}

	if data.MembershipKnown {
		ids, err := r.AccountIDsByMfID(ctx, data.MemberAccountMfIDs)
		if err != nil {
			return fail("group accounts", err)
		}
		members := make([]uint, 0, len(ids))
		for _, mfID := range data.MemberAccountMfIDs {
			id, ok := ids[mfID]
			if !ok {
				log.Warn().Str("account_mf_id", mfID).Msg("Skipping unknown group member")
				continue
			}
			members = append(members, id)
		}
		if err := r.ReplaceGroupAccounts(ctx, data.Group.ID, members); err != nil {
			return fail("group accounts", err)
		}
	} else {
		log.Warn().Msg("Account list unavailable, keeping stored membership")
	}

	if err := r.UpsertAssetHistory(ctx, data.Group.ID, data.AssetHistory); err != nil {
		return fail("asset history", err)
	}
	if err := r.UpsertSpendingTargets(ctx, data.Group.ID, data.SpendingTargets); err != nil {
		return fail("spending targets", err)
	}
	if err := r.UpdateGroupLastScrapedAt(ctx, data.Group.ID, data.ScrapedAt); err != nil {
		return fail("last scraped at", err)
	}

	log.Info().
		Int("members", len(data.MemberAccountMfIDs)).
		Int("history_points", len(data.AssetHistory)).
		Int("spending_targets", len(data.SpendingTargets)).
		Msg("Saved group data")
	return nil
}

// HasExistingData reports whether any snapshot has been stored yet.
func (r *Repository) HasExistingData(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&SnapshotRow{}).Limit(1).Count(&n).Error; err != nil {
		return false, fmt.Errorf("HasExistingData: %w", err)
	}
	return n > 0, nil
}
