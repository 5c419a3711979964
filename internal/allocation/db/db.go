package db

import (
	"context"
	"database/sql"
	"fmt"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// AllocateTokenIDs reserves count consecutive token IDs and returns the first
// one. The counter only ever moves forward; IDs reserved by a purchase that
// later fails are simply skipped, which keeps minted token IDs monotonic.
func (d *DB) AllocateTokenIDs(ctx context.Context, count int) (int64, error) {
	var first int64
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		counter := &models.TokenCounter{ID: 1, NextTokenID: 1}
		_, err := tx.NewInsert().
			Model(counter).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}

		var next int64
		err = tx.NewUpdate().
			Model((*models.TokenCounter)(nil)).
			Set("next_token_id = next_token_id + ?", count).
			Where("id = 1").
			Returning("next_token_id").
			Scan(ctx, &next)
		if err != nil {
			return err
		}
		first = next - int64(count)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate token ids: %w", err)
	}
	return first, nil
}

// CommitPurchase applies the full effect of a validated purchase in one
// transaction: the guarded sold-count bump, the seat slot rows, and the
// ticket records. Either everything lands or nothing does.
func (d *DB) CommitPurchase(ctx context.Context, tier *models.Tier, seats []models.SeatSlot, tickets []models.Ticket) error {
	count := len(tickets)
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// The WHERE clause re-checks capacity inside the transaction, so the
		// sold count can never pass capacity even if the caller's check went
		// stale.
		res, err := tx.NewUpdate().
			Model((*models.Tier)(nil)).
			Set("sold = sold + ?", count).
			Where("event_id = ?", tier.EventID).
			Where("tier_id = ?", tier.TierID).
			Where("sold + ? <= capacity", count).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errs.ErrInsufficientInventory
		}

		if len(seats) > 0 {
			if _, err := tx.NewInsert().Model(&seats).Exec(ctx); err != nil {
				// The composite primary key on seat_slots rejects a second
				// sale of the same seat.
				return fmt.Errorf("%w: %v", errs.ErrSeatAlreadySold, err)
			}
		}

		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}
