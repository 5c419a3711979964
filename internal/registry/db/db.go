package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetTicket(ctx context.Context, tokenID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("token_id = ?", tokenID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) TicketsOf(ctx context.Context, owner string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("owner = ?", owner).
		Order("token_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) TicketsOfEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("token_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// TransferTicket reassigns ownership of a ticket and, for seated tickets, its
// seat slot, in one transaction. The sold count is untouched: transfer moves
// an existing claim, it does not create one.
func (d *DB) TransferTicket(ctx context.Context, tokenID int64, from, to string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&ticket).
			Where("token_id = ?", tokenID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrTicketNotFound
		}
		if err != nil {
			return err
		}
		if ticket.Owner != from {
			return errs.ErrNotOwner
		}

		ticket.Owner = to
		if _, err := tx.NewUpdate().
			Model(&ticket).
			Column("owner").
			Where("token_id = ?", tokenID).
			Exec(ctx); err != nil {
			return err
		}

		if ticket.SeatIndex != nil {
			if _, err := tx.NewUpdate().
				Model((*models.SeatSlot)(nil)).
				Set("owner = ?", to).
				Where("event_id = ?", ticket.EventID).
				Where("tier_id = ?", ticket.TierID).
				Where("seat_index = ?", *ticket.SeatIndex).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
