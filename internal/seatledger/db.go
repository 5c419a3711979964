// Package seatledger tracks seat ownership for seated tiers. The seat_slots
// table is sparse: no row means the seat is still available.
package seatledger

import (
	"context"
	"database/sql"
	"errors"

	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) IsSeatSold(ctx context.Context, eventID, tierID int64, seatIndex int) (bool, error) {
	owner, err := d.SeatOwner(ctx, eventID, tierID, seatIndex)
	if err != nil {
		return false, err
	}
	return owner != "", nil
}

// SeatOwner returns the owning identity of a seat, or "" if unsold.
func (d *DB) SeatOwner(ctx context.Context, eventID, tierID int64, seatIndex int) (string, error) {
	var slot models.SeatSlot
	err := d.Bun.NewSelect().
		Model(&slot).
		Where("event_id = ?", eventID).
		Where("tier_id = ?", tierID).
		Where("seat_index = ?", seatIndex).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return slot.Owner, nil
}

// SoldSeatIndexes returns every sold seat index of the tier, ascending.
func (d *DB) SoldSeatIndexes(ctx context.Context, eventID, tierID int64) ([]int, error) {
	indexes := []int{}
	err := d.Bun.NewSelect().
		Model((*models.SeatSlot)(nil)).
		Column("seat_index").
		Where("event_id = ?", eventID).
		Where("tier_id = ?", tierID).
		Order("seat_index ASC").
		Scan(ctx, &indexes)
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

// SoldAmong filters the requested seat indexes down to those already owned.
func (d *DB) SoldAmong(ctx context.Context, eventID, tierID int64, seatIndexes []int) ([]int, error) {
	if len(seatIndexes) == 0 {
		return nil, nil
	}
	sold := []int{}
	err := d.Bun.NewSelect().
		Model((*models.SeatSlot)(nil)).
		Column("seat_index").
		Where("event_id = ?", eventID).
		Where("tier_id = ?", tierID).
		Where("seat_index IN (?)", bun.In(seatIndexes)).
		Order("seat_index ASC").
		Scan(ctx, &sold)
	if err != nil {
		return nil, err
	}
	return sold, nil
}
