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

// ---------------- EVENTS ----------------

// CreateEvent inserts the event and fills in its generated ID.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().
		Model(event).
		Returning("id").
		Exec(ctx)
	return err
}

func (d *DB) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrUnknownEvent
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ---------------- TIERS ----------------

// NextTierID returns the 1-based ID the next tier of the event should get.
// Tier creation is not contested (catalog writes are organizer-only and
// rare), so a count-then-insert is sufficient.
func (d *DB) NextTierID(ctx context.Context, eventID int64) (int64, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Tier)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count) + 1, nil
}

func (d *DB) CreateTier(ctx context.Context, tier *models.Tier) error {
	_, err := d.Bun.NewInsert().Model(tier).Exec(ctx)
	return err
}

func (d *DB) GetTier(ctx context.Context, eventID, tierID int64) (*models.Tier, error) {
	var tier models.Tier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("event_id = ?", eventID).
		Where("tier_id = ?", tierID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrUnknownTier
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (d *DB) ListTiers(ctx context.Context, eventID int64) ([]models.Tier, error) {
	tiers := []models.Tier{}
	err := d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Order("tier_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
