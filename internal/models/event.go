package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID        int64     `bun:"id,pk,autoincrement" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	StartTime time.Time `bun:"start_time,notnull" json:"start_time"`
	Organizer string    `bun:"organizer,notnull" json:"organizer"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Tier is a priced admission category inside an event. Capacity is fixed at
// creation; Sold only ever moves up, and 0 <= Sold <= Capacity must hold.
type Tier struct {
	bun.BaseModel `bun:"table:tiers"`

	EventID      int64  `bun:"event_id,pk" json:"event_id"`
	TierID       int64  `bun:"tier_id,pk" json:"tier_id"`
	Name         string `bun:"name,notnull" json:"name"`
	UnitPriceWei int64  `bun:"unit_price_wei,notnull" json:"unit_price_wei"`
	Capacity     int    `bun:"capacity,notnull" json:"capacity"`
	Sold         int    `bun:"sold,notnull,default:0" json:"sold"`
	Seated       bool   `bun:"seated,notnull" json:"seated"`
}

// Available returns the remaining sellable units of the tier.
func (t Tier) Available() int {
	return t.Capacity - t.Sold
}
