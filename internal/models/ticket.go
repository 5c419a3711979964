package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SeatSlot records ownership of a single seat in a seated tier. The table is
// sparse: a row exists only once the seat has been sold, and the composite
// primary key is the double-sale guard at the storage level.
type SeatSlot struct {
	bun.BaseModel `bun:"table:seat_slots"`

	EventID   int64  `bun:"event_id,pk" json:"event_id"`
	TierID    int64  `bun:"tier_id,pk" json:"tier_id"`
	SeatIndex int    `bun:"seat_index,pk" json:"seat_index"`
	Owner     string `bun:"owner,notnull" json:"owner"`
}

// Ticket is an issued ownership record. Tickets are never deleted; Owner is
// reassigned on transfer and everything else is frozen at mint time.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TokenID            int64     `bun:"token_id,pk" json:"token_id"`
	EventID            int64     `bun:"event_id,notnull" json:"event_id"`
	TierID             int64     `bun:"tier_id,notnull" json:"tier_id"`
	SeatIndex          *int      `bun:"seat_index" json:"seat_index,omitempty"`
	Owner              string    `bun:"owner,notnull" json:"owner"`
	PriceAtPurchaseWei int64     `bun:"price_at_purchase_wei,notnull" json:"price_at_purchase_wei"`
	IssuedAt           time.Time `bun:"issued_at,notnull" json:"issued_at"`
	QRCode             []byte    `bun:"qr_code" json:"-"`
}

// TokenCounter is the single-row source of monotonically increasing token
// IDs. It is read and advanced inside the purchase commit transaction.
type TokenCounter struct {
	bun.BaseModel `bun:"table:token_counter"`

	ID          int64 `bun:"id,pk"`
	NextTokenID int64 `bun:"next_token_id,notnull"`
}
