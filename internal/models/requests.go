package models

import "time"

type CreateEventRequest struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
}

type CreateTierRequest struct {
	Name         string `json:"name"`
	UnitPriceWei int64  `json:"unit_price_wei"`
	Capacity     int    `json:"capacity"`
	Seated       bool   `json:"seated"`
}

// PurchaseRequest carries one purchase attempt. Seats is used for seated
// tiers, Quantity for general admission; exactly one of the two applies.
type PurchaseRequest struct {
	EventID       int64  `json:"event_id"`
	TierID        int64  `json:"tier_id"`
	Buyer         string `json:"buyer"`
	Seats         []int  `json:"seats,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	PaidAmountWei int64  `json:"paid_amount_wei"`
}

type TransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type SeatStatus struct {
	EventID   int64  `json:"event_id"`
	TierID    int64  `json:"tier_id"`
	SeatIndex int    `json:"seat_index"`
	Sold      bool   `json:"sold"`
	Owner     string `json:"owner,omitempty"`
}

type TierAvailability struct {
	Tier
	Available int `json:"available"`
}

// TierSales is one row of the per-event sales summary projection.
type TierSales struct {
	TierID     int64  `json:"tier_id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Sold       int    `json:"sold"`
	RevenueWei int64  `json:"revenue_wei"`
}

type EventSales struct {
	EventID         int64       `json:"event_id"`
	TicketsSold     int         `json:"tickets_sold"`
	TotalRevenueWei int64       `json:"total_revenue_wei"`
	Tiers           []TierSales `json:"tiers"`
}
