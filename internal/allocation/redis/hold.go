package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Holds guards seats across service instances with short-TTL SetNX keys. It
// is taken inside the per-tier critical section right before the commit, so a
// hold held by another instance surfaces as a lost seat race.
type Holds struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewHolds(client *redis.Client, ttl time.Duration) *Holds {
	return &Holds{Client: client, TTL: ttl}
}

func seatKey(eventID, tierID int64, seatIndex int) string {
	return fmt.Sprintf("seat_hold:%d:%d:%d", eventID, tierID, seatIndex)
}

func (h *Holds) holdSeat(ctx context.Context, key, holdID string) (bool, error) {
	return h.Client.SetNX(ctx, key, holdID, h.TTL).Result()
}

func (h *Holds) releaseSeat(ctx context.Context, key, holdID string) error {
	val, err := h.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == holdID {
		_, err := h.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// HoldSeats takes every requested seat or none: on the first seat that is
// already held, everything acquired so far is rolled back.
func (h *Holds) HoldSeats(ctx context.Context, eventID, tierID int64, seatIndexes []int, holdID string) (bool, error) {
	held := []string{}
	for _, idx := range seatIndexes {
		key := seatKey(eventID, tierID, idx)
		ok, err := h.holdSeat(ctx, key, holdID)
		if err != nil || !ok {
			for _, k := range held {
				_ = h.releaseSeat(ctx, k, holdID)
			}
			return false, err
		}
		held = append(held, key)
	}
	return true, nil
}

func (h *Holds) ReleaseSeats(ctx context.Context, eventID, tierID int64, seatIndexes []int, holdID string) error {
	var firstErr error
	for _, idx := range seatIndexes {
		if err := h.releaseSeat(ctx, seatKey(eventID, tierID, idx), holdID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
