package allocation

import (
	"context"
	"fmt"
	"time"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"

	"github.com/google/uuid"
)

type CatalogDB interface {
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetTier(ctx context.Context, eventID, tierID int64) (*models.Tier, error)
}

type SeatLedger interface {
	SoldAmong(ctx context.Context, eventID, tierID int64, seatIndexes []int) ([]int, error)
}

type CommitDB interface {
	AllocateTokenIDs(ctx context.Context, count int) (int64, error)
	CommitPurchase(ctx context.Context, tier *models.Tier, seats []models.SeatSlot, tickets []models.Ticket) error
}

// SeatHolder is the cross-instance seat guard (Redis in production). May be
// nil: the per-tier lock plus the transactional commit already serialize a
// single node.
type SeatHolder interface {
	HoldSeats(ctx context.Context, eventID, tierID int64, seatIndexes []int, holdID string) (bool, error)
	ReleaseSeats(ctx context.Context, eventID, tierID int64, seatIndexes []int, holdID string) error
}

type KafkaPublisher interface {
	PublishTicketsPurchased(tickets []models.Ticket) error
}

type QRGenerator interface {
	TicketQR(ticket models.Ticket) ([]byte, error)
}

// Service is the allocation engine. Purchase is the only write path for
// inventory: it validates the request against the catalog and the seat
// ledger, then commits seat slots, tickets and the sold count atomically.
type Service struct {
	Catalog CatalogDB
	Ledger  SeatLedger
	DB      CommitDB
	Holds   SeatHolder
	Kafka   KafkaPublisher
	QR      QRGenerator

	// Now is injectable for the event-expiry check in tests.
	Now func() time.Time

	locks tierLocks
}

func NewService(catalog CatalogDB, ledger SeatLedger, db CommitDB, holds SeatHolder, kafka KafkaPublisher, qrGen QRGenerator) *Service {
	return &Service{
		Catalog: catalog,
		Ledger:  ledger,
		DB:      db,
		Holds:   holds,
		Kafka:   kafka,
		QR:      qrGen,
		Now:     time.Now,
	}
}

// Purchase validates and commits one purchase attempt. All failure modes are
// checked before any effect is applied; a losing concurrent purchase fails
// fast instead of queuing.
func (s *Service) Purchase(ctx context.Context, req models.PurchaseRequest) ([]models.Ticket, error) {
	if req.Buyer == "" {
		return nil, fmt.Errorf("buyer identity is required: %w", errs.ErrInvalidInput)
	}

	// Check-then-act for a tier must not interleave with another purchase on
	// the same tier.
	mu := s.locks.acquire(req.EventID, req.TierID)
	defer mu.Unlock()

	event, err := s.Catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	tier, err := s.Catalog.GetTier(ctx, req.EventID, req.TierID)
	if err != nil {
		return nil, err
	}

	if !s.Now().Before(event.StartTime) {
		return nil, errs.ErrEventExpired
	}

	var count int
	if tier.Seated {
		if err := s.checkSeats(ctx, tier, req.Seats); err != nil {
			return nil, err
		}
		count = len(req.Seats)
	} else {
		if req.Quantity < 1 {
			return nil, errs.ErrInvalidQuantity
		}
		if tier.Sold >= tier.Capacity {
			return nil, errs.ErrSoldOut
		}
		if tier.Sold+req.Quantity > tier.Capacity {
			return nil, errs.ErrInsufficientInventory
		}
		count = req.Quantity
	}

	total := tier.UnitPriceWei * int64(count)
	if tier.UnitPriceWei > 0 && total/tier.UnitPriceWei != int64(count) {
		return nil, fmt.Errorf("price overflow: %w", errs.ErrInvalidInput)
	}
	if req.PaidAmountWei < total {
		return nil, errs.ErrInsufficientPayment
	}

	holdID := uuid.NewString()
	if tier.Seated && s.Holds != nil {
		ok, err := s.Holds.HoldSeats(ctx, req.EventID, req.TierID, req.Seats, holdID)
		if err != nil {
			return nil, fmt.Errorf("seat hold error: %w", err)
		}
		if !ok {
			return nil, errs.ErrSeatAlreadySold
		}
		defer func() {
			_ = s.Holds.ReleaseSeats(ctx, req.EventID, req.TierID, req.Seats, holdID)
		}()
	}

	firstToken, err := s.DB.AllocateTokenIDs(ctx, count)
	if err != nil {
		return nil, err
	}

	tickets, seats, err := s.mint(tier, req, firstToken, count)
	if err != nil {
		return nil, err
	}

	if err := s.DB.CommitPurchase(ctx, tier, seats, tickets); err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketsPurchased(tickets); err != nil {
			fmt.Printf("Kafka publish error (tickets purchased): %v\n", err)
		}
	}
	return tickets, nil
}

func (s *Service) checkSeats(ctx context.Context, tier *models.Tier, seats []int) error {
	if len(seats) == 0 {
		return errs.ErrInvalidQuantity
	}
	seen := make(map[int]bool, len(seats))
	for _, idx := range seats {
		if idx < 0 || idx >= tier.Capacity {
			return fmt.Errorf("seat %d: %w", idx, errs.ErrInvalidSeat)
		}
		if seen[idx] {
			// A request that names the same seat twice loses against itself.
			return fmt.Errorf("seat %d requested twice: %w", idx, errs.ErrSeatAlreadySold)
		}
		seen[idx] = true
	}

	sold, err := s.Ledger.SoldAmong(ctx, tier.EventID, tier.TierID, seats)
	if err != nil {
		return fmt.Errorf("failed to check seat ledger: %w", err)
	}
	if len(sold) > 0 {
		return fmt.Errorf("seat %d: %w", sold[0], errs.ErrSeatAlreadySold)
	}
	return nil
}

func (s *Service) mint(tier *models.Tier, req models.PurchaseRequest, firstToken int64, count int) ([]models.Ticket, []models.SeatSlot, error) {
	issuedAt := s.Now()
	tickets := make([]models.Ticket, 0, count)
	var seats []models.SeatSlot

	for i := 0; i < count; i++ {
		ticket := models.Ticket{
			TokenID:            firstToken + int64(i),
			EventID:            tier.EventID,
			TierID:             tier.TierID,
			Owner:              req.Buyer,
			PriceAtPurchaseWei: tier.UnitPriceWei,
			IssuedAt:           issuedAt,
		}
		if tier.Seated {
			seatIndex := req.Seats[i]
			ticket.SeatIndex = &seatIndex
			seats = append(seats, models.SeatSlot{
				EventID:   tier.EventID,
				TierID:    tier.TierID,
				SeatIndex: seatIndex,
				Owner:     req.Buyer,
			})
		}
		if s.QR != nil {
			qrBytes, err := s.QR.TicketQR(ticket)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate QR: %w", err)
			}
			ticket.QRCode = qrBytes
		}
		tickets = append(tickets, ticket)
	}
	return tickets, seats, nil
}
