// Package query is the read-only facade consumed by the UI layer. Nothing in
// here mutates state; callers re-query after purchases rather than receiving
// pushes.
package query

import (
	"context"

	"ms-boxoffice/internal/models"
)

type CatalogReader interface {
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	GetTier(ctx context.Context, eventID, tierID int64) (*models.Tier, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListTiers(ctx context.Context, eventID int64) ([]models.Tier, error)
}

type LedgerReader interface {
	SeatOwner(ctx context.Context, eventID, tierID int64, seatIndex int) (string, error)
	SoldSeatIndexes(ctx context.Context, eventID, tierID int64) ([]int, error)
}

type Service struct {
	Catalog CatalogReader
	Ledger  LedgerReader
}

func NewService(catalog CatalogReader, ledger LedgerReader) *Service {
	return &Service{Catalog: catalog, Ledger: ledger}
}

func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.Catalog.ListEvents(ctx)
}

func (s *Service) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.Catalog.GetEvent(ctx, eventID)
}

// ListTiers returns the bounded tier list with availability, so clients never
// have to probe tier IDs until one is missing.
func (s *Service) ListTiers(ctx context.Context, eventID int64) ([]models.TierAvailability, error) {
	if _, err := s.Catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	tiers, err := s.Catalog.ListTiers(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TierAvailability, len(tiers))
	for i, tier := range tiers {
		out[i] = models.TierAvailability{Tier: tier, Available: tier.Available()}
	}
	return out, nil
}

func (s *Service) AvailableCount(ctx context.Context, eventID, tierID int64) (int, error) {
	tier, err := s.Catalog.GetTier(ctx, eventID, tierID)
	if err != nil {
		return 0, err
	}
	return tier.Available(), nil
}

func (s *Service) SeatStatus(ctx context.Context, eventID, tierID int64, seatIndex int) (*models.SeatStatus, error) {
	if _, err := s.Catalog.GetTier(ctx, eventID, tierID); err != nil {
		return nil, err
	}
	owner, err := s.Ledger.SeatOwner(ctx, eventID, tierID, seatIndex)
	if err != nil {
		return nil, err
	}
	return &models.SeatStatus{
		EventID:   eventID,
		TierID:    tierID,
		SeatIndex: seatIndex,
		Sold:      owner != "",
		Owner:     owner,
	}, nil
}

func (s *Service) SoldSeats(ctx context.Context, eventID, tierID int64) ([]int, error) {
	if _, err := s.Catalog.GetTier(ctx, eventID, tierID); err != nil {
		return nil, err
	}
	return s.Ledger.SoldSeatIndexes(ctx, eventID, tierID)
}

// SalesSummary aggregates sold counts and revenue per tier. Prices are frozen
// at tier creation, so revenue is sold * unit price.
func (s *Service) SalesSummary(ctx context.Context, eventID int64) (*models.EventSales, error) {
	if _, err := s.Catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	tiers, err := s.Catalog.ListTiers(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sales := &models.EventSales{EventID: eventID, Tiers: make([]models.TierSales, len(tiers))}
	for i, tier := range tiers {
		revenue := int64(tier.Sold) * tier.UnitPriceWei
		sales.Tiers[i] = models.TierSales{
			TierID:     tier.TierID,
			Name:       tier.Name,
			Capacity:   tier.Capacity,
			Sold:       tier.Sold,
			RevenueWei: revenue,
		}
		sales.TicketsSold += tier.Sold
		sales.TotalRevenueWei += revenue
	}
	return sales, nil
}
